package detect

import (
	"github.com/corvida/augur/pkg/syntax"
)

// Default rule tables. Matching is by exact name; no prefix or fuzzy logic.
var (
	defaultBannedGlobals  = []string{"eval", "Function", "alert", "confirm", "prompt"}
	defaultConsoleObjects = []string{"console"}
	defaultExecFunctions  = []string{"exec", "execSync", "execFile", "execFileSync", "spawn", "spawnSync"}
	defaultPathObjects    = []string{"path"}
	defaultPathFunctions  = []string{"join", "resolve"}
)

// Detector evaluates a single node against the rule set. It holds only
// immutable registries, so one Detector may be shared across goroutines.
type Detector struct {
	banned    *Registry[struct{}]
	console   *Registry[struct{}]
	exec      *Registry[struct{}]
	pathObjs  *Registry[struct{}]
	pathFuncs *Registry[struct{}]
}

// DetectorOption customizes the rule tables of a Detector.
type DetectorOption func(*detectorConfig)

type detectorConfig struct {
	policy        OnDuplicate
	extraBanned   []string
	extraConsole  []string
	extraExec     []string
	extraPathObjs []string
}

// WithDuplicatePolicy sets how registry collisions are resolved while the
// Detector is built. The default is DuplicateSkip.
func WithDuplicatePolicy(policy OnDuplicate) DetectorOption {
	return func(c *detectorConfig) { c.policy = policy }
}

// WithBannedGlobals adds names to the banned global callable table.
func WithBannedGlobals(names ...string) DetectorOption {
	return func(c *detectorConfig) { c.extraBanned = append(c.extraBanned, names...) }
}

// WithConsoleObjects adds object names treated as console-like loggers.
func WithConsoleObjects(names ...string) DetectorOption {
	return func(c *detectorConfig) { c.extraConsole = append(c.extraConsole, names...) }
}

// WithExecFunctions adds callee names treated as shell executors.
func WithExecFunctions(names ...string) DetectorOption {
	return func(c *detectorConfig) { c.extraExec = append(c.extraExec, names...) }
}

// WithPathObjects adds namespace objects whose join/resolve calls are
// checked for traversal-prone arguments.
func WithPathObjects(names ...string) DetectorOption {
	return func(c *detectorConfig) { c.extraPathObjs = append(c.extraPathObjs, names...) }
}

// NewDetector builds a Detector from the default rule tables plus any
// options. Registration fails only under the DuplicateError policy.
func NewDetector(opts ...DetectorOption) (*Detector, error) {
	cfg := detectorConfig{policy: DuplicateSkip}
	for _, opt := range opts {
		opt(&cfg)
	}

	banned, err := NameSet(cfg.policy, append(defaultBannedGlobals, cfg.extraBanned...)...)
	if err != nil {
		return nil, err
	}
	console, err := NameSet(cfg.policy, append(defaultConsoleObjects, cfg.extraConsole...)...)
	if err != nil {
		return nil, err
	}
	exec, err := NameSet(cfg.policy, append(defaultExecFunctions, cfg.extraExec...)...)
	if err != nil {
		return nil, err
	}
	pathObjs, err := NameSet(cfg.policy, append(defaultPathObjects, cfg.extraPathObjs...)...)
	if err != nil {
		return nil, err
	}
	pathFuncs, err := NameSet(cfg.policy, defaultPathFunctions...)
	if err != nil {
		return nil, err
	}

	return &Detector{
		banned:    banned,
		console:   console,
		exec:      exec,
		pathObjs:  pathObjs,
		pathFuncs: pathFuncs,
	}, nil
}

// Warnings returns duplicate-registration warnings accumulated while the
// Detector was built.
func (d *Detector) Warnings() []string {
	var all []string
	for _, r := range []*Registry[struct{}]{d.banned, d.console, d.exec, d.pathObjs, d.pathFuncs} {
		all = append(all, r.Warnings()...)
	}
	return all
}

// Inspect evaluates every rule against a single node and returns at most one
// detection. It never panics on malformed input; nodes that do not satisfy a
// rule's shape are simply not flagged.
func (d *Detector) Inspect(n *syntax.Node) (Detection, bool) {
	if !n.Valid() {
		return Detection{}, false
	}
	switch n.Kind {
	case syntax.KindDebuggerStatement:
		return Detection{Kind: KindDebugger, Offset: n.Start}, true

	case syntax.KindCatchClause:
		return d.emptyCatch(n)

	case syntax.KindCallExpression:
		// Security rules take precedence over lint rules on the same call.
		if det, ok := d.commandInjection(n); ok {
			return det, true
		}
		if det, ok := d.pathTraversal(n); ok {
			return det, true
		}
		if det, ok := d.bannedCall(n); ok {
			return det, true
		}
		return d.consoleCall(n)

	case syntax.KindAnyType:
		return Detection{Kind: KindAnyType, Offset: n.Start}, true

	case syntax.KindAsExpression:
		return d.assertion(n)

	case syntax.KindNonNullExpression:
		return Detection{Kind: KindNonNullAssertion, Offset: n.Start}, true
	}
	return Detection{}, false
}

// InspectLint returns only lint-category detections.
func (d *Detector) InspectLint(n *syntax.Node) (Detection, bool) {
	return d.inspectCategory(n, CategoryLint)
}

// InspectSecurity returns only security-category detections.
func (d *Detector) InspectSecurity(n *syntax.Node) (Detection, bool) {
	return d.inspectCategory(n, CategorySecurity)
}

// InspectTypeSafety returns only type-safety detections.
func (d *Detector) InspectTypeSafety(n *syntax.Node) (Detection, bool) {
	return d.inspectCategory(n, CategoryTypeSafety)
}

// InspectConsoleCalls returns only console-call detections.
func (d *Detector) InspectConsoleCalls(n *syntax.Node) (Detection, bool) {
	det, ok := d.Inspect(n)
	if !ok || det.Kind != KindConsoleCall {
		return Detection{}, false
	}
	return det, true
}

func (d *Detector) inspectCategory(n *syntax.Node, cat Category) (Detection, bool) {
	det, ok := d.Inspect(n)
	if !ok || det.Kind.Category() != cat {
		return Detection{}, false
	}
	return det, true
}

// emptyCatch flags catch clauses whose body is empty or contains only return
// statements. A catch without a statement block is malformed and skipped.
func (d *Detector) emptyCatch(n *syntax.Node) (Detection, bool) {
	block := n.Child(syntax.KindStatementBlock)
	if block == nil {
		return Detection{}, false
	}
	for _, stmt := range block.Statements() {
		if stmt.Kind != syntax.KindReturnStatement {
			return Detection{}, false
		}
	}
	return Detection{Kind: KindEmptyCatch, Offset: n.Start}, true
}

// bannedCall flags direct calls to banned global callables. Member calls
// never match; obj.eval() is not eval().
func (d *Detector) bannedCall(n *syntax.Node) (Detection, bool) {
	callee := n.FirstChild()
	if callee == nil || callee.Kind != syntax.KindIdentifier {
		return Detection{}, false
	}
	if !d.banned.Has(callee.Name) {
		return Detection{}, false
	}
	return Detection{Kind: KindBannedFunction, Offset: n.Start, Method: callee.Name}, true
}

// consoleCall flags member calls whose receiver is a console-like object.
// Only a bare identifier receiver matches; a.console.log does not.
func (d *Detector) consoleCall(n *syntax.Node) (Detection, bool) {
	object, method := memberCallee(n)
	if object == "" || method == "" {
		return Detection{}, false
	}
	if !d.console.Has(object) {
		return Detection{}, false
	}
	return Detection{Kind: KindConsoleCall, Offset: n.Start, Method: method}, true
}

// commandInjection flags exec-family calls whose first argument is a
// template string with at least one substitution. Plain string arguments
// and templates without substitutions are static and not flagged.
func (d *Detector) commandInjection(n *syntax.Node) (Detection, bool) {
	name := calleeName(n)
	if name == "" || !d.exec.Has(name) {
		return Detection{}, false
	}
	args := callArguments(n)
	if len(args) == 0 {
		return Detection{}, false
	}
	first := args[0]
	if first.Kind != syntax.KindTemplateString || first.Child(syntax.KindTemplateSub) == nil {
		return Detection{}, false
	}
	return Detection{Kind: KindCommandInjection, Offset: n.Start, Method: name}, true
}

// pathTraversal flags path.join / path.resolve calls with a dynamic argument
// after the first. The first argument is commonly a trusted base directory
// and is exempt.
func (d *Detector) pathTraversal(n *syntax.Node) (Detection, bool) {
	object, method := memberCallee(n)
	if object == "" || method == "" {
		return Detection{}, false
	}
	if !d.pathObjs.Has(object) || !d.pathFuncs.Has(method) {
		return Detection{}, false
	}
	args := callArguments(n)
	for i, arg := range args {
		if i == 0 {
			continue
		}
		if isDynamicArg(arg) {
			return Detection{Kind: KindPathTraversal, Offset: n.Start, Method: method}, true
		}
	}
	return Detection{}, false
}

// assertion distinguishes `x as unknown as T` from `x as any`. The double
// assertion is the more specific shape and wins when both apply.
func (d *Detector) assertion(n *syntax.Node) (Detection, bool) {
	if len(n.Children) < 2 {
		return Detection{}, false
	}
	expr := n.Children[0]
	typ := n.Children[len(n.Children)-1]
	if expr == nil || typ == nil {
		return Detection{}, false
	}
	if expr.Kind == syntax.KindAsExpression && len(expr.Children) >= 2 {
		innerType := expr.Children[len(expr.Children)-1]
		if innerType != nil && innerType.Kind == syntax.KindUnknownType {
			return Detection{Kind: KindDoubleAssertion, Offset: n.Start}, true
		}
	}
	if typ.Kind == syntax.KindAnyType {
		return Detection{Kind: KindAsAny, Offset: n.Start}, true
	}
	return Detection{}, false
}

// calleeName returns the called function's name for direct and member calls.
func calleeName(n *syntax.Node) string {
	callee := n.FirstChild()
	if callee == nil {
		return ""
	}
	switch callee.Kind {
	case syntax.KindIdentifier:
		return callee.Name
	case syntax.KindMemberExpression:
		if prop := callee.Child(syntax.KindPropertyIdentifier); prop != nil {
			return prop.Name
		}
	}
	return ""
}

// memberCallee decomposes obj.method(...) into its receiver and method
// names. Both are empty unless the receiver is a bare identifier.
func memberCallee(n *syntax.Node) (object, method string) {
	callee := n.FirstChild()
	if callee == nil || callee.Kind != syntax.KindMemberExpression {
		return "", ""
	}
	obj := callee.FirstChild()
	if obj == nil || obj.Kind != syntax.KindIdentifier {
		return "", ""
	}
	prop := callee.Child(syntax.KindPropertyIdentifier)
	if prop == nil {
		return "", ""
	}
	return obj.Name, prop.Name
}

// callArguments returns the call's argument nodes with comments filtered.
func callArguments(n *syntax.Node) []*syntax.Node {
	args := n.Child(syntax.KindArguments)
	if args == nil {
		return nil
	}
	return args.Statements()
}

// isDynamicArg reports whether an argument can carry user-controlled data:
// an identifier, a member access, a nested call, or an interpolated
// template. String and number literals, and templates without
// substitutions, are static.
func isDynamicArg(arg *syntax.Node) bool {
	if arg == nil {
		return false
	}
	switch arg.Kind {
	case syntax.KindIdentifier, syntax.KindMemberExpression, syntax.KindCallExpression:
		return true
	case syntax.KindTemplateString:
		return arg.Child(syntax.KindTemplateSub) != nil
	}
	return false
}
