package mcpserver

// Tool descriptions with interpretation guidance for LLMs.
// Each description explains what the tool does, when to use it,
// how to interpret results, and key thresholds.

func describeIssues() string {
	return `Scans TypeScript and JavaScript sources for lint, security, and type-safety issues.

USE WHEN:
- Auditing a codebase for risky patterns before a release
- Finding command-injection and path-traversal call sites
- Measuring how much a codebase leans on TypeScript escape hatches
- Enforcing banned-function policy (eval, alert, console)

INTERPRETING RESULTS:
- Categories: lint, type-safety, security, in rising order of urgency
- command-injection: exec or spawn call with a non-literal argument
- path-traversal: path.join or path.resolve mixing in non-literal segments
- banned-function, console-call: policy violations, usually mechanical fixes
- debugger, empty-catch: leftover debug scaffolding and swallowed errors
- any-type, as-any, double-assertion, non-null-assertion: type system bypasses
- Offsets are byte positions of the flagged node in the file

METRICS RETURNED:
- Per-file: detection list with kind, byte offset, matched callee name
- Summary: total issues, files affected, counts by kind and by category

The banned-name rule tables (globals, console objects, exec and path
callees) can be replaced through a JSON rules file.`
}

func describeGraph() string {
	return `Builds the import dependency graph of a TypeScript or JavaScript tree.

USE WHEN:
- Understanding how the modules of a codebase relate
- Finding circular imports before they calcify
- Estimating the blast radius of changing one module
- Identifying load-bearing modules that many others import

INTERPRETING RESULTS:
- Edges point from importer to imported (A depends on B)
- fan_in: modules importing this one; high fan_in means wide change impact
- fan_out: modules this one imports; high fan_out means fragile
- instability: fan_out / (fan_in + fan_out); stable modules score near 0
- Cycles are strongly connected components; each must change as a unit
- rank (with include_ranks): PageRank importance, higher means more central
- dependents_of and dependencies_of answer transitive reachability queries

METRICS RETURNED:
- Modules: path, direct dependencies, fan_in, fan_out, instability, rank
- Cycles: member lists of every circular import group
- Unresolved: relative imports that match no analyzed file
- Summary: module, edge, external, and unresolved counts`
}

func describePlan() string {
	return `Orders a codebase into refactoring phases that respect its dependency structure.

USE WHEN:
- Planning an incremental migration or large refactor
- Deciding which modules to convert or cover with tests first
- Splitting refactoring work across parallel workstreams
- Judging how risky a structural change will be

INTERPRETING RESULTS:
- Phases are ordered: everything a phase depends on sits in earlier phases
- Modules within a phase are independent and can be worked in parallel,
  except cycle phases, which must be refactored as one unit
- risk_level: low < medium < high < critical
- Critical phases contain cycles or heavily coupled hub modules
- category leaf: depends on nothing analyzed, safest entry point
- category core: coupling above the percentile cutoff, widest blast radius
- category cycle: circular group, schedule dedicated time
- prerequisites lists the earlier phase orders a phase waits on

METRICS RETURNED:
- Phases: order, modules, parallelizable flag, risk level and score, category
- Cycles, leaf modules, and core modules called out separately
- total_modules and an overall estimated_risk`
}

func describeRepoMap() string {
	return `Generates a PageRank-ranked map of a repository's files with their key signatures.

USE WHEN:
- Getting oriented in an unfamiliar codebase
- Selecting which files matter for a focused reading pass
- Building compact repository context for an LLM session
- Finding the definitions other code references most

INTERPRETING RESULTS:
- rank: importance from the symbol reference graph; rank flows from files
  that use a name to the files defining it
- Top-ranked files hold the abstractions the rest of the code leans on
- def_count and ref_count: definitions in and references out of each file
- Signatures list declarations with line numbers, exported ones first
- omitted counts the signatures cut by the per-file cap

METRICS RETURNED:
- Files: path, rank, def and ref counts, selected signatures
- Totals: files mapped, definitions, references

Useful for LLM context: a rendered map fits a token budget while keeping
the most load-bearing declarations visible.`
}
