package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/corvida/augur/pkg/analyzer/detect"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ErrInvalidRules reports a custom rules file that is not valid JSON or does
// not match the rules schema.
var ErrInvalidRules = errors.New("invalid custom rules")

//go:embed rules_schema.json
var rulesSchemaJSON []byte

// Rules is a custom detector rule set loaded from a JSON file. Each list
// extends the corresponding built-in table.
type Rules struct {
	BannedGlobals  []string `json:"banned_globals"`
	ConsoleObjects []string `json:"console_objects"`
	ExecFunctions  []string `json:"exec_functions"`
	PathObjects    []string `json:"path_objects"`
}

var compileRulesSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(rulesSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("decoding rules schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("rules_schema.json", doc); err != nil {
		return nil, fmt.Errorf("adding rules schema: %w", err)
	}
	return compiler.Compile("rules_schema.json")
})

// LoadRules reads a custom rules file and validates it against the embedded
// schema. Validation failures wrap ErrInvalidRules.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseRules(data)
}

// ParseRules validates raw JSON against the rules schema and decodes it.
func ParseRules(data []byte) (*Rules, error) {
	schema, err := compileRulesSchema()
	if err != nil {
		return nil, err
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRules, err)
	}
	if err := schema.Validate(inst); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRules, err)
	}

	var rules Rules
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRules, err)
	}
	return &rules, nil
}

// DetectorOptions maps the rule lists onto detector options. Empty lists
// produce no options.
func (r *Rules) DetectorOptions() []detect.DetectorOption {
	var opts []detect.DetectorOption
	if len(r.BannedGlobals) > 0 {
		opts = append(opts, detect.WithBannedGlobals(r.BannedGlobals...))
	}
	if len(r.ConsoleObjects) > 0 {
		opts = append(opts, detect.WithConsoleObjects(r.ConsoleObjects...))
	}
	if len(r.ExecFunctions) > 0 {
		opts = append(opts, detect.WithExecFunctions(r.ExecFunctions...))
	}
	if len(r.PathObjects) > 0 {
		opts = append(opts, detect.WithPathObjects(r.PathObjects...))
	}
	return opts
}
