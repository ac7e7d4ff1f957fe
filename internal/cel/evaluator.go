// Package cel compiles the device predicates used to match catalog entries.
//
// Every predicate sees two variables: name, the device name as a string, and
// device, the full catalog record (name, class, accelerator, properties).
package cel

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	celext "github.com/google/cel-go/ext"
)

// Evaluator compiles device predicates and caches the resulting programs.
type Evaluator struct {
	env *cel.Env

	mu       sync.Mutex
	programs map[string]cel.Program
}

// NewEvaluator creates an evaluator with the standard extension libraries.
func NewEvaluator() (*Evaluator, error) {
	env, err := newDeviceEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &Evaluator{env: env, programs: map[string]cel.Program{}}, nil
}

func newDeviceEnv(opts ...cel.EnvOption) (*cel.Env, error) {
	allOpts := make([]cel.EnvOption, 0, 6+len(opts))
	allOpts = append(allOpts,
		cel.Variable("name", cel.StringType),
		cel.Variable("device", cel.DynType),
		celext.Strings(),
		celext.Encoders(),
		celext.Lists(),
		celext.Math(),
	)
	allOpts = append(allOpts, opts...)
	return cel.NewEnv(allOpts...)
}

// Predicate is a compiled boolean expression over a device.
type Predicate struct {
	expr string
	prg  cel.Program
}

// String returns the source expression.
func (p *Predicate) String() string {
	return p.expr
}

// Match evaluates the predicate for one device.
func (p *Predicate) Match(name string, device map[string]any) (bool, error) {
	if device == nil {
		device = map[string]any{"name": name}
	}
	out, _, err := p.prg.Eval(map[string]any{
		"name":   name,
		"device": device,
	})
	if err != nil {
		return false, fmt.Errorf("eval error: %w", err)
	}
	b, ok := out.(types.Bool)
	if !ok {
		return false, fmt.Errorf("eval error: %q produced %s, not bool", p.expr, out.Type().TypeName())
	}
	return bool(b), nil
}

// Compile parses and type-checks expr. The expression must produce a bool.
func (e *Evaluator) Compile(expr string) (*Predicate, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("compilation error: empty expression")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if prg, ok := e.programs[expr]; ok {
		return &Predicate{expr: expr, prg: prg}, nil
	}

	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compilation error: %w", issues.Err())
	}
	if t := ast.OutputType(); t != cel.BoolType && t != cel.DynType {
		return nil, fmt.Errorf("compilation error: %q has type %s, want bool", expr, t)
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	e.programs[expr] = prg
	return &Predicate{expr: expr, prg: prg}, nil
}

// NameQuery compiles the predicate for a directory wildcard query such as
// "*dev*", optionally narrowed by an extra filter expression.
func (e *Evaluator) NameQuery(glob, filter string) (*Predicate, error) {
	expr := "name.matches(" + strconv.Quote(GlobToRegexp(glob)) + ")"
	if f := strings.TrimSpace(filter); f != "" {
		expr += " && (" + f + ")"
	}
	return e.Compile(expr)
}

// GlobToRegexp converts a directory glob (* and ? wildcards) into an anchored
// RE2 pattern. Everything else matches literally.
func GlobToRegexp(glob string) string {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range glob {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return b.String()
}
