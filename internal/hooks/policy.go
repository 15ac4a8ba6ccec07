package hooks

import (
	"fmt"
	"strings"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// DefaultPolicy keeps records owned by the principal or by one of its
// delegated sub-principals.
const DefaultPolicy = `owner == principal || owner in delegates`

// Policy decides whether a record is visible to a principal. It is an expr
// expression over owner, principal and delegates. All three are lowercased
// and trimmed before evaluation.
type Policy struct {
	source  string
	program *exprvm.Program
}

func policyEnv(owner, principal string, delegates []string) map[string]any {
	return map[string]any{
		"owner":     owner,
		"principal": principal,
		"delegates": delegates,
	}
}

// NewPolicy compiles expression; an empty expression means DefaultPolicy.
func NewPolicy(expression string) (*Policy, error) {
	if strings.TrimSpace(expression) == "" {
		expression = DefaultPolicy
	}

	program, err := exprlang.Compile(expression,
		exprlang.Env(policyEnv("", "", []string{})),
		exprlang.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid access policy %q: %w", expression, err)
	}
	return &Policy{source: expression, program: program}, nil
}

// MustPolicy is NewPolicy for expressions known to be valid.
func MustPolicy(expression string) *Policy {
	p, err := NewPolicy(expression)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Policy) String() string {
	return p.source
}

func (p *Policy) Allows(owner, principal string, delegates []string) (bool, error) {
	ds := make([]string, 0, len(delegates))
	for _, d := range delegates {
		ds = append(ds, canonicalPrincipal(d))
	}

	out, err := exprlang.Run(p.program, policyEnv(canonicalPrincipal(owner), canonicalPrincipal(principal), ds))
	if err != nil {
		return false, fmt.Errorf("failed to evaluate access policy: %w", err)
	}
	allowed, _ := out.(bool)
	return allowed, nil
}

func canonicalPrincipal(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
