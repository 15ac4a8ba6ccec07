package hooks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicy(t *testing.T) {
	p, err := NewPolicy("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPolicy, p.String())

	tests := []struct {
		owner     string
		principal string
		delegates []string
		want      bool
	}{
		{"a@x.com", "a@x.com", nil, true},
		{" A@X.COM", "a@x.com", nil, true},
		{"s@x.com", "a@x.com", []string{"S@x.com"}, true},
		{"b@x.com", "a@x.com", []string{"s@x.com"}, false},
		{"", "a@x.com", nil, false},
	}

	for _, tt := range tests {
		got, err := p.Allows(tt.owner, tt.principal, tt.delegates)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "owner=%q principal=%q", tt.owner, tt.principal)
	}
}

func TestNewPolicy_Invalid(t *testing.T) {
	_, err := NewPolicy(`owner ==`)
	require.Error(t, err)

	_, err = NewPolicy(`owner`)
	require.Error(t, err, "non-boolean expressions are rejected")

	_, err = NewPolicy(`unknown_var == "x"`)
	require.Error(t, err)

	assert.Panics(t, func() { MustPolicy(`(`) })
}

func TestPolicy_DomainRule(t *testing.T) {
	p, err := NewPolicy(`owner == principal || (owner endsWith "@x.com" && principal == "admin@x.com")`)
	require.NoError(t, err)

	ok, err := p.Allows("b@x.com", "admin@x.com", nil)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.Allows("b@y.com", "admin@x.com", nil)
	require.NoError(t, err)
	assert.False(t, ok)
}
