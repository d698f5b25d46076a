package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicy_IsAllowed(t *testing.T) {
	testCases := []struct {
		name     string
		policy   *Policy
		unit     string
		expected bool
	}{
		{name: "nil policy allows", policy: nil, unit: "any", expected: true},
		{name: "blocklist wins", policy: &Policy{AllowList: []string{"a"}, BlockList: []string{"a"}}, unit: "a", expected: false},
		{name: "empty allowlist admits", policy: &Policy{}, unit: "a", expected: true},
		{name: "allowlist match", policy: &Policy{AllowList: []string{"Worker"}}, unit: "worker", expected: true},
		{name: "allowlist miss", policy: &Policy{AllowList: []string{"worker"}}, unit: "other", expected: false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.policy.IsAllowed(tc.unit))
		})
	}
}

func TestPolicy_Authorize(t *testing.T) {
	ctx := context.Background()

	require.NoError(t, (*Policy)(nil).Authorize(ctx, "u", "in"))
	require.NoError(t, (&Policy{Mode: ModeAuto}).Authorize(ctx, "u", "in"))

	err := (&Policy{Mode: ModeDeny}).Authorize(ctx, "u", "in")
	assert.ErrorIs(t, err, ErrDenied)

	asked := false
	p := &Policy{Mode: ModeAsk, Ask: func(ctx context.Context, unitName, input string, p *Policy) bool {
		asked = true
		return input == "yes"
	}}
	assert.ErrorIs(t, p.Authorize(ctx, "u", "no"), ErrDenied)
	assert.True(t, asked)
	assert.NoError(t, p.Authorize(ctx, "u", "yes"))
}

func TestPolicy_ContextRoundTrip(t *testing.T) {
	p := &Policy{Mode: ModeDeny}
	ctx := WithPolicy(context.Background(), p)
	assert.Equal(t, p, FromContext(ctx))
	assert.ErrorIs(t, Authorize(ctx, "u", "in"), ErrDenied)
	assert.NoError(t, Authorize(context.Background(), "u", "in"))
}
