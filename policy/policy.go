package policy

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Execution modes recognised by the engine.
const (
	ModeAsk  = "ask"  // ask before dispatching every unit
	ModeAuto = "auto" // dispatch automatically (default)
	ModeDeny = "deny" // block dispatch
)

// ErrDenied is returned when a policy blocks a unit dispatch.
var ErrDenied = errors.New("unit execution denied by policy")

// AskFunc is invoked when Mode==ask, once per unit dispatch. Returning true
// approves the dispatch. Implementations may mutate the policy, for example
// switching to ModeAuto after the first approval.
type AskFunc func(ctx context.Context, unitName, input string, p *Policy) bool

// Policy represents the approval settings for the current run.
//
//   - Mode controls the high-level behaviour (ask / auto / deny).
//   - AllowList and BlockList filter by unit name regardless of Mode.
//   - Ask is only consulted when Mode==ask.
//
// A nil *Policy means "dispatch everything" and is the zero-cost default.
type Policy struct {
	Mode      string
	AllowList []string
	BlockList []string
	Ask       AskFunc
}

// Config is the declarative, serialisable subset of a Policy (AskFunc
// cannot be persisted).
type Config struct {
	Mode      string   `json:"mode,omitempty" yaml:"mode,omitempty"`
	AllowList []string `json:"allow,omitempty" yaml:"allow,omitempty"`
	BlockList []string `json:"block,omitempty" yaml:"block,omitempty"`
}

// ToConfig converts a runtime Policy into a persistable Config.
func ToConfig(p *Policy) *Config {
	if p == nil {
		return nil
	}
	return &Config{
		Mode:      p.Mode,
		AllowList: append([]string(nil), p.AllowList...),
		BlockList: append([]string(nil), p.BlockList...),
	}
}

// FromConfig converts a stored Config back to a runtime Policy.
func FromConfig(c *Config) *Policy {
	if c == nil {
		return nil
	}
	return &Policy{
		Mode:      c.Mode,
		AllowList: append([]string(nil), c.AllowList...),
		BlockList: append([]string(nil), c.BlockList...),
	}
}

// IsAllowed evaluates AllowList / BlockList by case-insensitive unit name.
// BlockList has priority; an empty AllowList admits everything.
func (p *Policy) IsAllowed(unitName string) bool {
	if p == nil {
		return true
	}
	normalized := strings.ToLower(unitName)
	for _, b := range p.BlockList {
		if normalized == strings.ToLower(b) {
			return false
		}
	}
	if len(p.AllowList) == 0 {
		return true
	}
	for _, a := range p.AllowList {
		if normalized == strings.ToLower(a) {
			return true
		}
	}
	return false
}

// Authorize decides whether a unit dispatch may proceed. It returns an
// error wrapping ErrDenied when the policy blocks the unit.
func (p *Policy) Authorize(ctx context.Context, unitName, input string) error {
	if p == nil {
		return nil
	}
	if !p.IsAllowed(unitName) {
		return fmt.Errorf("unit %q: %w", unitName, ErrDenied)
	}
	switch p.Mode {
	case ModeDeny:
		return fmt.Errorf("unit %q: %w", unitName, ErrDenied)
	case ModeAsk:
		if p.Ask != nil && !p.Ask(ctx, unitName, input, p) {
			return fmt.Errorf("unit %q: %w", unitName, ErrDenied)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Context helpers
// ---------------------------------------------------------------------------

type ctxKeyT struct{}

var ctxKey ctxKeyT

// WithPolicy embeds policy in ctx.
func WithPolicy(ctx context.Context, p *Policy) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey, p)
}

// FromContext extracts the policy or nil.
func FromContext(ctx context.Context) *Policy {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxKey).(*Policy); ok {
		return v
	}
	return nil
}

// Authorize is a convenience wrapper that looks up the policy in ctx (if
// any) and evaluates it for the supplied unit.
func Authorize(ctx context.Context, unitName, input string) error {
	return FromContext(ctx).Authorize(ctx, unitName, input)
}
