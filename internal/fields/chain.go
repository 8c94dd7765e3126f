package fields

import (
	"errors"
	"fmt"
	"slices"

	"metaselect/internal/options"
)

var ErrDuplicateField = errors.New("duplicate field in chain")

// Chain orders sibling selectors. Each selector is constrained by the
// selections of every selector before it.
type Chain struct {
	order []string
}

// NewChain validates the order: every name must be a known field and appear
// once.
func NewChain(order ...string) (*Chain, error) {
	seen := make(map[string]bool, len(order))
	for _, name := range order {
		if !slices.Contains(Names(), name) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateField, name)
		}
		seen[name] = true
	}
	return &Chain{order: slices.Clone(order)}, nil
}

func (c *Chain) Order() []string {
	return slices.Clone(c.order)
}

func (c *Chain) Len() int {
	return len(c.order)
}

func (c *Chain) Index(name string) int {
	return slices.Index(c.order, name)
}

// ConstraintFor unions the contributions of every selector ahead of name.
// A name outside the chain sees the whole chain.
func (c *Chain) ConstraintFor(name string, contributions map[string]options.Constraint) options.Constraint {
	var parts []options.Constraint
	for _, n := range c.order {
		if n == name {
			break
		}
		parts = append(parts, contributions[n])
	}
	return Union(parts...)
}

// Combined unions the contributions of the whole chain.
func (c *Chain) Combined(contributions map[string]options.Constraint) options.Constraint {
	return c.ConstraintFor("", contributions)
}

// MoveDown swaps positions i and i+1. It reports false when either position
// is out of range.
func (c *Chain) MoveDown(i int) bool {
	if i < 0 || i+1 >= len(c.order) {
		return false
	}
	c.order[i], c.order[i+1] = c.order[i+1], c.order[i]
	return true
}
