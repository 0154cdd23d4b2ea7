package decay

import (
	"context"
	"errors"
	"fmt"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"

	"fisdef/internal/logging"
	"fisdef/internal/nuclide"
)

type memoKey struct {
	id  nuclide.ID
	rad RadiationType
}

type memoEntry struct {
	lines    []Line
	notFound bool
}

// Memo answers repeated lookups from memory. Only definite answers are
// kept, lines and ErrNotFound. A DataUnavailableError is passed through and
// the next lookup asks the backend again.
type Memo struct {
	provider Provider
	cache    *lru.Cache[memoKey, memoEntry]
}

// NewMemo wraps p, remembering up to size answers (4096 when size <= 0).
func NewMemo(p Provider, size int) (*Memo, error) {
	if size <= 0 {
		size = 4096
	}
	cache, err := lru.New[memoKey, memoEntry](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create lookup memo: %w", err)
	}
	return &Memo{provider: p, cache: cache}, nil
}

// Lookup implements Provider.
func (m *Memo) Lookup(ctx context.Context, id nuclide.ID, rad RadiationType) ([]Line, error) {
	key := memoKey{id: id, rad: rad}
	if e, ok := m.cache.Get(key); ok {
		if e.notFound {
			return nil, fmt.Errorf("%s %s: %w", id, rad, ErrNotFound)
		}
		return slices.Clone(e.lines), nil
	}

	lines, err := m.provider.Lookup(ctx, id, rad)
	switch {
	case err == nil:
		m.cache.Add(key, memoEntry{lines: slices.Clone(lines)})
	case errors.Is(err, ErrNotFound):
		m.cache.Add(key, memoEntry{notFound: true})
	default:
		logging.Get(logging.CategoryDecay).Debugf("not remembering %s %s: %v", id, rad, err)
	}
	return lines, err
}

// Len returns the number of remembered answers.
func (m *Memo) Len() int {
	return m.cache.Len()
}
