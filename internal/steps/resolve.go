// Package steps turns a user's step-selection expression into explicit,
// bounds-checked step indices.
//
// Accepted forms:
//
//	""  or "all"   every step
//	"3"            a single step
//	"1-4"          an inclusive range
//	"1 5 12"       a whitespace-separated list
//
// Indices outside 0..n-1 are dropped silently; only malformed input is an
// error.
package steps

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"fisdef/internal/logging"
)

// ParseError reports a malformed step-selection expression.
type ParseError struct {
	Expr  string
	Token string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid step selection %q: bad token %q (want integers '0 1 2', a range '0-2', or 'all')", e.Expr, e.Token)
}

// Resolve returns the ascending, duplicate-free indices selected by expr
// among n steps. A valid expression that selects nothing yields an empty
// slice and a nil error.
func Resolve(expr string, n int) ([]int, error) {
	log := logging.Get(logging.CategorySteps)
	s := strings.TrimSpace(expr)

	if s == "" || strings.EqualFold(s, "all") {
		return span(0, n-1, n), nil
	}

	var out []int
	switch {
	case strings.Contains(s, "-"):
		lo, hi, err := parseRange(expr, s)
		if err != nil {
			return nil, err
		}
		out = span(lo, hi, n)
	default:
		fields := strings.Fields(s)
		out = make([]int, 0, len(fields))
		for _, f := range fields {
			v, err := parseIndex(expr, f)
			if err != nil {
				return nil, err
			}
			if v < n {
				out = append(out, v)
			} else {
				log.Debugf("step %d out of range 0-%d, dropped", v, n-1)
			}
		}
		slices.Sort(out)
		out = slices.Compact(out)
	}

	log.Debugf("resolved %q to %v", expr, out)
	return out, nil
}

func parseRange(expr, s string) (int, int, error) {
	start, end, _ := strings.Cut(s, "-")
	lo, err := parseIndex(expr, strings.TrimSpace(start))
	if err != nil {
		return 0, 0, err
	}
	hi, err := parseIndex(expr, strings.TrimSpace(end))
	if err != nil {
		return 0, 0, err
	}
	return lo, hi, nil
}

func parseIndex(expr, tok string) (int, error) {
	v, err := strconv.Atoi(tok)
	if err != nil || v < 0 || strings.HasPrefix(tok, "+") {
		return 0, &ParseError{Expr: expr, Token: tok}
	}
	return v, nil
}

// span returns lo..hi clipped to 0..n-1.
func span(lo, hi, n int) []int {
	lo = max(lo, 0)
	hi = min(hi, n-1)
	if lo > hi {
		return []int{}
	}
	out := make([]int, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		out = append(out, i)
	}
	return out
}
