// Package nuclide identifies isotopes and isomeric states.
package nuclide

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ID identifies a nuclide by proton count, mass number and isomeric state.
// State 0 is the ground state; 1, 2, 3... are the first, second, third
// metastable states ("m", "n", "o" in FISPACT notation). ID is comparable and
// safe to use as a map key.
type ID struct {
	Z     int
	A     int
	State int
}

// Metastable reports whether the nuclide is in an excited isomeric state.
func (id ID) Metastable() bool {
	return id.State > 0
}

// ZAI packs the identifier as Z*10000 + A*10 + State.
func (id ID) ZAI() int {
	return id.Z*10000 + id.A*10 + id.State
}

// Symbol returns the element symbol, or "" for an unknown Z.
func (id ID) Symbol() string {
	if id.Z <= 0 || id.Z >= len(symbols) {
		return ""
	}
	return symbols[id.Z]
}

// Compare orders identifiers by Z, then A, then State.
func (id ID) Compare(other ID) int {
	if c := cmp.Compare(id.Z, other.Z); c != 0 {
		return c
	}
	if c := cmp.Compare(id.A, other.A); c != 0 {
		return c
	}
	return cmp.Compare(id.State, other.State)
}

// String renders the FISPACT-style name, e.g. "Co60" or "Ag110m".
func (id ID) String() string {
	sym := id.Symbol()
	if sym == "" {
		sym = fmt.Sprintf("Z%d-", id.Z)
	}
	return sym + strconv.Itoa(id.A) + stateSuffix(id.State)
}

func stateSuffix(state int) string {
	if state <= 0 {
		return ""
	}
	if state <= len(stateLetters) {
		return string(stateLetters[state-1])
	}
	return "m" + strconv.Itoa(state)
}

// ParseState converts a FISPACT state letter ("", "m", "n", "o"), a
// numbered form ("m1", "m2") or a bare index ("0", "1") to a state index.
func ParseState(s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return n, nil
	}
	switch {
	case s == "" || s == "g":
		return 0, nil
	case len(s) == 1:
		if i := strings.IndexByte(stateLetters, s[0]); i >= 0 {
			return i + 1, nil
		}
	case s[0] == 'm':
		if n, err := strconv.Atoi(s[1:]); err == nil && n >= 0 {
			return n, nil
		}
	}
	return 0, fmt.Errorf("invalid isomeric state %q", s)
}

// Parse reads names such as "Co60", "co-60", "Tc99m", "Ag110m1" or "60Co".
func Parse(name string) (ID, error) {
	s := strings.TrimSpace(name)
	if s == "" {
		return ID{}, fmt.Errorf("empty nuclide name")
	}
	s = strings.ReplaceAll(s, "-", "")

	var sym, mass, state string
	if unicode.IsDigit(rune(s[0])) {
		// mass-first form: 60Co, 99mTc
		i := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) })
		if i < 0 {
			return ID{}, fmt.Errorf("invalid nuclide name %q", name)
		}
		mass = s[:i]
		rest := s[i:]
		if len(rest) > 1 && (rest[0] == 'm' || rest[0] == 'n') && unicode.IsUpper(rune(rest[1])) {
			state, rest = rest[:1], rest[1:]
		}
		sym = rest
	} else {
		i := strings.IndexFunc(s, unicode.IsDigit)
		if i <= 0 {
			return ID{}, fmt.Errorf("invalid nuclide name %q", name)
		}
		sym = s[:i]
		rest := s[i:]
		j := strings.IndexFunc(rest, func(r rune) bool { return !unicode.IsDigit(r) })
		if j < 0 {
			mass = rest
		} else {
			mass, state = rest[:j], rest[j:]
		}
	}

	z, ok := atomicNumbers[strings.ToLower(sym)]
	if !ok {
		return ID{}, fmt.Errorf("unknown element %q in nuclide name %q", sym, name)
	}
	a, err := strconv.Atoi(mass)
	if err != nil || a < z {
		return ID{}, fmt.Errorf("invalid mass number in nuclide name %q", name)
	}
	st, err := ParseState(state)
	if err != nil {
		return ID{}, fmt.Errorf("nuclide %q: %w", name, err)
	}
	return ID{Z: z, A: a, State: st}, nil
}

const stateLetters = "mnopq"
