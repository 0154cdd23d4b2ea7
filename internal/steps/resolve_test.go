package steps

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		expr string
		n    int
		want []int
	}{
		{"blank selects all", "", 5, []int{0, 1, 2, 3, 4}},
		{"whitespace selects all", "   ", 3, []int{0, 1, 2}},
		{"all", "all", 5, []int{0, 1, 2, 3, 4}},
		{"all is case-insensitive", "ALL", 2, []int{0, 1}},
		{"single", "1", 5, []int{1}},
		{"single out of range", "5", 5, []int{}},
		{"range", "0-2", 5, []int{0, 1, 2}},
		{"range clipped", "3-9", 5, []int{3, 4}},
		{"reversed range", "2-0", 5, []int{}},
		{"range with spaces", "1 - 2", 5, []int{1, 2}},
		{"list", "1 3 4", 5, []int{1, 3, 4}},
		{"list drops out of range", "1 3 9", 5, []int{1, 3}},
		{"list dedups and sorts", "4 1 4 0", 5, []int{0, 1, 4}},
		{"no steps", "all", 0, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.expr, tt.n)
			if err != nil {
				t.Fatalf("Resolve(%q, %d) error: %v", tt.expr, tt.n, err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Resolve(%q, %d) mismatch (-want +got):\n%s", tt.expr, tt.n, diff)
			}
		})
	}
}

func TestResolve_ParseErrors(t *testing.T) {
	tests := []struct {
		expr  string
		token string
	}{
		{"one", "one"},
		{"1 two 3", "two"},
		{"1-x", "x"},
		{"-1", ""},
		{"1-2-3", "2-3"},
		{"1.5", "1.5"},
		{"+2", "+2"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			_, err := Resolve(tt.expr, 10)
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("expected *ParseError, got %v", err)
			}
			if perr.Token != tt.token {
				t.Errorf("Token = %q, want %q", perr.Token, tt.token)
			}
			if !strings.Contains(perr.Error(), tt.expr) {
				t.Errorf("error %q should name the expression", perr.Error())
			}
		})
	}
}

func TestResolve_AllEqualsBlank(t *testing.T) {
	a, _ := Resolve("all", 5)
	b, _ := Resolve("", 5)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("all and blank differ:\n%s", diff)
	}
}

func TestResolve_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	valid := func(got []int, n int) bool {
		if !slices.IsSorted(got) {
			return false
		}
		for i, v := range got {
			if v < 0 || v >= n {
				return false
			}
			if i > 0 && got[i-1] == v {
				return false
			}
		}
		return true
	}

	properties.Property("list selections are sorted unique subsets", prop.ForAll(
		func(n int, values []int) bool {
			parts := make([]string, len(values))
			for i, v := range values {
				parts[i] = fmt.Sprint(v)
			}
			got, err := Resolve(strings.Join(parts, " "), n)
			if err != nil {
				return false
			}
			return valid(got, n)
		},
		gen.IntRange(0, 40),
		gen.SliceOfN(6, gen.IntRange(0, 60)),
	))

	properties.Property("range selections are sorted unique subsets", prop.ForAll(
		func(n, a, b int) bool {
			got, err := Resolve(fmt.Sprintf("%d-%d", a, b), n)
			if err != nil {
				return false
			}
			if a > b && len(got) != 0 {
				return false
			}
			return valid(got, n)
		},
		gen.IntRange(0, 40),
		gen.IntRange(0, 60),
		gen.IntRange(0, 60),
	))

	properties.TestingRun(t)
}
