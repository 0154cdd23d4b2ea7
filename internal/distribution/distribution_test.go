package distribution

import (
	"errors"
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fisdef/internal/decay"
	"fisdef/internal/nuclide"
	"fisdef/internal/spectrum"
)

var (
	co60  = nuclide.ID{Z: 27, A: 60}
	cs137 = nuclide.ID{Z: 55, A: 137}
)

func entry(id nuclide.ID, name string, e, i, act float64) spectrum.Entry {
	return spectrum.Entry{Nuclide: id, Name: name, Line: decay.Line{EnergyKeV: e, Intensity: i}, Activity: act}
}

func TestBuild_CobaltCaesium(t *testing.T) {
	entries := []spectrum.Entry{
		entry(cs137, "Cs137", 661.7, 0.851, 2e6),
		entry(co60, "Co60", 1173.2, 0.9985, 1e6),
		entry(co60, "Co60", 1332.5, 0.9998, 1e6),
	}

	src, err := Build(entries, DefaultStartID)
	require.NoError(t, err)
	require.NotNil(t, src)
	require.Len(t, src.Groups, 2)

	co := src.Groups[0]
	assert.Equal(t, 100, co.ID)
	assert.Equal(t, co60, co.Nuclide)
	assert.Equal(t, "Co60", co.Name)
	assert.Equal(t, []float64{1173.2, 1332.5}, co.Energies)
	assert.InDelta(t, 0.9985/1.9983, co.Probabilities[0], 1e-12)
	assert.InDelta(t, 0.9998/1.9983, co.Probabilities[1], 1e-12)
	assert.InDelta(t, 1.9983, co.Norm, 1e-12)

	cs := src.Groups[1]
	assert.Equal(t, 101, cs.ID)
	assert.Equal(t, []float64{1.0}, cs.Probabilities)
	assert.InDelta(t, 0.851, cs.Norm, 1e-12)

	assert.Equal(t, 102, src.Selector.ID)
	assert.Equal(t, []int{100, 101}, src.Selector.GroupIDs)
	assert.InDelta(t, 1.0/3, src.Selector.Weights[0], 1e-12)
	assert.InDelta(t, 2.0/3, src.Selector.Weights[1], 1e-12)
	assert.Equal(t, 3e6, src.TotalActivity())
}

func TestBuild_Empty(t *testing.T) {
	src, err := Build(nil, DefaultStartID)
	assert.NoError(t, err)
	assert.Nil(t, src)
}

func TestBuild_ZeroActivity(t *testing.T) {
	src, err := Build([]spectrum.Entry{entry(co60, "Co60", 1173.2, 1, 0)}, 1)
	assert.NoError(t, err)
	assert.Nil(t, src)
}

func TestBuild_ZeroIntensityIsUniform(t *testing.T) {
	src, err := Build([]spectrum.Entry{
		entry(co60, "Co60", 10, 0, 1),
		entry(co60, "Co60", 20, 0, 1),
		entry(co60, "Co60", 30, 0, 1),
		entry(co60, "Co60", 40, 0, 1),
	}, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.25, 0.25, 0.25, 0.25}, src.Groups[0].Probabilities)
	assert.Zero(t, src.Groups[0].Norm)
}

func TestBuild_NormalizationErrors(t *testing.T) {
	tests := map[string][]spectrum.Entry{
		"nan intensity":      {entry(co60, "Co60", 10, math.NaN(), 1)},
		"infinite intensity": {entry(co60, "Co60", 10, math.Inf(1), 1), entry(co60, "Co60", 20, 1, 1)},
		"negative intensity": {entry(co60, "Co60", 10, -0.5, 1), entry(co60, "Co60", 20, 1, 1)},
		"nan activity":       {entry(co60, "Co60", 10, 1, math.NaN())},
		"negative activity":  {entry(co60, "Co60", 10, 1, 2), entry(cs137, "Cs137", 20, 1, -1)},
	}
	for name, entries := range tests {
		t.Run(name, func(t *testing.T) {
			src, err := Build(entries, 1)
			assert.Nil(t, src)
			var nerr *NormalizationError
			require.True(t, errors.As(err, &nerr), "got %v", err)
			assert.NotEmpty(t, nerr.Error())
		})
	}
}

func TestBuild_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	ids := []nuclide.ID{{Z: 1, A: 3}, {Z: 27, A: 60}, {Z: 43, A: 99, State: 1}, {Z: 55, A: 137}, {Z: 95, A: 241}}
	build := func(which []int, intensities, activities []float64) []spectrum.Entry {
		out := make([]spectrum.Entry, len(which))
		for i, w := range which {
			// activity is a property of the nuclide, not the line
			out[i] = entry(ids[w], ids[w].String(), float64(i+1), intensities[i], activities[w])
		}
		return out
	}

	properties.Property("sums are one and ids contiguous", prop.ForAll(
		func(start int, which []int, intensities, activities []float64) bool {
			if len(intensities) < len(which) || len(activities) < len(ids) {
				return true
			}
			src, err := Build(build(which, intensities, activities), start)
			if err != nil || src == nil {
				return false
			}
			for i, g := range src.Groups {
				if g.ID != start+i {
					return false
				}
				if i > 0 && src.Groups[i-1].Nuclide.Compare(g.Nuclide) >= 0 {
					return false
				}
				var sum float64
				for _, p := range g.Probabilities {
					sum += p
				}
				if math.Abs(sum-1) > Tolerance {
					return false
				}
			}
			var wsum float64
			for _, w := range src.Selector.Weights {
				wsum += w
			}
			return src.Selector.ID == start+len(src.Groups) && math.Abs(wsum-1) <= Tolerance
		},
		gen.IntRange(1, 9000),
		gen.SliceOfN(8, gen.IntRange(0, 4)),
		gen.SliceOfN(8, gen.Float64Range(0, 1)),
		gen.SliceOfN(5, gen.Float64Range(1, 1e12)),
	))

	properties.TestingRun(t)
}
