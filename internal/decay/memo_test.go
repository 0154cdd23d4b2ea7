package decay

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fisdef/internal/nuclide"
)

func TestMemo_RemembersLinesAndNotFound(t *testing.T) {
	co60 := nuclide.ID{Z: 27, A: 60}
	fe56 := nuclide.ID{Z: 26, A: 56}
	var calls atomic.Int32
	p := ProviderFunc(func(_ context.Context, id nuclide.ID, _ RadiationType) ([]Line, error) {
		calls.Add(1)
		if id == co60 {
			return []Line{{EnergyKeV: 1173.2, Intensity: 0.9985}}, nil
		}
		return nil, ErrNotFound
	})
	m, err := NewMemo(p, 0)
	require.NoError(t, err)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		lines, err := m.Lookup(ctx, co60, Gamma)
		require.NoError(t, err)
		assert.Equal(t, []Line{{EnergyKeV: 1173.2, Intensity: 0.9985}}, lines)

		_, err = m.Lookup(ctx, fe56, Gamma)
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 2, m.Len())

	_, err = m.Lookup(ctx, co60, XRay)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load(), "radiation type is part of the key")
}

func TestMemo_CallerCannotModifyRememberedLines(t *testing.T) {
	p := ProviderFunc(func(context.Context, nuclide.ID, RadiationType) ([]Line, error) {
		return []Line{{EnergyKeV: 661.7, Intensity: 0.851}}, nil
	})
	m, err := NewMemo(p, 8)
	require.NoError(t, err)
	id := nuclide.ID{Z: 55, A: 137}

	first, err := m.Lookup(context.Background(), id, Gamma)
	require.NoError(t, err)
	first[0].Intensity = 0

	second, err := m.Lookup(context.Background(), id, Gamma)
	require.NoError(t, err)
	assert.Equal(t, 0.851, second[0].Intensity)
}

func TestMemo_UnavailableIsNotRemembered(t *testing.T) {
	id := nuclide.ID{Z: 27, A: 60}
	var calls atomic.Int32
	p := ProviderFunc(func(_ context.Context, id nuclide.ID, rad RadiationType) ([]Line, error) {
		if calls.Add(1) == 1 {
			return nil, &DataUnavailableError{Nuclide: id, Radiation: rad, Err: errors.New("timeout")}
		}
		return []Line{{EnergyKeV: 1332.5, Intensity: 0.9998}}, nil
	})
	m, err := NewMemo(p, 0)
	require.NoError(t, err)

	_, err = m.Lookup(context.Background(), id, Gamma)
	assert.True(t, IsUnavailable(err))
	assert.Zero(t, m.Len())

	lines, err := m.Lookup(context.Background(), id, Gamma)
	require.NoError(t, err)
	assert.Len(t, lines, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestMemo_ConcurrentLookups(t *testing.T) {
	p := ProviderFunc(func(context.Context, nuclide.ID, RadiationType) ([]Line, error) {
		return []Line{{EnergyKeV: 100, Intensity: 1}}, nil
	})
	m, err := NewMemo(p, 0)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(a int) {
			defer wg.Done()
			_, err := m.Lookup(context.Background(), nuclide.ID{Z: 27, A: 55 + a%4}, Gamma)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 4, m.Len())
}
