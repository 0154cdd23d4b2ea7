// Package decay defines decay-radiation data and the Provider capability
// that resolves it for a nuclide. Backends live in the local (SQLite table)
// and remote (IAEA LiveChart API) subpackages.
package decay

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fisdef/internal/nuclide"
)

// Line is one discrete emission of a nuclide's decay.
type Line struct {
	EnergyKeV float64 `json:"energy_kev"`
	Intensity float64 `json:"intensity"` // fraction of parent decays, 0..1
}

// RadiationType selects the kind of emission.
type RadiationType int

const (
	Gamma RadiationType = iota
	Alpha
	BetaPlus
	BetaMinus
	Electron
	XRay
)

// RadiationTypes lists every type in flag order.
var RadiationTypes = []RadiationType{Alpha, BetaPlus, BetaMinus, Gamma, Electron, XRay}

var radiationNames = map[RadiationType]string{
	Alpha:     "alpha",
	BetaPlus:  "beta-plus",
	BetaMinus: "beta-minus",
	Gamma:     "gamma",
	Electron:  "electron",
	XRay:      "xray",
}

func (r RadiationType) String() string {
	if s, ok := radiationNames[r]; ok {
		return s
	}
	return fmt.Sprintf("RadiationType(%d)", int(r))
}

// Codes returns the data-source record codes that make up r.
//
// Decay databases file x-rays separately from nuclear gamma transitions, but
// a photon source needs both. Gamma therefore returns the union {g, x}; XRay
// returns {x} alone. Callers wanting nuclear gammas only must subtract the
// XRay lines themselves.
func (r RadiationType) Codes() []string {
	switch r {
	case Alpha:
		return []string{"a"}
	case BetaPlus:
		return []string{"bp"}
	case BetaMinus:
		return []string{"bm"}
	case Gamma:
		return []string{"g", "x"}
	case Electron:
		return []string{"e"}
	case XRay:
		return []string{"x"}
	}
	return nil
}

// Particle returns the MCNP particle designator for the emission.
func (r RadiationType) Particle() string {
	switch r {
	case Alpha:
		return "a"
	case BetaPlus:
		return "f"
	case BetaMinus, Electron:
		return "e"
	default:
		return "p"
	}
}

// ParseRadiationType accepts the long names and the short data codes.
func ParseRadiationType(s string) (RadiationType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "g", "gamma":
		return Gamma, nil
	case "a", "alpha":
		return Alpha, nil
	case "bp", "beta-plus", "betaplus", "b+":
		return BetaPlus, nil
	case "bm", "beta-minus", "betaminus", "b-":
		return BetaMinus, nil
	case "e", "electron":
		return Electron, nil
	case "x", "xray", "x-ray":
		return XRay, nil
	}
	return Gamma, fmt.Errorf("unknown radiation type %q (want alpha, beta-plus, beta-minus, gamma, electron or xray)", s)
}

// MarshalText implements encoding.TextMarshaler.
func (r RadiationType) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *RadiationType) UnmarshalText(b []byte) error {
	v, err := ParseRadiationType(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// ErrNotFound means the data source holds no lines for the nuclide and
// radiation type. It is not a failure: the nuclide contributes nothing.
var ErrNotFound = errors.New("no decay data")

// DataUnavailableError means the data source could not answer at all
// (network failure, timeout, closed database).
type DataUnavailableError struct {
	Nuclide   nuclide.ID
	Radiation RadiationType
	Err       error
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("decay data unavailable for %s (%s): %v", e.Nuclide, e.Radiation, e.Err)
}

func (e *DataUnavailableError) Unwrap() error {
	return e.Err
}

// IsUnavailable reports whether err carries a DataUnavailableError.
func IsUnavailable(err error) bool {
	var du *DataUnavailableError
	return errors.As(err, &du)
}

// Provider resolves decay lines for a nuclide. Implementations must be safe
// for concurrent use.
type Provider interface {
	Lookup(ctx context.Context, id nuclide.ID, rad RadiationType) ([]Line, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, id nuclide.ID, rad RadiationType) ([]Line, error)

func (f ProviderFunc) Lookup(ctx context.Context, id nuclide.ID, rad RadiationType) ([]Line, error) {
	return f(ctx, id, rad)
}
