package lattice

import "github.com/askival/ringtrack/internal/kicktable"

// Accelerator bundles the lattice with the machine-wide settings.
// It is immutable for the duration of a tracking call; multiple
// particles may be tracked concurrently against the same instance.
type Accelerator struct {
	Energy         float64 // [eV]
	HarmonicNumber int
	CavityOn       bool
	RadiationOn    bool
	VChamberOn     bool
	Lattice        []Element
	Kicktables     *kicktable.Registry
}

// NewAccelerator returns an empty accelerator with a fresh kicktable
// registry.
func NewAccelerator(energy float64) *Accelerator {
	return &Accelerator{
		Energy:     energy,
		Kicktables: kicktable.NewRegistry(),
	}
}
