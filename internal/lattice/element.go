// Package lattice defines accelerator elements and the accelerator
// container the tracking engine consumes. Elements are plain values,
// read-only during tracking.
package lattice

import (
	"math"

	"github.com/askival/ringtrack/internal/kicktable"
	"github.com/askival/ringtrack/internal/linalg"
)

// Element is one lattice component. The pass method tag discriminates
// which parameters are physically meaningful; the rest keep their
// defaults.
type Element struct {
	FamName    string
	PassMethod PassMethod
	Length     float64 // [m]
	NrSteps    int

	HMin, HMax float64 // [m]
	VMin, VMax float64 // [m]

	HKick, VKick float64 // [rad]

	Angle    float64 // [rad]
	AngleIn  float64 // [rad]
	AngleOut float64 // [rad]
	Gap      float64 // [m]
	FintIn   float64
	FintOut  float64

	ThinKL float64 // [1/m]
	ThinSL float64 // [1/m^2]

	Frequency float64 // [Hz]
	Voltage   float64 // [V]

	// PolynomA (skew) and PolynomB (normal) always share length;
	// SetPolynoms keeps the invariant.
	PolynomA []float64
	PolynomB []float64

	Kicktable kicktable.Handle

	TIn, TOut [6]float64
	RIn, ROut linalg.Matrix
}

const defaultPolynomLen = 3

// NewElement builds a drift-type element with the library defaults:
// one integration step, unbounded apertures, identity entry and exit
// transforms, zeroed polynomials of shared length.
func NewElement(famName string, length float64) Element {
	return Element{
		FamName:    famName,
		PassMethod: DriftPass,
		Length:     length,
		NrSteps:    1,
		HMin:       -math.MaxFloat64,
		HMax:       math.MaxFloat64,
		VMin:       -math.MaxFloat64,
		VMax:       math.MaxFloat64,
		PolynomA:   make([]float64, defaultPolynomLen),
		PolynomB:   make([]float64, defaultPolynomLen),
		Kicktable:  kicktable.None,
		RIn:        linalg.Identity(),
		ROut:       linalg.Identity(),
	}
}

// SetPolynoms installs the multipole coefficients, zero-padding the
// shorter sequence so both always share length.
func (e *Element) SetPolynoms(a, b []float64) {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	e.PolynomA = make([]float64, n)
	e.PolynomB = make([]float64, n)
	copy(e.PolynomA, a)
	copy(e.PolynomB, b)
}

// Marker returns a zero-length element with the identity pass method.
func Marker(famName string) Element {
	e := NewElement(famName, 0)
	e.PassMethod = IdentityPass
	return e
}

// BPM is a marker by another family name.
func BPM(famName string) Element {
	return Marker(famName)
}

// Drift returns a field-free straight section.
func Drift(famName string, length float64) Element {
	return NewElement(famName, length)
}

// Corrector returns a steering element with the given kicks.
func Corrector(famName string, length, hkick, vkick float64) Element {
	e := NewElement(famName, length)
	e.PassMethod = CorrectorPass
	e.HKick = hkick
	e.VKick = vkick
	return e
}

// HCorrector returns a horizontal-only corrector.
func HCorrector(famName string, length, hkick float64) Element {
	return Corrector(famName, length, hkick, 0)
}

// VCorrector returns a vertical-only corrector.
func VCorrector(famName string, length, vkick float64) Element {
	return Corrector(famName, length, 0, vkick)
}

// Quadrupole returns a straight multipole with K in PolynomB[1].
func Quadrupole(famName string, length, k float64, nrSteps int) Element {
	e := NewElement(famName, length)
	e.PassMethod = StrMPoleSymplectic4Pass
	e.PolynomB[1] = k
	e.NrSteps = nrSteps
	return e
}

// Sextupole returns a straight multipole with S in PolynomB[2].
func Sextupole(famName string, length, s float64, nrSteps int) Element {
	e := NewElement(famName, length)
	e.PassMethod = StrMPoleSymplectic4Pass
	e.PolynomB[2] = s
	e.NrSteps = nrSteps
	return e
}

// Rbend returns a sector-bend multipole. K and S overwrite the
// quadrupole and sextupole entries of polynomB.
func Rbend(famName string, length, angle, angleIn, angleOut, gap, fintIn, fintOut float64,
	polynomA, polynomB []float64, k, s float64, nrSteps int) Element {
	e := NewElement(famName, length)
	e.PassMethod = BndMPoleSymplectic4Pass
	e.Angle = angle
	e.AngleIn = angleIn
	e.AngleOut = angleOut
	e.Gap = gap
	e.FintIn = fintIn
	e.FintOut = fintOut
	e.SetPolynoms(polynomA, polynomB)
	if len(e.PolynomB) < defaultPolynomLen {
		e.SetPolynoms(e.PolynomA, append(e.PolynomB, make([]float64, defaultPolynomLen-len(e.PolynomB))...))
	}
	e.PolynomB[1] = k
	e.PolynomB[2] = s
	e.NrSteps = nrSteps
	return e
}

// RFCavity returns a cavity element.
func RFCavity(famName string, length, frequency, voltage float64) Element {
	e := NewElement(famName, length)
	e.PassMethod = CavityPass
	e.Frequency = frequency
	e.Voltage = voltage
	return e
}

// ThinQuad returns a zero-length quadrupole of integrated strength kl.
func ThinQuad(famName string, kl float64) Element {
	e := NewElement(famName, 0)
	e.PassMethod = ThinQuadPass
	e.ThinKL = kl
	return e
}

// ThinSext returns a zero-length sextupole of integrated strength sl.
func ThinSext(famName string, sl float64) Element {
	e := NewElement(famName, 0)
	e.PassMethod = ThinSextPass
	e.ThinSL = sl
	return e
}
