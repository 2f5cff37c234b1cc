package flatfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/askival/ringtrack/internal/lattice"
)

// Numeric element tags of the legacy tracy flat files.
const (
	tracyMarker    = -1
	tracyDrift     = 0
	tracyMPole     = 1
	tracyCavity    = 2
	tracyCorrector = 3
	tracyKicktable = 6
)

const tracyLightSpeed = 299792458.0

// ReadTracy ingests a legacy tracy-format lattice. Two quirks of that
// format are reproduced: the horizontal corrector kick is negated on
// ingest, and the synthetic leading "begin" element contributes only
// its length, as the zero-th drift of the lattice.
func ReadTracy(filename string) (*lattice.Accelerator, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := bufio.NewReader(f)

	acc := lattice.NewAccelerator(0)

	for {
		e := lattice.NewElement("", 0)
		var fnum, knum, idx int
		if _, err := fmt.Fscan(r, &e.FamName, &fnum, &knum, &idx); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("%w: %w", ErrFlatFile, err)
		}
		if e.FamName == "prtmfile:" {
			return nil, fmt.Errorf("%w: tracy machine file has a prtmfile header", ErrFlatFile)
		}

		var elType, method int
		if _, err := fmt.Fscan(r, &elType, &method, &e.NrSteps); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFlatFile, err)
		}
		if e.NrSteps < 1 {
			e.NrSteps = 1
		}
		if _, err := fmt.Fscan(r, &e.HMin, &e.HMax, &e.VMin, &e.VMax); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFlatFile, err)
		}

		if e.FamName == "begin" {
			if _, err := fmt.Fscan(r, &e.Length); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrFlatFile, err)
			}
			acc.Lattice = append(acc.Lattice, lattice.Drift(e.FamName, e.Length))
			continue
		}

		switch elType {
		case tracyMarker:
			e.PassMethod = lattice.IdentityPass

		case tracyDrift:
			e.PassMethod = lattice.DriftPass
			if _, err := fmt.Fscan(r, &e.Length); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrFlatFile, err)
			}

		case tracyCorrector:
			e.PassMethod = lattice.CorrectorPass
			var tmpDbl [3]float64
			var tmpInt [3]int
			if _, err := fmt.Fscan(r, &tmpDbl[0], &tmpDbl[1], &tmpDbl[2],
				&tmpInt[0], &tmpInt[1], &tmpInt[2], &e.HKick, &e.VKick); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrFlatFile, err)
			}
			e.HKick = -e.HKick // legacy sign convention

		case tracyCavity:
			e.PassMethod = lattice.CavityPass
			var hnumber int
			var energy float64
			if _, err := fmt.Fscan(r, &e.Voltage, &e.Frequency, &hnumber, &energy); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrFlatFile, err)
			}
			e.Voltage *= energy
			e.Frequency *= tracyLightSpeed / (2 * math.Pi)
			acc.HarmonicNumber = hnumber
			acc.Energy = energy

		case tracyMPole:
			if err := readTracyMPole(r, &e); err != nil {
				return nil, err
			}

		case tracyKicktable:
			e.PassMethod = lattice.KicktablePass
			var tmp1, tmp2 float64
			var tableFile string
			if _, err := fmt.Fscan(r, &tmp1, &tmp2, &tableFile); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrFlatFile, err)
			}
			h, err := acc.Kicktables.Add(tableFile)
			if err != nil {
				return nil, err
			}
			e.Kicktable = h
			e.Length = acc.Kicktables.Table(h).Length
		}

		acc.Lattice = append(acc.Lattice, e)
	}

	return acc, nil
}

func readTracyMPole(r *bufio.Reader, e *lattice.Element) error {
	var dtPar, dtErr float64
	if _, err := fmt.Fscan(r, &e.TOut[0], &e.TOut[2], &dtPar, &dtErr); err != nil {
		return fmt.Errorf("%w: %w", ErrFlatFile, err)
	}
	if _, err := fmt.Fscan(r, &e.Length, &e.Angle, &e.AngleIn, &e.AngleOut, &e.Gap); err != nil {
		return fmt.Errorf("%w: %w", ErrFlatFile, err)
	}
	e.Angle *= e.Length
	e.AngleIn *= math.Pi / 180
	e.AngleOut *= math.Pi / 180
	if e.Angle != 0 {
		e.PassMethod = lattice.BndMPoleSymplectic4Pass
	} else {
		e.PassMethod = lattice.StrMPoleSymplectic4Pass
	}

	var nrMonomials, nDesign int
	if _, err := fmt.Fscan(r, &nrMonomials, &nDesign); err != nil {
		return fmt.Errorf("%w: %w", ErrFlatFile, err)
	}
	a := make([]float64, 3)
	b := make([]float64, 3)
	for i := 0; i < nrMonomials; i++ {
		var order int
		if _, err := fmt.Fscan(r, &order); err != nil {
			return fmt.Errorf("%w: %w", ErrFlatFile, err)
		}
		for len(b) < order {
			a = append(a, 0)
			b = append(b, 0)
		}
		if _, err := fmt.Fscan(r, &b[order-1], &a[order-1]); err != nil {
			return fmt.Errorf("%w: %w", ErrFlatFile, err)
		}
	}
	e.SetPolynoms(a, b)

	e.TIn[0] = -e.TOut[0]
	e.TIn[2] = -e.TOut[2]

	// pseudo-rotation of the magnet about the beam axis
	ang := math.Pi * (dtPar + dtErr) / 180
	c, s := math.Cos(ang), math.Sin(ang)
	e.RIn.Set(0, 0, c)
	e.RIn.Set(0, 2, s)
	e.RIn.Set(2, 0, -s)
	e.RIn.Set(2, 2, c)
	e.RIn.Set(1, 1, c)
	e.RIn.Set(1, 3, s)
	e.RIn.Set(3, 1, -s)
	e.RIn.Set(3, 3, c)
	e.ROut.Set(0, 0, c)
	e.ROut.Set(0, 2, -s)
	e.ROut.Set(2, 0, s)
	e.ROut.Set(2, 2, c)
	e.ROut.Set(1, 1, c)
	e.ROut.Set(1, 3, -s)
	e.ROut.Set(3, 1, s)
	e.ROut.Set(3, 3, c)
	return nil
}
