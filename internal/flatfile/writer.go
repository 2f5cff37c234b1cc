package flatfile

import (
	"bufio"
	"fmt"
	"os"

	"github.com/askival/ringtrack/internal/lattice"
	"github.com/askival/ringtrack/internal/linalg"
)

const (
	headerWidth = 18
	paramWidth  = 16
)

// Write serializes the accelerator to filename. Numbers use signed
// uppercase scientific notation with 17-digit precision; parameters at
// their zero default are omitted.
func Write(filename string, acc *lattice.Accelerator) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	fmt.Fprintf(w, "%-*s%.17E eV\n", headerWidth, "% energy", acc.Energy)
	fmt.Fprintf(w, "%-*s%d\n", headerWidth, "% harmonic_number", acc.HarmonicNumber)
	fmt.Fprintf(w, "%-*s%s\n", headerWidth, "% cavity_on", boolString(acc.CavityOn))
	fmt.Fprintf(w, "%-*s%s\n", headerWidth, "% radiation_on", boolString(acc.RadiationOn))
	fmt.Fprintf(w, "%-*s%s\n", headerWidth, "% vchamber_on", boolString(acc.VChamberOn))
	fmt.Fprintln(w)

	for i := range acc.Lattice {
		e := &acc.Lattice[i]
		fmt.Fprintf(w, "### %04d ###\n", i)
		fmt.Fprintf(w, "%-*s%s\n", paramWidth, "fam_name", e.FamName)
		writeScalar(w, "length", e.Length)
		fmt.Fprintf(w, "%-*s%s\n", paramWidth, "pass_method", e.PassMethod)
		if e.NrSteps != 1 {
			fmt.Fprintf(w, "%-*s%d\n", paramWidth, "nr_steps", e.NrSteps)
		}
		if hasPolynom(e.PolynomA) {
			writePolynom(w, "polynom_a", e.PolynomA)
		}
		if hasPolynom(e.PolynomB) {
			writePolynom(w, "polynom_b", e.PolynomB)
		}
		if e.HMin != 0 {
			writeScalar(w, "hmin", e.HMin)
		}
		if e.HMax != 0 {
			writeScalar(w, "hmax", e.HMax)
		}
		if e.VMin != 0 {
			writeScalar(w, "vmin", e.VMin)
		}
		if e.VMax != 0 {
			writeScalar(w, "vmax", e.VMax)
		}
		if e.HKick != 0 {
			writeScalar(w, "hkick", e.HKick)
		}
		if e.VKick != 0 {
			writeScalar(w, "vkick", e.VKick)
		}
		if e.Angle != 0 {
			writeScalar(w, "angle", e.Angle)
		}
		if e.Gap != 0 {
			writeScalar(w, "gap", e.Gap)
		}
		if e.FintIn != 0 {
			writeScalar(w, "fint_in", e.FintIn)
		}
		if e.FintOut != 0 {
			writeScalar(w, "fint_out", e.FintOut)
		}
		if e.ThinKL != 0 {
			writeScalar(w, "thin_KL", e.ThinKL)
		}
		if e.ThinSL != 0 {
			writeScalar(w, "thin_SL", e.ThinSL)
		}
		if e.Voltage != 0 {
			writeScalar(w, "voltage", e.Voltage)
		}
		if e.Frequency != 0 {
			writeScalar(w, "frequency", e.Frequency)
		}
		if e.AngleIn != 0 {
			writeScalar(w, "angle_in", e.AngleIn)
		}
		if e.AngleOut != 0 {
			writeScalar(w, "angle_out", e.AngleOut)
		}
		if hasTVector(e.TIn) {
			writeSixVector(w, "t_in", e.TIn[:])
		}
		if hasTVector(e.TOut) {
			writeSixVector(w, "t_out", e.TOut[:])
		}
		if !isIdentity(&e.RIn) {
			for r := 0; r < 6; r++ {
				writeSixVector(w, rRowNames[r]+"|r_in", e.RIn[r*6:r*6+6])
			}
		}
		if !isIdentity(&e.ROut) {
			for r := 0; r < 6; r++ {
				writeSixVector(w, rRowNames[r]+"|r_out", e.ROut[r*6:r*6+6])
			}
		}
		fmt.Fprintln(w)
	}

	return w.Flush()
}

func writeScalar(w *bufio.Writer, label string, v float64) {
	fmt.Fprintf(w, "%-*s%+.17E\n", paramWidth, label, v)
}

func writeSixVector(w *bufio.Writer, label string, v []float64) {
	fmt.Fprintf(w, "%-*s", paramWidth, label)
	for _, x := range v {
		fmt.Fprintf(w, "%+.17E  ", x)
	}
	fmt.Fprintln(w)
}

func writePolynom(w *bufio.Writer, label string, p []float64) {
	fmt.Fprintf(w, "%-*s", paramWidth, label)
	for i, v := range p {
		if v != 0 {
			fmt.Fprintf(w, "%d %+.17E ", i, v)
		}
	}
	fmt.Fprintln(w)
}

func boolString(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

func hasPolynom(p []float64) bool {
	for _, v := range p {
		if v != 0 {
			return true
		}
	}
	return false
}

func hasTVector(t [6]float64) bool {
	for _, v := range t {
		if v != 0 {
			return true
		}
	}
	return false
}

func isIdentity(m *linalg.Matrix) bool {
	id := linalg.Identity()
	return *m == id
}
