package lattice

import (
	"fmt"
	"strings"
)

// String renders the element's non-default parameters, one per line.
func (e *Element) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "fam_name      : %s", e.FamName)
	if e.Length != 0 {
		fmt.Fprintf(&b, "\nlength        : %g", e.Length)
	}
	fmt.Fprintf(&b, "\npass_method   : %s", e.PassMethod)
	if e.NrSteps > 1 {
		fmt.Fprintf(&b, "\nnr_steps      : %d", e.NrSteps)
	}
	if e.ThinKL != 0 {
		fmt.Fprintf(&b, "\nthin_KL       : %g", e.ThinKL)
	}
	if e.ThinSL != 0 {
		fmt.Fprintf(&b, "\nthin_SL       : %g", e.ThinSL)
	}
	if e.Angle != 0 {
		fmt.Fprintf(&b, "\nbending_angle : %g", e.Angle)
		fmt.Fprintf(&b, "\nentrance_angle: %g", e.AngleIn)
		fmt.Fprintf(&b, "\nexit_angle    : %g", e.AngleOut)
	}
	if e.Gap != 0 && (e.FintIn != 0 || e.FintOut != 0) {
		fmt.Fprintf(&b, "\ngap           : %g", e.Gap)
		fmt.Fprintf(&b, "\nfint_in       : %g", e.FintIn)
		fmt.Fprintf(&b, "\nfint_out      : %g", e.FintOut)
	}
	writePolynom(&b, "polynom_a     : ", e.PolynomA)
	writePolynom(&b, "polynom_b     : ", e.PolynomB)
	if e.Frequency != 0 {
		fmt.Fprintf(&b, "\nfrequency     : %g", e.Frequency)
	}
	if e.Voltage != 0 {
		fmt.Fprintf(&b, "\nvoltage       : %g", e.Voltage)
	}
	return b.String()
}

func writePolynom(b *strings.Builder, label string, p []float64) {
	order := 0
	for i, v := range p {
		if v != 0 {
			order = i + 1
		}
	}
	if order == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s", label)
	for i := 0; i < order; i++ {
		fmt.Fprintf(b, "%g ", p[i])
	}
}
