package tracking

import (
	"fmt"
	"math"

	"github.com/askival/ringtrack/internal/beam"
	"github.com/askival/ringtrack/internal/lattice"
)

const (
	lightSpeed = 299792458.0    // [m/s]
	radCgamma  = 8.846056192e-5 // [m/GeV^3] classical radiation constant
)

// Forest-Ruth 4th-order symplectic split coefficients.
const (
	frDrift1 = 0.6756035959798286638
	frDrift2 = -0.1756035959798286639
	frKick1  = 1.3512071919596573277
	frKick2  = -1.7024143839193146554
)

// ElementPass propagates p through a single element, applying the entry
// misalignment transform, the physics kernel selected by the element's
// pass method, and the exit transform. p is mutated in place; on error
// it holds the coordinates at the point of failure.
func ElementPass(acc *lattice.Accelerator, el *lattice.Element, p *beam.Pos) error {
	applyEntry(p, el)

	var err error
	switch el.PassMethod {
	case lattice.IdentityPass:
	case lattice.DriftPass:
		err = drift(p, el.Length)
	case lattice.StrMPoleSymplectic4Pass:
		err = strMPolePass(p, el, acc)
	case lattice.BndMPoleSymplectic4Pass:
		err = bndMPolePass(p, el, acc)
	case lattice.CorrectorPass:
		err = correctorPass(p, el)
	case lattice.CavityPass:
		err = cavityPass(p, el, acc)
	case lattice.ThinQuadPass:
		thinQuadPass(p, el)
	case lattice.ThinSextPass:
		thinSextPass(p, el)
	case lattice.KicktablePass:
		err = kicktablePass(p, el, acc)
	default:
		return fmt.Errorf("%w: %s", lattice.ErrPassMethodNotDefined, el.PassMethod)
	}
	if err != nil {
		return err
	}

	applyExit(p, el)
	return nil
}

// p <- r_in * (p - t_in)
func applyEntry(p *beam.Pos, el *lattice.Element) {
	var t beam.Pos
	for i := 0; i < 6; i++ {
		t.Set(i, p.Get(i)-el.TIn[i])
	}
	*p = el.RIn.Apply(t)
}

// p <- r_out * p + t_out
func applyExit(p *beam.Pos, el *lattice.Element) {
	t := el.ROut.Apply(*p)
	for i := 0; i < 6; i++ {
		t.Set(i, t.Get(i)+el.TOut[i])
	}
	*p = t
}

// drift is the exact canonical drift. The square-root argument turns
// non-positive for transverse momenta exceeding the total momentum,
// which counts as a loss.
func drift(p *beam.Pos, length float64) error {
	arg := (1+p.DE)*(1+p.DE) - p.PX*p.PX - p.PY*p.PY
	if arg <= 0 {
		return ErrParticleLost
	}
	pnorm := 1 / math.Sqrt(arg)
	p.RX += length * p.PX * pnorm
	p.RY += length * p.PY * pnorm
	p.DL += length * ((1+p.DE)*pnorm - 1)
	return nil
}

// polyKick evaluates Re and Im of (B+iA)(rx+i*ry) by Horner's rule
// over the shared multipole index range; the kicks apply -Re to px and
// +Im to py.
func polyKick(rx, ry float64, pa, pb []float64) (re, im float64) {
	n := len(pb)
	if n == 0 {
		return 0, 0
	}
	re, im = pb[n-1], pa[n-1]
	for i := n - 2; i >= 0; i-- {
		reNext := re*rx - im*ry + pb[i]
		im = im*rx + re*ry + pa[i]
		re = reNext
	}
	return re, im
}

// b2Perp is the squared field component transverse to the velocity.
func b2Perp(bx, by, irho, rx, xpr, ypr float64) float64 {
	h := 1 + rx*irho
	vnorm := 1 / (h*h + xpr*xpr + ypr*ypr)
	return ((by*ypr-bx*xpr)*(by*ypr-bx*xpr) + by*by*h*h + bx*bx*h*h) * vnorm
}

func radConst(energy float64) float64 {
	egev := energy / 1e9
	return radCgamma * egev * egev * egev / (2 * math.Pi)
}

func strThinKick(p *beam.Pos, length float64, el *lattice.Element, acc *lattice.Accelerator) {
	re, im := polyKick(p.RX, p.RY, el.PolynomA, el.PolynomB)
	if acc.RadiationOn {
		pnorm := 1 / (1 + p.DE)
		xpr, ypr := p.PX*pnorm, p.PY*pnorm
		b2p := b2Perp(im, re, 0, p.RX, xpr, ypr)
		p.DE -= radConst(acc.Energy) * (1 + p.DE) * (1 + p.DE) * b2p *
			(1 + (xpr*xpr+ypr*ypr)/2) * length
	}
	p.PX -= length * re
	p.PY += length * im
}

// bndThinKick adds the weak-focusing and path-length terms of a sector
// bend with curvature irho on top of the multipole kick.
func bndThinKick(p *beam.Pos, length, irho float64, el *lattice.Element, acc *lattice.Accelerator) {
	re, im := polyKick(p.RX, p.RY, el.PolynomA, el.PolynomB)
	if acc.RadiationOn {
		pnorm := 1 / (1 + p.DE)
		xpr, ypr := p.PX*pnorm, p.PY*pnorm
		b2p := b2Perp(im, re+irho, irho, p.RX, xpr, ypr)
		p.DE -= radConst(acc.Energy) * (1 + p.DE) * (1 + p.DE) * b2p *
			(1 + p.RX*irho + (xpr*xpr+ypr*ypr)/2) * length
	}
	p.PX -= length * (re - (p.DE-p.RX*irho)*irho)
	p.PY += length * im
	p.DL += length * irho * p.RX
}

// edgeFringe is the thin dipole edge focusing, with the vertical plane
// reduced by the field-integral term.
func edgeFringe(p *beam.Pos, irho, edgeAngle, fint, gap float64) {
	fx := irho * math.Tan(edgeAngle)
	sin := math.Sin(edgeAngle)
	psi := fint * gap * irho * (1 + sin*sin) / math.Cos(edgeAngle)
	fy := irho * (math.Tan(edgeAngle) - psi)
	p.PX += p.RX * fx
	p.PY -= p.RY * fy
}

func strMPolePass(p *beam.Pos, el *lattice.Element, acc *lattice.Accelerator) error {
	sl := el.Length / float64(el.NrSteps)
	l1, l2 := sl*frDrift1, sl*frDrift2
	k1, k2 := sl*frKick1, sl*frKick2
	for i := 0; i < el.NrSteps; i++ {
		if err := drift(p, l1); err != nil {
			return err
		}
		strThinKick(p, k1, el, acc)
		if err := drift(p, l2); err != nil {
			return err
		}
		strThinKick(p, k2, el, acc)
		if err := drift(p, l2); err != nil {
			return err
		}
		strThinKick(p, k1, el, acc)
		if err := drift(p, l1); err != nil {
			return err
		}
	}
	return nil
}

func bndMPolePass(p *beam.Pos, el *lattice.Element, acc *lattice.Accelerator) error {
	if el.Length == 0 {
		return nil
	}
	irho := el.Angle / el.Length
	edgeFringe(p, irho, el.AngleIn, el.FintIn, el.Gap)

	sl := el.Length / float64(el.NrSteps)
	l1, l2 := sl*frDrift1, sl*frDrift2
	k1, k2 := sl*frKick1, sl*frKick2
	for i := 0; i < el.NrSteps; i++ {
		if err := drift(p, l1); err != nil {
			return err
		}
		bndThinKick(p, k1, irho, el, acc)
		if err := drift(p, l2); err != nil {
			return err
		}
		bndThinKick(p, k2, irho, el, acc)
		if err := drift(p, l2); err != nil {
			return err
		}
		bndThinKick(p, k1, irho, el, acc)
		if err := drift(p, l1); err != nil {
			return err
		}
	}

	edgeFringe(p, irho, el.AngleOut, el.FintOut, el.Gap)
	return nil
}

func correctorPass(p *beam.Pos, el *lattice.Element) error {
	if el.Length == 0 {
		p.PX += el.HKick
		p.PY += el.VKick
		return nil
	}
	if err := drift(p, el.Length/2); err != nil {
		return err
	}
	p.PX += el.HKick
	p.PY += el.VKick
	if err := drift(p, el.Length/2); err != nil {
		return err
	}
	// second-order path lengthening of the kicked arc
	p.DL += el.Length * (el.HKick*el.HKick + el.VKick*el.VKick) / 6
	return nil
}

func cavityPass(p *beam.Pos, el *lattice.Element, acc *lattice.Accelerator) error {
	if !acc.CavityOn {
		return drift(p, el.Length)
	}
	nv := el.Voltage / acc.Energy
	if el.Length == 0 {
		p.DE += nv * math.Sin(2*math.Pi*el.Frequency*p.DL/lightSpeed)
		return nil
	}
	if err := drift(p, el.Length/2); err != nil {
		return err
	}
	p.DE += nv * math.Sin(2*math.Pi*el.Frequency*p.DL/lightSpeed)
	return drift(p, el.Length/2)
}

func thinQuadPass(p *beam.Pos, el *lattice.Element) {
	p.PX -= el.ThinKL * p.RX
	p.PY += el.ThinKL * p.RY
}

func thinSextPass(p *beam.Pos, el *lattice.Element) {
	p.PX -= el.ThinSL * (p.RX*p.RX - p.RY*p.RY) / 2
	p.PY += el.ThinSL * p.RX * p.RY
}

// kicktablePass applies the interpolated insertion-device kicks, scaled
// with energy, between two half drifts. An interpolation point outside
// the table loses the particle.
func kicktablePass(p *beam.Pos, el *lattice.Element, acc *lattice.Accelerator) error {
	if err := drift(p, el.Length/2); err != nil {
		return err
	}
	hkick, vkick, err := acc.Kicktables.Interpolate(el.Kicktable, p.RX, p.RY)
	if err != nil {
		return err
	}
	f := 1 / ((1 + p.DE) * (1 + p.DE))
	p.PX += hkick * f
	p.PY += vkick * f
	return drift(p, el.Length/2)
}
