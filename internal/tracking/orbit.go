package tracking

import (
	"fmt"
	"math"

	"github.com/askival/ringtrack/internal/beam"
	"github.com/askival/ringtrack/internal/lattice"
	"github.com/askival/ringtrack/internal/linalg"
)

const (
	orbitDelta   = 1e-8
	orbitTol     = 1e-12
	orbitMaxIter = 50
)

// FindOrbit4 finds the transverse fixed point of the one-turn map with
// the energy deviation held at zero, by Newton iteration with a
// finite-difference Jacobian. It returns the closed-orbit coordinates
// at the entry of every element.
func FindOrbit4(acc *lattice.Accelerator, guess beam.Pos) ([]beam.Pos, error) {
	co := guess
	co.DE = 0
	if err := newtonOrbit(acc, &co, 4); err != nil {
		return nil, err
	}
	return orbitTrajectory(acc, co)
}

// FindOrbit6 finds the full 6-D fixed point of the one-turn map. The
// longitudinal motion is only closed with the cavity on; radiation
// energy loss, if enabled, shifts the fixed point accordingly.
func FindOrbit6(acc *lattice.Accelerator, guess beam.Pos) ([]beam.Pos, error) {
	if !acc.CavityOn {
		return nil, fmt.Errorf("%w: 6-d fixed point requires cavity_on", ErrNewtonNotConverged)
	}
	co := guess
	if err := newtonOrbit(acc, &co, 6); err != nil {
		return nil, err
	}
	return orbitTrajectory(acc, co)
}

// newtonOrbit iterates p toward the fixed point of the one-turn map,
// correcting the first dim canonical coordinates.
func newtonOrbit(acc *lattice.Accelerator, p *beam.Pos, dim int) error {
	for iter := 0; iter < orbitMaxIter; iter++ {
		m0, err := oneTurn(acc, *p)
		if err != nil {
			return err
		}

		// J = DM - I restricted to the corrected block
		var jac linalg.Matrix
		for j := 0; j < dim; j++ {
			probe := *p
			probe.Set(j, probe.Get(j)+orbitDelta)
			mj, err := oneTurn(acc, probe)
			if err != nil {
				return err
			}
			for i := 0; i < dim; i++ {
				jac.Set(i, j, (mj.Get(i)-m0.Get(i))/orbitDelta)
			}
		}
		for i := 0; i < dim; i++ {
			jac.Set(i, i, jac.At(i, i)-1)
		}

		// J * delta = p - M(p)
		rhs := p.Sub(m0)
		var delta beam.Pos
		if dim == 4 {
			delta, err = linalg.Solve4(&jac, rhs)
		} else {
			delta, err = linalg.Solve6(&jac, rhs)
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrNewtonNotConverged, err)
		}

		worst := 0.0
		for i := 0; i < dim; i++ {
			p.Set(i, p.Get(i)+delta.Get(i))
			if a := math.Abs(delta.Get(i)); a > worst {
				worst = a
			}
		}
		if worst < orbitTol {
			return nil
		}
	}
	return ErrNewtonNotConverged
}

func oneTurn(acc *lattice.Accelerator, p beam.Pos) (beam.Pos, error) {
	if _, _, _, err := LinePass(acc, &p, 0, false); err != nil {
		return beam.Pos{}, fmt.Errorf("%w: %v", ErrNewtonNotConverged, err)
	}
	return p, nil
}

// orbitTrajectory records the converged orbit at each element entry.
func orbitTrajectory(acc *lattice.Accelerator, co beam.Pos) ([]beam.Pos, error) {
	p := co
	pos, _, _, err := LinePass(acc, &p, 0, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNewtonNotConverged, err)
	}
	return pos[:len(pos)-1], nil
}

// FindM66 computes the linearized one-turn map about the 6-D closed
// orbit. tm[i] is the accumulated transfer matrix from the ring start
// to the entry of element i (tm[0] is the identity), so that the
// last element's Jacobian times tm[N-1] equals m66. p0 is the
// closed orbit at the ring start.
func FindM66(acc *lattice.Accelerator) (orbit []beam.Pos, tm []linalg.Matrix, m66 linalg.Matrix, p0 beam.Pos, err error) {
	orbit, err = FindOrbit6(acc, beam.Pos{})
	if err != nil {
		return nil, nil, m66, p0, err
	}
	n := len(acc.Lattice)
	p0 = orbit[0]

	jacs := make([]linalg.Matrix, n)
	for i := 0; i < n; i++ {
		el := &acc.Lattice[i]
		out0 := orbit[i]
		if err := ElementPass(acc, el, &out0); err != nil {
			return nil, nil, m66, p0, fmt.Errorf("%w: %v", ErrNewtonNotConverged, err)
		}
		for j := 0; j < 6; j++ {
			probe := orbit[i]
			probe.Set(j, probe.Get(j)+orbitDelta)
			if err := ElementPass(acc, el, &probe); err != nil {
				return nil, nil, m66, p0, fmt.Errorf("%w: %v", ErrNewtonNotConverged, err)
			}
			for k := 0; k < 6; k++ {
				jacs[i].Set(k, j, (probe.Get(k)-out0.Get(k))/orbitDelta)
			}
		}
	}

	tm = make([]linalg.Matrix, n)
	tm[0] = linalg.Identity()
	for i := 1; i < n; i++ {
		tm[i] = jacs[i-1].Mul(&tm[i-1])
	}
	m66 = jacs[n-1].Mul(&tm[n-1])
	return orbit, tm, m66, p0, nil
}
