package tracking

import (
	"math"

	"github.com/askival/ringtrack/internal/beam"
	"github.com/askival/ringtrack/internal/lattice"
)

// LinePass tracks p through one full pass of the lattice, starting at
// elementOffset and wrapping modulo the lattice length. p is mutated in
// place. With trajectory set, pos holds the coordinates at the entry of
// every element followed by the final coordinates (length N+1);
// otherwise only the final coordinates (length 1). On loss a NaN
// sentinel takes the place of the final coordinates.
//
// offset reports where tracking stopped: the index after the last
// element on success, the failing element on error. When the kernel
// itself failed its error is returned as is; a particle that left the
// chamber with a healthy kernel returns ErrParticleLost.
func LinePass(acc *lattice.Accelerator, p *beam.Pos, elementOffset int, trajectory bool) (pos []beam.Pos, offset int, lostPlane Plane, err error) {
	n := len(acc.Lattice)
	offset = elementOffset

	if trajectory {
		pos = make([]beam.Pos, n, n+1)
		for i := range pos {
			pos[i] = beam.NaNPos()
		}
	}

	for i := 0; i < n; i++ {
		el := &acc.Lattice[offset]

		if trajectory {
			pos[i] = *p
		}

		kerr := ElementPass(acc, el, p)

		if !isFinite(p.RX) ||
			(acc.VChamberOn && (p.RX < el.HMin || p.RX > el.HMax)) {
			return append(pos, beam.NaNPos()), offset, PlaneX, lossError(kerr)
		}
		if !isFinite(p.RY) ||
			(acc.VChamberOn && (p.RY < el.VMin || p.RY > el.VMax)) {
			return append(pos, beam.NaNPos()), offset, PlaneY, lossError(kerr)
		}
		if kerr != nil {
			return append(pos, beam.NaNPos()), offset, PlaneNone, kerr
		}

		offset = (offset + 1) % n
	}

	return append(pos, *p), offset, PlaneNone, nil
}

// lossError prefers the kernel's own failure over the generic loss.
func lossError(kerr error) error {
	if kerr != nil {
		return kerr
	}
	return ErrParticleLost
}

// RingPass tracks p around the ring nrTurns times. With trajectory set,
// pos holds the end-of-ring coordinates of every completed turn;
// otherwise only the final coordinates. On loss it returns immediately
// with the turn, element offset and plane of the loss.
func RingPass(acc *lattice.Accelerator, p *beam.Pos, nrTurns int, trajectory bool) (pos []beam.Pos, lostTurn, offset int, lostPlane Plane, err error) {
	if trajectory {
		pos = make([]beam.Pos, 0, nrTurns)
	}
	for turn := 0; turn < nrTurns; turn++ {
		if _, offset, lostPlane, err = LinePass(acc, p, offset, false); err != nil {
			return pos, turn, offset, lostPlane, err
		}
		if trajectory {
			pos = append(pos, *p)
		}
	}
	if !trajectory {
		pos = append(pos, *p)
	}
	return pos, nrTurns, offset, PlaneNone, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
