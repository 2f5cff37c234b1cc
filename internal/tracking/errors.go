package tracking

import "errors"

// Domain errors for tracking operations.
var (
	// ErrParticleLost indicates the particle left the vacuum chamber or
	// acquired a non-physical coordinate.
	ErrParticleLost = errors.New("tracking: particle lost")

	// ErrNewtonNotConverged indicates the closed-orbit Newton iteration
	// failed, either by exceeding the iteration budget, by losing the
	// probe particle, or through a singular correction system.
	ErrNewtonNotConverged = errors.New("tracking: closed orbit search did not converge")
)

// Plane tags the plane in which a particle was lost.
type Plane int

const (
	PlaneNone Plane = iota
	PlaneX
	PlaneY
)

func (p Plane) String() string {
	switch p {
	case PlaneX:
		return "x"
	case PlaneY:
		return "y"
	default:
		return "none"
	}
}
