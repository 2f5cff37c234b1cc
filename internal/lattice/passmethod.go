package lattice

import (
	"errors"
	"fmt"
)

// PassMethod selects the physics kernel applied to an element.
type PassMethod int

const (
	IdentityPass PassMethod = iota
	DriftPass
	StrMPoleSymplectic4Pass
	BndMPoleSymplectic4Pass
	CorrectorPass
	CavityPass
	ThinQuadPass
	ThinSextPass
	KicktablePass
	nrPassMethods
)

// ErrPassMethodNotDefined indicates an unknown pass-method name or tag.
var ErrPassMethodNotDefined = errors.New("lattice: pass method not defined")

var passMethodNames = [nrPassMethods]string{
	"identity_pass",
	"drift_pass",
	"str_mpole_symplectic4_pass",
	"bnd_mpole_symplectic4_pass",
	"corrector_pass",
	"cavity_pass",
	"thinquad_pass",
	"thinsext_pass",
	"kicktable_pass",
}

func (pm PassMethod) String() string {
	if pm < 0 || pm >= nrPassMethods {
		return fmt.Sprintf("pass_method(%d)", int(pm))
	}
	return passMethodNames[pm]
}

// ParsePassMethod maps a serialized pass-method name to its tag.
func ParsePassMethod(name string) (PassMethod, error) {
	for i, n := range passMethodNames {
		if n == name {
			return PassMethod(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrPassMethodNotDefined, name)
}
