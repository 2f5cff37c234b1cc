package lattice

// Equal is the physical equivalence relation between elements: for
// drift and identity pass methods only the geometry (name, pass
// method, length, apertures, step count) is compared, since the other
// parameters cannot influence tracking. For every other pass method it
// coincides with StrictEqual. Kicktables are compared by handle, which
// identifies contents within a registry.
func (e *Element) Equal(o *Element) bool {
	if e == o {
		return true
	}
	if !e.geometryEqual(o) {
		return false
	}
	if e.PassMethod == DriftPass || e.PassMethod == IdentityPass {
		return true
	}
	return e.payloadEqual(o)
}

// StrictEqual compares every field of both elements.
func (e *Element) StrictEqual(o *Element) bool {
	if e == o {
		return true
	}
	return e.geometryEqual(o) && e.payloadEqual(o)
}

func (e *Element) geometryEqual(o *Element) bool {
	return e.FamName == o.FamName &&
		e.PassMethod == o.PassMethod &&
		e.Length == o.Length &&
		e.HMin == o.HMin && e.HMax == o.HMax &&
		e.VMin == o.VMin && e.VMax == o.VMax &&
		e.NrSteps == o.NrSteps
}

func (e *Element) payloadEqual(o *Element) bool {
	if e.HKick != o.HKick || e.VKick != o.VKick ||
		e.Angle != o.Angle || e.AngleIn != o.AngleIn || e.AngleOut != o.AngleOut ||
		e.Gap != o.Gap || e.FintIn != o.FintIn || e.FintOut != o.FintOut ||
		e.ThinKL != o.ThinKL || e.ThinSL != o.ThinSL ||
		e.Frequency != o.Frequency || e.Voltage != o.Voltage {
		return false
	}
	if len(e.PolynomA) != len(o.PolynomA) || len(e.PolynomB) != len(o.PolynomB) {
		return false
	}
	for i := range e.PolynomA {
		if e.PolynomA[i] != o.PolynomA[i] {
			return false
		}
	}
	for i := range e.PolynomB {
		if e.PolynomB[i] != o.PolynomB[i] {
			return false
		}
	}
	if e.TIn != o.TIn || e.TOut != o.TOut {
		return false
	}
	if e.RIn != o.RIn || e.ROut != o.ROut {
		return false
	}
	return e.Kicktable == o.Kicktable
}
