package tracking

import (
	"math"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/askival/ringtrack/internal/beam"
	"github.com/askival/ringtrack/internal/lattice"
	"github.com/askival/ringtrack/internal/linalg"
)

// bentRing is a stable FODO ring with weak sector bends and an RF
// cavity, so both transverse and longitudinal planes close.
func bentRing() *lattice.Accelerator {
	acc := lattice.NewAccelerator(3e9)
	acc.CavityOn = true
	acc.HarmonicNumber = 864
	cell := []lattice.Element{
		lattice.Drift("d1", 0.25),
		lattice.Quadrupole("qf", 0.5, 1.2, 10),
		lattice.Drift("d2", 0.25),
		lattice.Rbend("b1", 0.5, 0.01, 0, 0, 0, 0, 0, nil, nil, 0, 0, 10),
		lattice.Drift("d3", 0.25),
		lattice.Quadrupole("qd", 0.5, -1.2, 10),
		lattice.Drift("d4", 0.25),
		lattice.Rbend("b2", 0.5, 0.01, 0, 0, 0, 0, 0, nil, nil, 0, 0, 10),
	}
	acc.Lattice = append(acc.Lattice, cell...)
	acc.Lattice = append(acc.Lattice, lattice.RFCavity("rf", 0, 500e6, 1e6))
	return acc
}

func TestFindOrbit4ZeroOrbit(t *testing.T) {
	g := NewWithT(t)
	acc := fodoRing()

	orbit, err := FindOrbit4(acc, beam.Pos{})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(orbit).To(HaveLen(len(acc.Lattice)))

	// ideal lattice: the closed orbit is the axis
	for _, p := range orbit {
		for i := 0; i < 4; i++ {
			g.Expect(math.Abs(p.Get(i))).To(BeNumerically("<", 1e-14))
		}
	}
}

func TestFindOrbit4WithCorrector(t *testing.T) {
	g := NewWithT(t)
	acc := fodoRing()
	acc.Lattice = append(acc.Lattice, lattice.Corrector("ch", 0, 1e-5, 0))

	orbit, err := FindOrbit4(acc, beam.Pos{})
	g.Expect(err).NotTo(HaveOccurred())

	// the kick must distort the orbit
	g.Expect(math.Abs(orbit[0].RX)).To(BeNumerically(">", 1e-8))

	// closed-orbit idempotence: one turn returns to the start
	p := orbit[0]
	_, _, _, err = LinePass(acc, &p, 0, false)
	g.Expect(err).NotTo(HaveOccurred())
	for i := 0; i < 4; i++ {
		g.Expect(math.Abs(p.Get(i) - orbit[0].Get(i))).To(BeNumerically("<", 1e-10))
	}
}

func TestFindOrbit4LostParticle(t *testing.T) {
	g := NewWithT(t)
	acc := fodoRing()
	// kick so large the following drift cannot propagate
	acc.Lattice = append(acc.Lattice, lattice.Corrector("ch", 0, 1.5, 0))

	_, err := FindOrbit4(acc, beam.Pos{})
	g.Expect(err).To(MatchError(ErrNewtonNotConverged))
}

func TestFindOrbit6RequiresCavity(t *testing.T) {
	g := NewWithT(t)
	acc := bentRing()
	acc.CavityOn = false

	_, err := FindOrbit6(acc, beam.Pos{})
	g.Expect(err).To(MatchError(ErrNewtonNotConverged))
}

func TestFindOrbit6ZeroOrbit(t *testing.T) {
	g := NewWithT(t)
	acc := bentRing()

	orbit, err := FindOrbit6(acc, beam.Pos{})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(orbit).To(HaveLen(len(acc.Lattice)))
	for i := 0; i < 6; i++ {
		g.Expect(math.Abs(orbit[0].Get(i))).To(BeNumerically("<", 1e-12))
	}
}

func TestFindOrbit6WithRadiation(t *testing.T) {
	g := NewWithT(t)
	acc := bentRing()
	acc.RadiationOn = true

	orbit, err := FindOrbit6(acc, beam.Pos{})
	g.Expect(err).NotTo(HaveOccurred())

	// the fixed point shifts so the cavity restores the radiated energy
	p := orbit[0]
	_, _, _, err = LinePass(acc, &p, 0, false)
	g.Expect(err).NotTo(HaveOccurred())
	for i := 0; i < 6; i++ {
		g.Expect(math.Abs(p.Get(i) - orbit[0].Get(i))).To(BeNumerically("<", 1e-9))
	}
}

func TestFindM66(t *testing.T) {
	g := NewWithT(t)
	acc := bentRing()

	orbit, tm, m66, p0, err := FindM66(acc)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(orbit).To(HaveLen(len(acc.Lattice)))
	g.Expect(tm).To(HaveLen(len(acc.Lattice)))
	g.Expect(p0).To(Equal(orbit[0]))

	id := linalg.Identity()
	g.Expect(tm[0]).To(Equal(id))

	// the factorized product must reproduce the directly
	// finite-differenced one-turn map
	direct := oneTurnJacobian(t, acc, p0)
	worst := 0.0
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			if d := math.Abs(m66.At(i, j) - direct.At(i, j)); d > worst {
				worst = d
			}
		}
	}
	g.Expect(worst).To(BeNumerically("<", 1e-6))

	// a stable symplectic one-turn map has |trace| < 2 per plane
	trX := m66.At(0, 0) + m66.At(1, 1)
	trY := m66.At(2, 2) + m66.At(3, 3)
	g.Expect(math.Abs(trX)).To(BeNumerically("<", 2))
	g.Expect(math.Abs(trY)).To(BeNumerically("<", 2))
}

func oneTurnJacobian(t *testing.T, acc *lattice.Accelerator, p0 beam.Pos) linalg.Matrix {
	t.Helper()
	const eps = 1e-6
	var jac linalg.Matrix
	for j := 0; j < 6; j++ {
		plus := p0
		plus.Set(j, plus.Get(j)+eps)
		if _, _, _, err := LinePass(acc, &plus, 0, false); err != nil {
			t.Fatal(err)
		}
		minus := p0
		minus.Set(j, minus.Get(j)-eps)
		if _, _, _, err := LinePass(acc, &minus, 0, false); err != nil {
			t.Fatal(err)
		}
		for i := 0; i < 6; i++ {
			jac.Set(i, j, (plus.Get(i)-minus.Get(i))/(2*eps))
		}
	}
	return jac
}
