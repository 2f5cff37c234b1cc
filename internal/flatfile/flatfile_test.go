package flatfile_test

import (
	"math"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/askival/ringtrack/internal/flatfile"
	"github.com/askival/ringtrack/internal/lattice"
)

func sampleAccelerator() *lattice.Accelerator {
	acc := lattice.NewAccelerator(3e9)
	acc.HarmonicNumber = 864
	acc.CavityOn = true
	acc.VChamberOn = true

	qf := lattice.Quadrupole("qf", 0.5, 1.2, 10)
	qf.HMin, qf.HMax = -0.012, 0.012
	qf.VMin, qf.VMax = -0.012, 0.012

	bend := lattice.Rbend("b1", 1.0, 0.05, 0.025, 0.025, 0.02, 0.5, 0.5,
		nil, nil, -0.2, 0, 20)
	bend.TIn = [6]float64{1e-4, 0, -1e-4, 0, 0, 0}
	bend.TOut = [6]float64{-1e-4, 0, 1e-4, 0, 0, 0}

	tilted := lattice.Sextupole("sd", 0.15, -80, 5)
	c, s := math.Cos(1e-3), math.Sin(1e-3)
	tilted.RIn.Set(0, 0, c)
	tilted.RIn.Set(0, 2, s)
	tilted.RIn.Set(2, 0, -s)
	tilted.RIn.Set(2, 2, c)
	tilted.ROut.Set(0, 0, c)
	tilted.ROut.Set(0, 2, -s)
	tilted.ROut.Set(2, 0, s)
	tilted.ROut.Set(2, 2, c)

	acc.Lattice = []lattice.Element{
		lattice.Marker("start"),
		lattice.Drift("d1", 0.25),
		qf,
		bend,
		tilted,
		lattice.Corrector("ch", 0.1, 1e-4, -2e-4),
		lattice.RFCavity("rf", 0, 499.8e6, 1.5e6),
	}
	return acc
}

var _ = Describe("flat file round trip", func() {
	var path string

	BeforeEach(func() {
		path = filepath.Join(GinkgoT().TempDir(), "lattice.txt")
	})

	It("writes and reads back every element", func() {
		acc := sampleAccelerator()
		Expect(flatfile.Write(path, acc)).To(Succeed())

		got, err := flatfile.Read(path)
		Expect(err).NotTo(HaveOccurred())

		Expect(got.Energy).To(Equal(acc.Energy))
		Expect(got.HarmonicNumber).To(Equal(acc.HarmonicNumber))
		Expect(got.CavityOn).To(BeTrue())
		Expect(got.RadiationOn).To(BeFalse())
		Expect(got.VChamberOn).To(BeTrue())
		Expect(got.Lattice).To(HaveLen(len(acc.Lattice)))

		for i := range acc.Lattice {
			Expect(got.Lattice[i].StrictEqual(&acc.Lattice[i])).To(BeTrue(),
				"element %d (%s) did not survive the round trip", i, acc.Lattice[i].FamName)
		}
	})

	It("keeps polynomials synchronized after sparse reads", func() {
		content := `% energy         3.0E+09 eV
% harmonic_number 864

fam_name        sx1
length          +1.50000000000000000E-01
pass_method     str_mpole_symplectic4_pass
polynom_b       2 -8.0E+01 5 +1.0E+03
polynom_a       1 +1.0E-03
`
		Expect(os.WriteFile(path, []byte(content), 0644)).To(Succeed())

		acc, err := flatfile.Read(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(acc.Lattice).To(HaveLen(1))

		e := acc.Lattice[0]
		Expect(e.PolynomA).To(HaveLen(len(e.PolynomB)))
		Expect(e.PolynomB[2]).To(Equal(-80.0))
		Expect(e.PolynomB[5]).To(Equal(1000.0))
		Expect(e.PolynomA[1]).To(Equal(1e-3))
	})

	It("infers hmin from hmax only when hmin was absent", func() {
		content := `fam_name        a
pass_method     drift_pass
hmax            +1.0E-02

fam_name        b
pass_method     drift_pass
hmin            -3.0E-02
hmax            +1.0E-02
`
		Expect(os.WriteFile(path, []byte(content), 0644)).To(Succeed())

		acc, err := flatfile.Read(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(acc.Lattice).To(HaveLen(2))
		Expect(acc.Lattice[0].HMin).To(Equal(-0.01))
		Expect(acc.Lattice[1].HMin).To(Equal(-0.03))
	})

	It("rejects unknown keys", func() {
		content := `fam_name        a
flux_capacitor  1.21E+09
`
		Expect(os.WriteFile(path, []byte(content), 0644)).To(Succeed())

		_, err := flatfile.Read(path)
		Expect(err).To(MatchError(flatfile.ErrFlatFile))
	})

	It("rejects unknown pass methods, keeping both sentinels observable", func() {
		content := `fam_name        a
pass_method     warp_drive_pass
`
		Expect(os.WriteFile(path, []byte(content), 0644)).To(Succeed())

		_, err := flatfile.Read(path)
		Expect(err).To(MatchError(flatfile.ErrFlatFile))
		Expect(err).To(MatchError(lattice.ErrPassMethodNotDefined))
	})

	It("reports missing files", func() {
		_, err := flatfile.Read(filepath.Join(GinkgoT().TempDir(), "absent.txt"))
		Expect(os.IsNotExist(err)).To(BeTrue())
	})
})

var _ = Describe("tracy reader", func() {
	It("ingests the legacy format with its sign and begin quirks", func() {
		content := `begin 0 0 0
 -1 0 1
 -1.0 1.0 -1.0 1.0
 0.1
d1 1 1 1
 0 0 1
 -1.0 1.0 -1.0 1.0
 0.5
ch 2 1 2
 3 0 1
 -1.0 1.0 -1.0 1.0
 0.0 0.0 0.0
 0 0
 0 2.5e-4 1.5e-4
rf 3 1 3
 2 0 1
 -1.0 1.0 -1.0 1.0
 1.0e-3 1.0e-2 864 3.0e9
qf 4 1 4
 1 4 10
 -1.0 1.0 -1.0 1.0
 0.0 0.0 0.0 0.0
 0.5 0.0 0.0 0.0 0.0
 1 2
 2 1.2 0.0
`
		path := filepath.Join(GinkgoT().TempDir(), "machine.dat")
		Expect(os.WriteFile(path, []byte(content), 0644)).To(Succeed())

		acc, err := flatfile.ReadTracy(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(acc.Lattice).To(HaveLen(5))

		begin := acc.Lattice[0]
		Expect(begin.FamName).To(Equal("begin"))
		Expect(begin.PassMethod).To(Equal(lattice.DriftPass))
		Expect(begin.Length).To(Equal(0.1))

		Expect(acc.Lattice[1].Length).To(Equal(0.5))

		ch := acc.Lattice[2]
		Expect(ch.PassMethod).To(Equal(lattice.CorrectorPass))
		Expect(ch.HKick).To(Equal(-2.5e-4), "horizontal kick must be negated")
		Expect(ch.VKick).To(Equal(1.5e-4))

		rf := acc.Lattice[3]
		Expect(rf.PassMethod).To(Equal(lattice.CavityPass))
		Expect(rf.Voltage).To(Equal(1.0e-3 * 3.0e9))
		Expect(rf.Frequency).To(BeNumerically("~", 1.0e-2*299792458.0/(2*math.Pi), 1e-6))
		Expect(acc.HarmonicNumber).To(Equal(864))
		Expect(acc.Energy).To(Equal(3.0e9))

		qf := acc.Lattice[4]
		Expect(qf.PassMethod).To(Equal(lattice.StrMPoleSymplectic4Pass))
		Expect(qf.Length).To(Equal(0.5))
		Expect(qf.PolynomB[1]).To(Equal(1.2))
	})
})
