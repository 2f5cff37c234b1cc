// Package linalg provides the small dense 6x6 matrices used by the
// tracking engine and LU solvers for the Newton orbit correction.
package linalg

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/askival/ringtrack/internal/beam"
)

// SingularThreshold is the pivot-product magnitude below which a
// correction system is treated as singular.
const SingularThreshold = 1e-30

// ErrSingular indicates the linear correction system could not be solved.
var ErrSingular = errors.New("linalg: singular matrix")

// Matrix is a dense 6x6 real matrix in row-major order.
type Matrix [36]float64

// Identity returns the 6x6 identity.
func Identity() Matrix {
	var m Matrix
	for i := 0; i < 6; i++ {
		m[i*6+i] = 1
	}
	return m
}

func (m *Matrix) At(i, j int) float64     { return m[i*6+j] }
func (m *Matrix) Set(i, j int, v float64) { m[i*6+j] = v }

// Mul returns the product m*o.
func (m *Matrix) Mul(o *Matrix) Matrix {
	a := mat.NewDense(6, 6, m[:])
	b := mat.NewDense(6, 6, o[:])
	var c mat.Dense
	c.Mul(a, b)
	var out Matrix
	copy(out[:], c.RawMatrix().Data)
	return out
}

// Apply returns m*p treating p as a column vector.
func (m *Matrix) Apply(p beam.Pos) beam.Pos {
	var out beam.Pos
	for i := 0; i < 6; i++ {
		s := 0.0
		for j := 0; j < 6; j++ {
			s += m[i*6+j] * p.Get(j)
		}
		out.Set(i, s)
	}
	return out
}

// Transpose returns the transpose of m.
func (m *Matrix) Transpose() Matrix {
	var out Matrix
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			out[j*6+i] = m[i*6+j]
		}
	}
	return out
}

// Solve4 solves the transverse block M[0:4,0:4] x = b[0:4] by LU with
// partial pivoting, leaving the energy and longitudinal components of
// the result at zero.
func Solve4(m *Matrix, b beam.Pos) (beam.Pos, error) {
	a := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			a.Set(i, j, m.At(i, j))
		}
	}
	rhs := mat.NewVecDense(4, []float64{b.RX, b.PX, b.RY, b.PY})
	x, err := luSolve(a, rhs)
	if err != nil {
		return beam.Pos{}, err
	}
	return beam.NewPos(x.AtVec(0), x.AtVec(1), x.AtVec(2), x.AtVec(3), 0, 0), nil
}

// Solve6 solves the full system M x = b by LU with partial pivoting.
func Solve6(m *Matrix, b beam.Pos) (beam.Pos, error) {
	a := mat.NewDense(6, 6, nil)
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			a.Set(i, j, m.At(i, j))
		}
	}
	rhs := mat.NewVecDense(6, b.Vector())
	x, err := luSolve(a, rhs)
	if err != nil {
		return beam.Pos{}, err
	}
	var out beam.Pos
	for i := 0; i < 6; i++ {
		out.Set(i, x.AtVec(i))
	}
	return out, nil
}

func luSolve(a *mat.Dense, b *mat.VecDense) (*mat.VecDense, error) {
	var lu mat.LU
	lu.Factorize(a)
	if det := lu.Det(); math.IsNaN(det) || math.Abs(det) < SingularThreshold {
		return nil, ErrSingular
	}
	n, _ := a.Dims()
	x := mat.NewVecDense(n, nil)
	if err := lu.SolveVecTo(x, false, b); err != nil {
		if _, conditioned := err.(mat.Condition); !conditioned {
			return nil, ErrSingular
		}
	}
	return x, nil
}
