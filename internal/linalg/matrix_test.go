package linalg

import (
	"errors"
	"math"
	"testing"

	"github.com/askival/ringtrack/internal/beam"
)

func TestIdentityApply(t *testing.T) {
	id := Identity()
	p := beam.NewPos(1, 2, 3, 4, 5, 6)
	got := id.Apply(p)
	if got != p {
		t.Errorf("identity apply changed the vector: %+v", got)
	}
}

func TestMul(t *testing.T) {
	a := Identity()
	a.Set(0, 1, 2) // [rx' = rx + 2 px]
	b := Identity()
	b.Set(1, 0, 3) // [px' = px + 3 rx]

	c := a.Mul(&b)
	// (a*b)[0][0] = 1 + 2*3
	if c.At(0, 0) != 7 {
		t.Errorf("c[0][0] = %f, want 7", c.At(0, 0))
	}
	if c.At(0, 1) != 2 || c.At(1, 0) != 3 {
		t.Errorf("off-diagonal wrong: %f %f", c.At(0, 1), c.At(1, 0))
	}
}

func TestSolve4(t *testing.T) {
	// diagonal system with known solution
	m := Identity()
	m.Set(0, 0, 2)
	m.Set(1, 1, 4)
	m.Set(2, 2, 8)
	m.Set(3, 3, 16)
	b := beam.NewPos(2, 4, 8, 16, 123, 456)

	x, err := Solve4(&m, b)
	if err != nil {
		t.Fatalf("solve4 failed: %v", err)
	}
	want := beam.NewPos(1, 1, 1, 1, 0, 0)
	for i := 0; i < 6; i++ {
		if math.Abs(x.Get(i)-want.Get(i)) > 1e-14 {
			t.Errorf("component %d: got %g, want %g", i, x.Get(i), want.Get(i))
		}
	}
}

func TestSolve6(t *testing.T) {
	m := Identity()
	m.Set(0, 1, 1) // couple rx and px
	b := beam.NewPos(3, 1, 0, 0, 2, -2)

	x, err := Solve6(&m, b)
	if err != nil {
		t.Fatalf("solve6 failed: %v", err)
	}
	// rx + px = 3, px = 1 -> rx = 2
	if math.Abs(x.RX-2) > 1e-14 || math.Abs(x.PX-1) > 1e-14 {
		t.Errorf("transverse solution wrong: %+v", x)
	}
	if math.Abs(x.DE-2) > 1e-14 || math.Abs(x.DL+2) > 1e-14 {
		t.Errorf("longitudinal solution wrong: %+v", x)
	}

	// residual check
	r := m.Apply(x).Sub(b)
	for i := 0; i < 6; i++ {
		if math.Abs(r.Get(i)) > 1e-14 {
			t.Errorf("residual component %d: %g", i, r.Get(i))
		}
	}
}

func TestSolveSingular(t *testing.T) {
	var m Matrix // all zero
	if _, err := Solve4(&m, beam.NewPos(1, 0, 0, 0, 0, 0)); !errors.Is(err, ErrSingular) {
		t.Errorf("expected ErrSingular, got %v", err)
	}
	if _, err := Solve6(&m, beam.NewPos(1, 0, 0, 0, 0, 0)); !errors.Is(err, ErrSingular) {
		t.Errorf("expected ErrSingular, got %v", err)
	}
}

func TestTranspose(t *testing.T) {
	m := Identity()
	m.Set(0, 5, 9)
	tr := m.Transpose()
	if tr.At(5, 0) != 9 || tr.At(0, 5) != 0 {
		t.Errorf("transpose wrong: %f %f", tr.At(5, 0), tr.At(0, 5))
	}
}
