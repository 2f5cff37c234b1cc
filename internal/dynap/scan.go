// Package dynap runs dynamic-aperture scans: grids of initial
// transverse offsets tracked for many turns to map the survival
// boundary. Particles are independent and the accelerator is read-only
// during tracking, so the grid is fanned out over worker goroutines.
package dynap

import (
	"runtime"
	"sync"

	"github.com/askival/ringtrack/internal/beam"
	"github.com/askival/ringtrack/internal/lattice"
	"github.com/askival/ringtrack/internal/tracking"
)

// Point is the outcome of one launch position.
type Point struct {
	X, Y     float64
	Survived bool
	LostTurn int
	Plane    tracking.Plane
}

// Result is the full scan grid, row-major over (y, x).
type Result struct {
	NX, NY int
	Points []Point
}

// Scan tracks one particle per (x, y) grid node for nrTurns turns.
func Scan(acc *lattice.Accelerator, xs, ys []float64, nrTurns int) *Result {
	res := &Result{
		NX:     len(xs),
		NY:     len(ys),
		Points: make([]Point, len(xs)*len(ys)),
	}
	parallelFor(len(res.Points), func(start, end int) {
		for idx := start; idx < end; idx++ {
			i := idx % len(xs)
			j := idx / len(xs)
			p := beam.NewPos(xs[i], 0, ys[j], 0, 0, 0)
			_, lostTurn, _, plane, err := tracking.RingPass(acc, &p, nrTurns, false)
			res.Points[idx] = Point{
				X:        xs[i],
				Y:        ys[j],
				Survived: err == nil,
				LostTurn: lostTurn,
				Plane:    plane,
			}
		}
	})
	return res
}

// Aperture returns, for each y row, the largest |x| that survived, or 0
// if the whole row was lost.
func (r *Result) Aperture() []float64 {
	ap := make([]float64, r.NY)
	for j := 0; j < r.NY; j++ {
		for i := 0; i < r.NX; i++ {
			pt := r.Points[j*r.NX+i]
			if pt.Survived && abs(pt.X) > ap[j] {
				ap[j] = abs(pt.X)
			}
		}
	}
	return ap
}

// parallelFor splits [0, n) across worker goroutines.
func parallelFor(n int, fn func(start, end int)) {
	workers := runtime.NumCPU()
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		fn(0, n)
		return
	}
	chunk := (n + workers - 1) / workers

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > n {
			end = n
		}
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
