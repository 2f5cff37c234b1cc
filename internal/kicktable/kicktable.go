// Package kicktable stores the 2-D kick maps used by insertion-device
// elements. Tables are loaded once per filename and shared read-only;
// elements refer to them through stable integer handles.
package kicktable

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// ErrOutOfRange indicates an interpolation point outside the grid.
var ErrOutOfRange = errors.New("kicktable: point outside table range")

// Handle identifies a table inside a Registry. Elements built by
// lattice.NewElement carry None.
type Handle int

// None is the handle of elements without a kicktable.
const None Handle = -1

// Kicktable is a rectangular (x, y) grid with horizontal and vertical
// kick values at each node.
type Kicktable struct {
	Filename string
	Length   float64
	XNrpts   int
	YNrpts   int
	XMin     float64
	XMax     float64
	YMin     float64
	YMax     float64
	XKick    []float64
	YKick    []float64
}

func (k *Kicktable) idx(i, j int) int { return j*k.XNrpts + i }

// GetKicks bilinearly interpolates the horizontal and vertical kicks at
// (rx, ry).
func (k *Kicktable) GetKicks(rx, ry float64) (hkick, vkick float64, err error) {
	if rx < k.XMin || rx > k.XMax || ry < k.YMin || ry > k.YMax {
		return 0, 0, ErrOutOfRange
	}
	fx := (rx - k.XMin) / (k.XMax - k.XMin) * float64(k.XNrpts-1)
	fy := (ry - k.YMin) / (k.YMax - k.YMin) * float64(k.YNrpts-1)
	i := int(fx)
	j := int(fy)
	if i > k.XNrpts-2 {
		i = k.XNrpts - 2
	}
	if j > k.YNrpts-2 {
		j = k.YNrpts - 2
	}
	dx := fx - float64(i)
	dy := fy - float64(j)

	hkick = (1-dx)*(1-dy)*k.XKick[k.idx(i, j)] +
		dx*(1-dy)*k.XKick[k.idx(i+1, j)] +
		(1-dx)*dy*k.XKick[k.idx(i, j+1)] +
		dx*dy*k.XKick[k.idx(i+1, j+1)]
	vkick = (1-dx)*(1-dy)*k.YKick[k.idx(i, j)] +
		dx*(1-dy)*k.YKick[k.idx(i+1, j)] +
		(1-dx)*dy*k.YKick[k.idx(i, j+1)] +
		dx*dy*k.YKick[k.idx(i+1, j+1)]
	return hkick, vkick, nil
}

// Equal compares grid geometry and kick values.
func (k *Kicktable) Equal(o *Kicktable) bool {
	if k == o {
		return true
	}
	if k == nil || o == nil {
		return false
	}
	if k.Length != o.Length ||
		k.XMin != o.XMin || k.XMax != o.XMax ||
		k.YMin != o.YMin || k.YMax != o.YMax ||
		len(k.XKick) != len(o.XKick) || len(k.YKick) != len(o.YKick) {
		return false
	}
	for i := range k.XKick {
		if k.XKick[i] != o.XKick[i] {
			return false
		}
	}
	for i := range k.YKick {
		if k.YKick[i] != o.YKick[i] {
			return false
		}
	}
	return true
}

// Load parses a kick map file. The layout is: a title line, an author
// line, then labeled values for the device length and the horizontal
// and vertical point counts, followed by the horizontal and vertical
// kick blocks. Each block has a label line, a START line, one row of x
// positions and one row per y position from top (largest y) to bottom.
func Load(filename string) (*Kicktable, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(string(data), "\n")
	pos := 0
	next := func() (string, error) {
		for pos < len(lines) {
			line := strings.TrimSpace(lines[pos])
			pos++
			if line != "" {
				return line, nil
			}
		}
		return "", fmt.Errorf("kicktable: %s: unexpected end of file", filename)
	}

	k := &Kicktable{
		Filename: filename,
		XMin:     math.NaN(), XMax: math.NaN(),
		YMin: math.NaN(), YMax: math.NaN(),
	}

	// title and author lines
	if _, err := next(); err != nil {
		return nil, err
	}
	if _, err := next(); err != nil {
		return nil, err
	}

	readValue := func(parse func(string) error) error {
		if _, err := next(); err != nil { // label line
			return err
		}
		line, err := next()
		if err != nil {
			return err
		}
		return parse(line)
	}
	if err := readValue(func(s string) error {
		v, err := strconv.ParseFloat(strings.Fields(s)[0], 64)
		k.Length = v
		return err
	}); err != nil {
		return nil, fmt.Errorf("kicktable: %s: bad length: %w", filename, err)
	}
	if err := readValue(func(s string) error {
		v, err := strconv.Atoi(strings.Fields(s)[0])
		k.XNrpts = v
		return err
	}); err != nil {
		return nil, fmt.Errorf("kicktable: %s: bad x point count: %w", filename, err)
	}
	if err := readValue(func(s string) error {
		v, err := strconv.Atoi(strings.Fields(s)[0])
		k.YNrpts = v
		return err
	}); err != nil {
		return nil, fmt.Errorf("kicktable: %s: bad y point count: %w", filename, err)
	}
	if k.XNrpts < 2 || k.YNrpts < 2 {
		return nil, fmt.Errorf("kicktable: %s: grid must be at least 2x2", filename)
	}

	k.XKick = make([]float64, k.XNrpts*k.YNrpts)
	k.YKick = make([]float64, k.XNrpts*k.YNrpts)

	readBlock := func(kick []float64, track bool) error {
		if _, err := next(); err != nil { // block label
			return err
		}
		if _, err := next(); err != nil { // START
			return err
		}
		line, err := next()
		if err != nil {
			return err
		}
		xs := strings.Fields(line)
		if len(xs) != k.XNrpts {
			return fmt.Errorf("expected %d x positions, got %d", k.XNrpts, len(xs))
		}
		if track {
			for _, f := range xs {
				v, err := strconv.ParseFloat(f, 64)
				if err != nil {
					return err
				}
				if math.IsNaN(k.XMin) || v < k.XMin {
					k.XMin = v
				}
				if math.IsNaN(k.XMax) || v > k.XMax {
					k.XMax = v
				}
			}
		}
		for j := k.YNrpts - 1; j >= 0; j-- {
			line, err := next()
			if err != nil {
				return err
			}
			fields := strings.Fields(line)
			if len(fields) != k.XNrpts+1 {
				return fmt.Errorf("expected %d values per row, got %d", k.XNrpts+1, len(fields))
			}
			posy, err := strconv.ParseFloat(fields[0], 64)
			if err != nil {
				return err
			}
			if track {
				if math.IsNaN(k.YMin) || posy < k.YMin {
					k.YMin = posy
				}
				if math.IsNaN(k.YMax) || posy > k.YMax {
					k.YMax = posy
				}
			}
			for i := 0; i < k.XNrpts; i++ {
				v, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return err
				}
				kick[k.idx(i, j)] = v
			}
		}
		return nil
	}
	if err := readBlock(k.XKick, true); err != nil {
		return nil, fmt.Errorf("kicktable: %s: horizontal block: %w", filename, err)
	}
	if err := readBlock(k.YKick, false); err != nil {
		return nil, fmt.Errorf("kicktable: %s: vertical block: %w", filename, err)
	}

	return k, nil
}
