// Package flatfile reads and writes accelerators in the line-oriented
// flat-file lattice format, and ingests the legacy tracy format.
package flatfile

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/askival/ringtrack/internal/lattice"
)

// ErrFlatFile indicates a malformed lattice file. Failed loads leave no
// partial state behind: Read only returns an accelerator on success.
var ErrFlatFile = errors.New("flatfile: malformed flat file")

// Read parses a flat file into a fresh accelerator. Kicktable elements
// load their tables into the accelerator's registry from
// "<fam_name>.txt" in the working directory.
func Read(filename string) (*lattice.Accelerator, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	acc := lattice.NewAccelerator(0)
	e := lattice.NewElement("", 0)
	foundHMin := false
	foundVMin := false

	for lineNr, raw := range strings.Split(string(data), "\n") {
		fields := strings.Fields(raw)
		if len(fields) == 0 {
			continue
		}
		cmd := fields[0]
		if strings.HasPrefix(cmd, "#") {
			continue
		}
		if strings.HasPrefix(cmd, "%") {
			if err := readGlobal(fields, acc); err != nil {
				return nil, fmt.Errorf("%w: line %d: %w", ErrFlatFile, lineNr+1, err)
			}
			continue
		}
		if cmd == "fam_name" {
			if e.FamName != "" {
				acc.Lattice = append(acc.Lattice, e)
				e = lattice.NewElement("", 0)
			}
			if len(fields) > 1 {
				e.FamName = fields[1]
			}
			continue
		}
		ok, err := readElementKey(cmd, fields[1:], &e, acc, &foundHMin, &foundVMin)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrFlatFile, lineNr+1, err)
		}
		if ok {
			continue
		}
		if len(strings.TrimSpace(raw)) < 2 {
			continue
		}
		return nil, fmt.Errorf("%w: line %d: unknown key %q", ErrFlatFile, lineNr+1, cmd)
	}

	if e.FamName != "" {
		acc.Lattice = append(acc.Lattice, e)
	}
	return acc, nil
}

func readGlobal(fields []string, acc *lattice.Accelerator) error {
	// both "% key value" and "%key value" appear in the wild
	var key string
	rest := fields[1:]
	if fields[0] == "%" {
		if len(fields) < 2 {
			return nil
		}
		key = fields[1]
		rest = fields[2:]
	} else {
		key = strings.TrimPrefix(fields[0], "%")
	}
	if len(rest) == 0 {
		return nil
	}
	switch key {
	case "energy":
		v, err := strconv.ParseFloat(rest[0], 64)
		if err != nil {
			return err
		}
		acc.Energy = v
	case "harmonic_number":
		v, err := strconv.Atoi(rest[0])
		if err != nil {
			return err
		}
		acc.HarmonicNumber = v
	case "cavity_on":
		acc.CavityOn = rest[0] == "true"
	case "radiation_on":
		acc.RadiationOn = rest[0] == "true"
	case "vchamber_on":
		acc.VChamberOn = rest[0] == "true"
	}
	return nil
}

func readElementKey(cmd string, args []string, e *lattice.Element, acc *lattice.Accelerator, foundHMin, foundVMin *bool) (bool, error) {
	scalar := func(dst *float64) (bool, error) {
		if len(args) == 0 {
			return false, fmt.Errorf("%s: missing value", cmd)
		}
		v, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return false, err
		}
		*dst = v
		return true, nil
	}

	switch cmd {
	case "length":
		return scalar(&e.Length)
	case "hmin":
		*foundHMin = true
		return scalar(&e.HMin)
	case "hmax":
		ok, err := scalar(&e.HMax)
		if err == nil && !*foundHMin {
			e.HMin = -e.HMax
		}
		*foundHMin = false
		return ok, err
	case "vmin":
		*foundVMin = true
		return scalar(&e.VMin)
	case "vmax":
		ok, err := scalar(&e.VMax)
		if err == nil && !*foundVMin {
			e.VMin = -e.VMax
		}
		*foundVMin = false
		return ok, err
	case "hkick":
		return scalar(&e.HKick)
	case "vkick":
		return scalar(&e.VKick)
	case "nr_steps":
		if len(args) == 0 {
			return false, fmt.Errorf("nr_steps: missing value")
		}
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return false, err
		}
		e.NrSteps = v
		return true, nil
	case "angle":
		return scalar(&e.Angle)
	case "angle_in":
		return scalar(&e.AngleIn)
	case "angle_out":
		return scalar(&e.AngleOut)
	case "gap":
		return scalar(&e.Gap)
	case "fint_in":
		return scalar(&e.FintIn)
	case "fint_out":
		return scalar(&e.FintOut)
	case "thin_KL":
		return scalar(&e.ThinKL)
	case "thin_SL":
		return scalar(&e.ThinSL)
	case "voltage":
		return scalar(&e.Voltage)
	case "frequency":
		return scalar(&e.Frequency)
	case "t_in":
		return readSixVector(args, e.TIn[:])
	case "t_out":
		return readSixVector(args, e.TOut[:])
	case "pass_method":
		if len(args) == 0 {
			return false, fmt.Errorf("pass_method: missing value")
		}
		pm, err := lattice.ParsePassMethod(args[0])
		if err != nil {
			return false, err
		}
		e.PassMethod = pm
		if pm == lattice.KicktablePass {
			h, err := acc.Kicktables.Add(e.FamName + ".txt")
			if err != nil {
				return false, err
			}
			e.Kicktable = h
		}
		return true, nil
	case "polynom_a":
		return readPolynom(args, e, true)
	case "polynom_b":
		return readPolynom(args, e, false)
	}

	if row, matrix, ok := rMatrixRow(cmd); ok {
		return readSixVector(args, matrixRow(e, matrix, row))
	}
	return false, nil
}

var rRowNames = [6]string{"rx", "px", "ry", "py", "de", "dl"}

func rMatrixRow(cmd string) (row int, out bool, ok bool) {
	name, matrix, found := strings.Cut(cmd, "|")
	if !found {
		return 0, false, false
	}
	for i, n := range rRowNames {
		if n == name {
			switch matrix {
			case "r_in":
				return i, false, true
			case "r_out":
				return i, true, true
			}
		}
	}
	return 0, false, false
}

func matrixRow(e *lattice.Element, out bool, row int) []float64 {
	if out {
		return e.ROut[row*6 : row*6+6]
	}
	return e.RIn[row*6 : row*6+6]
}

func readSixVector(args []string, dst []float64) (bool, error) {
	if len(args) < 6 {
		return false, fmt.Errorf("expected 6 values, got %d", len(args))
	}
	for i := 0; i < 6; i++ {
		v, err := strconv.ParseFloat(args[i], 64)
		if err != nil {
			return false, err
		}
		dst[i] = v
	}
	return true, nil
}

// readPolynom parses sparse (order, value) pairs and re-synchronizes
// the two polynomial lengths.
func readPolynom(args []string, e *lattice.Element, skew bool) (bool, error) {
	if len(args)%2 != 0 {
		return false, fmt.Errorf("polynomial needs (order, value) pairs")
	}
	p := e.PolynomB
	if skew {
		p = e.PolynomA
	}
	for i := 0; i < len(args); i += 2 {
		order, err := strconv.Atoi(args[i])
		if err != nil {
			return false, err
		}
		v, err := strconv.ParseFloat(args[i+1], 64)
		if err != nil {
			return false, err
		}
		for len(p) <= order {
			p = append(p, 0)
		}
		p[order] = v
	}
	if skew {
		e.SetPolynoms(p, e.PolynomB)
	} else {
		e.SetPolynoms(e.PolynomA, p)
	}
	return true, nil
}
