package kicktable

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

const testTable = `test kicktable
generated for unit tests
ID length[m]
1.5
number of horizontal points
3
number of vertical points
3
Horizontal KickTable in T^2.m^2
START
-0.01 0.0 0.01
0.01  1e-6 2e-6 3e-6
0.0   4e-6 5e-6 6e-6
-0.01 7e-6 8e-6 9e-6
Vertical KickTable in T^2.m^2
START
-0.01 0.0 0.01
0.01  -1e-6 -2e-6 -3e-6
0.0   -4e-6 -5e-6 -6e-6
-0.01 -7e-6 -8e-6 -9e-6
`

func writeTestTable(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "id.txt")
	if err := os.WriteFile(path, []byte(testTable), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	k, err := Load(writeTestTable(t))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if k.Length != 1.5 {
		t.Errorf("length = %f, want 1.5", k.Length)
	}
	if k.XNrpts != 3 || k.YNrpts != 3 {
		t.Errorf("grid = %dx%d, want 3x3", k.XNrpts, k.YNrpts)
	}
	if k.XMin != -0.01 || k.XMax != 0.01 || k.YMin != -0.01 || k.YMax != 0.01 {
		t.Errorf("range = [%f %f]x[%f %f]", k.XMin, k.XMax, k.YMin, k.YMax)
	}
}

func TestGetKicksAtNodes(t *testing.T) {
	k, err := Load(writeTestTable(t))
	if err != nil {
		t.Fatal(err)
	}

	// grid centre
	hk, vk, err := k.GetKicks(0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(hk-5e-6) > 1e-18 || math.Abs(vk+5e-6) > 1e-18 {
		t.Errorf("centre kicks = %g %g, want 5e-6 -5e-6", hk, vk)
	}

	// top-right corner
	hk, _, err = k.GetKicks(0.01, 0.01)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(hk-3e-6) > 1e-18 {
		t.Errorf("corner kick = %g, want 3e-6", hk)
	}
}

func TestGetKicksInterpolates(t *testing.T) {
	k, err := Load(writeTestTable(t))
	if err != nil {
		t.Fatal(err)
	}
	// halfway between centre (5e-6) and right neighbour (6e-6)
	hk, _, err := k.GetKicks(0.005, 0)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(hk-5.5e-6) > 1e-18 {
		t.Errorf("interpolated kick = %g, want 5.5e-6", hk)
	}
}

func TestGetKicksOutOfRange(t *testing.T) {
	k, err := Load(writeTestTable(t))
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := k.GetKicks(0.02, 0); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
	if _, _, err := k.GetKicks(0, -0.02); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
}

func TestRegistryDeduplicates(t *testing.T) {
	path := writeTestTable(t)
	r := NewRegistry()

	h1, err := r.Add(path)
	if err != nil {
		t.Fatal(err)
	}
	h2, err := r.Add(path)
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 {
		t.Errorf("same file produced different handles: %d %d", h1, h2)
	}
	if r.Len() != 1 {
		t.Errorf("registry has %d tables, want 1", r.Len())
	}
}

func TestRegistryMissingFile(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Add(filepath.Join(t.TempDir(), "absent.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestEqual(t *testing.T) {
	path := writeTestTable(t)
	a, _ := Load(path)
	b, _ := Load(path)
	if !a.Equal(b) {
		t.Error("identical tables compare unequal")
	}
	b.XKick[0] += 1e-9
	if a.Equal(b) {
		t.Error("modified table compares equal")
	}
}
