package kicktable

// Registry is an append-only arena of loaded kick maps, deduplicated by
// filename. Handles are indices into the arena and stay stable for the
// life of the registry.
type Registry struct {
	tables []*Kicktable
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add loads filename into the registry, or returns the existing handle
// if a table with that filename was loaded before.
func (r *Registry) Add(filename string) (Handle, error) {
	for i, t := range r.tables {
		if t.Filename == filename {
			return Handle(i), nil
		}
	}
	t, err := Load(filename)
	if err != nil {
		return None, err
	}
	r.tables = append(r.tables, t)
	return Handle(len(r.tables) - 1), nil
}

// Table returns the table for h, or nil for None or an unknown handle.
func (r *Registry) Table(h Handle) *Kicktable {
	if h < 0 || int(h) >= len(r.tables) {
		return nil
	}
	return r.tables[h]
}

// Interpolate evaluates the kicks of table h at (x, y).
func (r *Registry) Interpolate(h Handle, x, y float64) (hkick, vkick float64, err error) {
	t := r.Table(h)
	if t == nil {
		return 0, 0, ErrOutOfRange
	}
	return t.GetKicks(x, y)
}

// Len reports the number of loaded tables.
func (r *Registry) Len() int { return len(r.tables) }
