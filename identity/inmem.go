package identity

import (
	"fmt"
	"sync"
)

// InmemDirectory is an in-memory Directory for testing and development.
type InmemDirectory struct {
	mu     sync.RWMutex
	byID   map[string]*Identity
	byPath map[string]*Identity
}

var _ Directory = (*InmemDirectory)(nil)

// NewInmemDirectory creates an empty directory.
func NewInmemDirectory() *InmemDirectory {
	return &InmemDirectory{
		byID:   make(map[string]*Identity),
		byPath: make(map[string]*Identity),
	}
}

// Add registers an identity.
func (d *InmemDirectory) Add(ident *Identity) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.byID[ident.ID] = ident
	d.byPath[ident.Path] = ident
}

// SetDisabled toggles the disabled flag of a registered identity.
func (d *InmemDirectory) SetDisabled(id string, disabled bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	ident, ok := d.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	ident.Disabled = disabled
	return nil
}

func (d *InmemDirectory) ByID(id string) (*Identity, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if ident, ok := d.byID[id]; ok {
		return ident, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

func (d *InmemDirectory) ByPath(path string) (*Identity, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if ident, ok := d.byPath[path]; ok {
		return ident, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
}
