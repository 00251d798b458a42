package identity

import "errors"

var (
	// ErrNotFound is returned when an identity cannot be resolved.
	ErrNotFound = errors.New("identity not found")
)

// Identity is a directory entry. Groups cannot log in and disabled
// identities fail token validation.
type Identity struct {
	ID       string
	Path     string
	Group    bool
	Disabled bool
}

// Loginable reports whether tokens may be issued for or validated against
// this identity.
func (i *Identity) Loginable() bool {
	return i != nil && !i.Group && !i.Disabled
}

// Directory resolves identities. It is owned by an external user directory;
// implementations wrap whatever backs it.
type Directory interface {
	// ByID resolves an identity by its stable identifier.
	ByID(id string) (*Identity, error)

	// ByPath resolves an identity by its node path in the shared tree.
	ByPath(path string) (*Identity, error)
}
