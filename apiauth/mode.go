package apiauth

import "fmt"

/* Mode controls how the authenticator behaves when no API key is
 * configured. It is decided once at startup from the deployment
 * environment, never inferred at request time: Strict fails closed,
 * PermissiveNoKey exists purely to ease local development.
 */
type Mode int

const (
	Strict Mode = iota + 1
	PermissiveNoKey
)

// String returns the string representation of the mode
func (m Mode) String() string {
	switch m {
	case Strict:
		return "strict"
	case PermissiveNoKey:
		return "permissive"
	default:
		return "unknown"
	}
}

// NewMode maps a deployment environment name to an auth mode. Anything
// that is not explicitly a development environment is strict.
func NewMode(env string) Mode {
	switch env {
	case "development", "dev", "local", "test":
		return PermissiveNoKey
	default:
		return Strict
	}
}

// Validate checks if the mode is valid
func (m Mode) Validate() error {
	if m != Strict && m != PermissiveNoKey {
		return fmt.Errorf("invalid auth mode: %d", m)
	}
	return nil
}
