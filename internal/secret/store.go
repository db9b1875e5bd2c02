package secret

import "fmt"

// SecretStore provides a pluggable interface for storing sensitive data
// such as database passwords. Passwords come from the environment or the macOS Keychain,
// and the store can be swapped for others such as Vault.
type SecretStore interface {
	// Set stores a secret value under the given key.
	Set(key string, value []byte) error

	// Get retrieves the secret value for the given key.
	// Returns empty slice and nil error if key does not exist.
	Get(key string) ([]byte, error)

	// Delete removes the secret for the given key.
	Delete(key string) error
}

// Open returns the store named by source: "env" (the default) or "keychain".
func Open(source string) (SecretStore, error) {
	switch source {
	case "", "env":
		return &EnvStore{Prefix: "CASETRACK_"}, nil
	case "keychain":
		return NewKeychainStore(), nil
	default:
		return nil, fmt.Errorf("unknown secret store %q", source)
	}
}
