package secret

import (
	"os"
	"strings"
)

// EnvStore implements SecretStore on environment variables named
// Prefix + upper-cased key, e.g. CASETRACK_REPOSITORY_PASSWORD.
type EnvStore struct {
	Prefix string
}

func (e *EnvStore) name(key string) string {
	return e.Prefix + strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
}

// Set exports the variable for the current process.
func (e *EnvStore) Set(key string, value []byte) error {
	return os.Setenv(e.name(key), string(value))
}

// Get returns the variable's value, or nil if it is unset.
func (e *EnvStore) Get(key string) ([]byte, error) {
	v, ok := os.LookupEnv(e.name(key))
	if !ok {
		return nil, nil
	}
	return []byte(v), nil
}

func (e *EnvStore) Delete(key string) error {
	return os.Unsetenv(e.name(key))
}
