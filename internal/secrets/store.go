// Package secrets implements the file-backed secret store consumed by the
// resolver. Each secret reference maps to one YAML document under the
// configured directory; how the secrets land there (agent install tooling,
// configuration management) is outside this package.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// notFoundError signals a reference with no backing secret file.
type notFoundError struct{ ref string }

func (e notFoundError) Error() string { return "secret not found: " + e.ref }

// IsNotFound reports whether err indicates a missing secret.
func IsNotFound(err error) bool {
	_, ok := err.(notFoundError)
	return ok
}

// Store resolves secret references against a directory of YAML documents.
type Store struct {
	dir string
}

// NewStore constructs a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Resolve returns the field map of the secret identified by ref. The
// reference must be a bare name; anything resembling a path is rejected so a
// crafted reference cannot escape the secrets directory.
func (s *Store) Resolve(ref string) (map[string]string, error) {
	if ref == "" || ref != filepath.Base(ref) {
		return nil, fmt.Errorf("invalid secret reference: %q", ref)
	}
	path := filepath.Join(s.dir, ref+".yaml")
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, notFoundError{ref: ref}
		}
		return nil, fmt.Errorf("reading secret %s: %w", ref, err)
	}
	var content map[string]string
	if err := yaml.Unmarshal(raw, &content); err != nil {
		return nil, fmt.Errorf("parsing secret %s: %w", ref, err)
	}
	return content, nil
}
