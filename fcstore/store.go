// Package fcstore persists serialized flowcanvas documents by name.
package fcstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrNotFound = errors.New("document not found")

// Store holds serialized fcgraph documents keyed by name.
type Store interface {
	Load(ctx context.Context, name string) ([]byte, error)
	Save(ctx context.Context, name string, b []byte) error
	Delete(ctx context.Context, name string) error
	// List returns every stored name in ascending order.
	List(ctx context.Context) ([]string, error)
	Close() error
}

// ValidateName rejects names that cannot be used as a file name or key suffix.
func ValidateName(name string) error {
	switch {
	case name == "":
		return errors.New("document name is empty")
	case name == "." || name == "..":
		return fmt.Errorf("invalid document name %q", name)
	case strings.ContainsAny(name, `/\`+"\x00"):
		return fmt.Errorf("document name %q contains a path separator", name)
	}
	return nil
}
