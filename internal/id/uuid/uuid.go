// Package uuid generates scan job identifiers.
package uuid

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator issues time-ordered UUIDv7 job IDs. The time prefix keeps
// job rows naturally sorted by submission.
type Generator struct{}

// NewUUIDGenerator returns a Generator.
func NewUUIDGenerator() *Generator {
	return &Generator{}
}

// NewID returns a fresh UUIDv7 string.
func (Generator) NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate job id: %w", err)
	}
	return id.String(), nil
}
