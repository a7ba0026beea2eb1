package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// RunID identifies one pipeline run
type RunID ID

func (id RunID) String() string { return ID(id).String() }

// runNamespace scopes name-based run IDs to this tool
var runNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("churnlens/run"))

// NewRunID derives a name-based (v5) UUID from the input and config hashes, so
// the same input under the same configuration always gets the same run ID.
func NewRunID(input InputHash, config ConfigHash) RunID {
	name := input.String() + ":" + config.String()
	return RunID(uuid.NewSHA1(runNamespace, []byte(name)).String())
}

// ParseRunID parses a string into RunID
func ParseRunID(s string) (RunID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("run ID cannot be empty")
	}
	if _, err := uuid.Parse(s); err != nil {
		return "", fmt.Errorf("run ID %q is not a UUID: %w", s, err)
	}
	return RunID(s), nil
}
