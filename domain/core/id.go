package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	MethodID   ID
	InstanceID ID
	GraphID    ID
)

// String conversions for domain IDs
func (id MethodID) String() string   { return ID(id).String() }
func (id InstanceID) String() string { return ID(id).String() }
func (id GraphID) String() string    { return ID(id).String() }

// ParseMethodID parses a string into MethodID
func ParseMethodID(s string) (MethodID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("method ID cannot be empty")
	}
	return MethodID(s), nil
}

// ParseInstanceID parses a string into InstanceID
func ParseInstanceID(s string) (InstanceID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("instance ID cannot be empty")
	}
	return InstanceID(s), nil
}

// ParseGraphID parses a string into GraphID
func ParseGraphID(s string) (GraphID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("graph ID cannot be empty")
	}
	return GraphID(s), nil
}
