package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// Domain-specific hash types
type (
	ConfigHash Hash
	GraphHash  Hash
)

// Constructors
func NewConfigHash(data []byte) ConfigHash { return ConfigHash(NewHash(data)) }
func NewGraphHash(data []byte) GraphHash   { return GraphHash(NewHash(data)) }

// String conversions
func (h ConfigHash) String() string { return Hash(h).String() }
func (h GraphHash) String() string  { return Hash(h).String() }

// CanonicalMapString renders a string-keyed map as "k=v;" pairs in sorted key
// order. Hashes built over it are stable across process runs and map iteration
// order.
func CanonicalMapString(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(m[k])
		b.WriteString(";")
	}
	return b.String()
}

// CanonicalFloatMapString is CanonicalMapString for float-valued maps.
// Values are rendered with %.17g so the representation round-trips float64.
func CanonicalFloatMapString(m map[string]float64) string {
	conv := make(map[string]string, len(m))
	for k, v := range m {
		conv[k] = fmt.Sprintf("%.17g", v)
	}
	return CanonicalMapString(conv)
}
