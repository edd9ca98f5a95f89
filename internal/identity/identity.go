// Package identity derives the 32 character hex identifiers the platform uses as
// primary keys. Ids derived from business keys are stable, so re-sending the same
// payload upserts the same rows without a prior lookup.
package identity

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

var validID = regexp.MustCompile(`^[0-9a-f]{32}$`)

// FromKey returns the lowercase hex MD5 of key.
func FromKey(key string) string {
	sum := md5.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}

// FromCode slugifies a human readable code before hashing it, so "Red Shirts"
// and "red-shirts" map to the same id.
func FromCode(code string) string {
	return FromKey(Slug(code))
}

// Slug normalises a human readable code.
func Slug(s string) string {
	return slug.Make(strings.TrimSpace(s))
}

// Combine XORs two equal-length hex ids byte by byte. The result is
// order independent and is used for join rows such as product media.
func Combine(a, b string) (string, error) {
	ab, err := hex.DecodeString(a)
	if err != nil {
		return "", fmt.Errorf("invalid hex id %q: %w", a, err)
	}
	bb, err := hex.DecodeString(b)
	if err != nil {
		return "", fmt.Errorf("invalid hex id %q: %w", b, err)
	}
	if len(ab) != len(bb) {
		return "", fmt.Errorf("cannot combine ids of different length (%d, %d)", len(ab), len(bb))
	}

	out := make([]byte, len(ab))
	for i := range ab {
		out[i] = ab[i] ^ bb[i]
	}
	return hex.EncodeToString(out), nil
}

// MustCombine is Combine for ids produced by this package.
func MustCombine(a, b string) string {
	id, err := Combine(a, b)
	if err != nil {
		panic(err)
	}
	return id
}

// Random returns a random id for rows that have no business key.
func Random() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// IsValid reports whether id has the platform's identifier shape.
func IsValid(id string) bool {
	return validID.MatchString(id)
}
