package hashutil

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
)

// Func hashes a string to a lowercase hex digest.
type Func func(s string) string

// New returns a hex-digest hash function for the named algorithm.
// supported: "md5", "sha1", "sha256".
func New(algorithm string) (Func, error) {
	var constructor func() hash.Hash
	switch algorithm {
	case "", "md5":
		constructor = md5.New
	case "sha1":
		constructor = sha1.New
	case "sha256":
		constructor = sha256.New
	default:
		return nil, fmt.Errorf("unknown hash algorithm: %q", algorithm)
	}

	return func(s string) string {
		h := constructor()
		h.Write([]byte(s))
		return hex.EncodeToString(h.Sum(nil))
	}, nil
}
