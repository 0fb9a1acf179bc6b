package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// SignatureSetHash computes a deterministic hash of a signature set.
// Formula: SHA256(sorted(signatures).join("")).
// Order and duplicates in the input do not affect the result.
func SignatureSetHash(signatures []string) string {
	uniq := make(map[string]struct{}, len(signatures))
	for _, s := range signatures {
		uniq[s] = struct{}{}
	}

	sorted := make([]string, 0, len(uniq))
	for s := range uniq {
		sorted = append(sorted, s)
	}
	sort.Strings(sorted)

	hash := sha256.Sum256([]byte(strings.Join(sorted, "")))
	return hex.EncodeToString(hash[:])
}
