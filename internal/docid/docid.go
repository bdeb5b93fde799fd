// Package docid provides deterministic document and chunk IDs derived from source URLs.
package docid

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
)

const prefix = "url:"

// FromURL returns a stable document ID for rawURL. The scheme and host are lowercased
// and the fragment dropped, so the same page always yields the same ID.
func FromURL(rawURL string) string {
	normalized := strings.TrimSpace(rawURL)
	if u, err := url.Parse(normalized); err == nil {
		u.Scheme = strings.ToLower(u.Scheme)
		u.Host = strings.ToLower(u.Host)
		u.Fragment = ""
		normalized = u.String()
	}
	hash := sha256.Sum256([]byte(normalized))
	return prefix + hex.EncodeToString(hash[:12])
}

// Chunk returns the ID of the chunk at ordinal within document docID.
func Chunk(docID string, ordinal int) string {
	return fmt.Sprintf("%s#%d", docID, ordinal)
}
