// Package digest computes the chained batch digest.
//
// The digest is a single forward pass over the document sequence: each
// step hashes the previous accumulator's hex text concatenated with the
// document's canonical JSON, and the final accumulator text is hashed
// once more. Changing, dropping, or reordering any document changes
// every downstream accumulator and therefore the result.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/starford/audita/internal/models"
)

// Version identifies the chaining algorithm. Digests produced by
// different versions are not comparable; stored and anchored digests
// remain verifiable only against the version that produced them.
const Version = 1

// Sum returns the chained SHA-256 digest of the documents in order.
// Canonical JSON is encoding/json marshalling, which renders object
// keys in sorted order, so the same document always serializes to the
// same bytes.
func Sum(docs []models.Document) (models.Digest, error) {
	acc := ""
	for i, doc := range docs {
		raw, err := json.Marshal(doc)
		if err != nil {
			return models.Digest{}, fmt.Errorf("digest: marshal document %d: %w", i, err)
		}
		h := sha256.Sum256(append([]byte(acc), raw...))
		acc = hex.EncodeToString(h[:])
	}
	return models.Digest(sha256.Sum256([]byte(acc))), nil
}
