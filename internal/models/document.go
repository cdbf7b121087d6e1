// Package models defines the domain types for Audita.
package models

import (
	"encoding/hex"
	"fmt"
)

// Document is an opaque JSON object submitted for batching. It is
// immutable once admitted to a batch: ownership moves through the
// pipeline queues, it is never shared mutable.
type Document map[string]any

// DocumentStorable is a Document annotated with its owning batch and
// its zero-based position inside that batch. For a given batch the Ord
// values are contiguous from 0. Created once by the batching stage and
// never mutated afterwards.
type DocumentStorable struct {
	BatchID string   `json:"batch_id"`
	Ord     int      `json:"ord"`
	Doc     Document `json:"doc"`
}

// Batch is an immutable ordered group of documents plus their combined
// digest. It is built once by the batching stage and shared read-only
// by the signer and storage stages.
type Batch struct {
	ID        string     `json:"id"`
	Documents []Document `json:"documents"`
	Digest    Digest     `json:"digest"`
}

// Fingerprint is the anchoring stage's view of a batch: the (id, hash)
// pair written to the ledger.
type Fingerprint struct {
	ID   string `json:"id"`
	Hash Digest `json:"hash"`
}

// TxRef identifies a ledger transaction produced by a submission.
type TxRef [32]byte

// Digest is a 32-byte batch fingerprint. Equality is byte-wise; the
// canonical textual form is lowercase hex.
type Digest [32]byte

// Hex returns the canonical lowercase-hex rendering of the digest.
func (d Digest) Hex() string {
	return hex.EncodeToString(d[:])
}

// DigestFromHex parses the canonical hex rendering back into a Digest.
func DigestFromHex(s string) (Digest, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Digest{}, fmt.Errorf("models: decode digest: %w", err)
	}
	if len(raw) != 32 {
		return Digest{}, fmt.Errorf("models: digest must be 32 bytes, got %d", len(raw))
	}
	var d Digest
	copy(d[:], raw)
	return d, nil
}

// DigestFromSlice copies a 32-byte slice into a Digest.
func DigestFromSlice(b []byte) (Digest, error) {
	if len(b) != 32 {
		return Digest{}, fmt.Errorf("models: digest must be 32 bytes, got %d", len(b))
	}
	var d Digest
	copy(d[:], b)
	return d, nil
}
