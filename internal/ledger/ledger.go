// Package ledger defines the append-only ledger client surface and its
// implementations: an Ethereum smart-contract adapter and an in-memory
// stub for tests and local runs.
package ledger

import (
	"context"

	"github.com/starford/audita/internal/models"
)

// Ledger is the narrow client surface the anchoring stage drives. The
// nonce discipline lives above this interface: callers reserve nonces
// and pass them in, implementations submit at exactly that nonce.
// Implementations must be safe for concurrent use.
type Ledger interface {
	// PendingNonce returns the sender's next unused nonce, used once
	// to seed the anchorer's counter at startup.
	PendingNonce(ctx context.Context) (uint64, error)
	// Submit writes the fingerprint to the contract at the given
	// nonce and returns the transaction reference.
	Submit(ctx context.Context, fp models.Fingerprint, nonce uint64) (models.TxRef, error)
	// Confirmed reports whether the transaction has an inclusion
	// receipt. "Not yet included" is (false, nil), not an error.
	Confirmed(ctx context.Context, ref models.TxRef) (bool, error)
	// Cancel burns the given nonce with a zero-value self-transfer so
	// the sender's nonce sequence never stalls on an abandoned
	// submission.
	Cancel(ctx context.Context, nonce uint64) error
	// Digest returns the anchored digest for a batch id, or
	// apperr.ErrNotFound if the id was never anchored.
	Digest(ctx context.Context, id string) (models.Digest, error)
	// FindByID returns the full fingerprint record for a batch id, or
	// apperr.ErrNotFound.
	FindByID(ctx context.Context, id string) (models.Fingerprint, error)
}
