// Package anchor implements the ledger anchoring state machine:
// admission control, nonce allocation, bounded submission retry,
// confirmation polling, and nonce-burn cancellation.
package anchor

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/starford/audita/internal/apperr"
	"github.com/starford/audita/internal/ledger"
	"github.com/starford/audita/internal/models"
)

const (
	maxAttempts  = 3
	retryBackoff = 100 * time.Millisecond
	pollInterval = 500 * time.Millisecond
)

// Anchorer publishes batch fingerprints to the ledger. The nonce
// counter and the pending-submission semaphore are shared by every
// signer instance, so nonces come out strictly sequential no matter how
// many goroutines publish concurrently.
type Anchorer struct {
	ledger  ledger.Ledger
	nonce   atomic.Uint64
	pending *semaphore.Weighted

	backoff time.Duration
	poll    time.Duration
}

// New seeds the nonce counter from the ledger and bounds the number of
// unconfirmed submissions at maxPending.
func New(ctx context.Context, l ledger.Ledger, maxPending int) (*Anchorer, error) {
	nonce, err := l.PendingNonce(ctx)
	if err != nil {
		return nil, fmt.Errorf("anchor: seed nonce: %w", err)
	}
	a := &Anchorer{
		ledger:  l,
		pending: semaphore.NewWeighted(int64(maxPending)),
		backoff: retryBackoff,
		poll:    pollInterval,
	}
	a.nonce.Store(nonce)
	return a, nil
}

// Publish anchors one fingerprint. It admits the submission under the
// pending limit, reserves the next nonce, retries the contract call up
// to maxAttempts times with linearly growing backoff on that same
// nonce, then polls for the inclusion receipt every pollInterval until
// found. If every attempt fails, the reserved nonce is burned with a
// cancellation transaction and the original failure is surfaced.
//
// Confirmation polling has no deadline of its own: an unreachable
// ledger keeps this call (and its semaphore permit) blocked until ctx
// is cancelled.
func (a *Anchorer) Publish(ctx context.Context, fp models.Fingerprint) error {
	if err := a.pending.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("anchor: admission: %w", err)
	}
	defer a.pending.Release(1)

	// The nonce is reserved for this batch regardless of outcome.
	nonce := a.nonce.Add(1) - 1

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		ref, err := a.ledger.Submit(ctx, fp, nonce)
		if err == nil {
			return a.confirm(ctx, ref)
		}
		lastErr = err

		// No point backing off after the last attempt; go straight to
		// the nonce burn.
		if attempt == maxAttempts {
			break
		}
		select {
		case <-time.After(time.Duration(attempt) * a.backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := a.ledger.Cancel(ctx, nonce); err != nil {
		return fmt.Errorf("anchor: burn nonce %d: %w", nonce, err)
	}
	return fmt.Errorf("anchor: submit %s after %d attempts: %v: %w", fp.ID, maxAttempts, lastErr, apperr.ErrExhausted)
}

func (a *Anchorer) confirm(ctx context.Context, ref models.TxRef) error {
	ticker := time.NewTicker(a.poll)
	defer ticker.Stop()

	for {
		found, err := a.ledger.Confirmed(ctx, ref)
		if err != nil {
			return fmt.Errorf("anchor: confirm: %w", err)
		}
		if found {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Digest returns the anchored digest for a batch id.
func (a *Anchorer) Digest(ctx context.Context, id string) (models.Digest, error) {
	return a.ledger.Digest(ctx, id)
}

// FindByID returns the anchored fingerprint for a batch id.
func (a *Anchorer) FindByID(ctx context.Context, id string) (models.Fingerprint, error) {
	return a.ledger.FindByID(ctx, id)
}
