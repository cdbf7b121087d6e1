package ledger

import (
	"context"
	"crypto/sha256"
	"strconv"
	"sync"

	"github.com/starford/audita/internal/apperr"
	"github.com/starford/audita/internal/models"
)

// Memory is an in-process Ledger used by tests and runs with the
// Ethereum backend disabled. Submissions confirm immediately.
type Memory struct {
	mu      sync.Mutex
	records map[string]models.Digest
	refs    map[models.TxRef]struct{}
	burned  []uint64
}

// NewMemory creates an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{
		records: make(map[string]models.Digest),
		refs:    make(map[models.TxRef]struct{}),
	}
}

// PendingNonce always seeds at zero.
func (m *Memory) PendingNonce(ctx context.Context) (uint64, error) {
	return 0, nil
}

// Submit records the fingerprint and returns a reference derived from
// the id and nonce.
func (m *Memory) Submit(ctx context.Context, fp models.Fingerprint, nonce uint64) (models.TxRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ref := models.TxRef(sha256.Sum256([]byte(fp.ID + ":" + strconv.FormatUint(nonce, 10))))
	m.records[fp.ID] = fp.Hash
	m.refs[ref] = struct{}{}
	return ref, nil
}

// Confirmed reports true for any reference produced by Submit.
func (m *Memory) Confirmed(ctx context.Context, ref models.TxRef) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.refs[ref]
	return ok, nil
}

// Cancel records the burned nonce.
func (m *Memory) Cancel(ctx context.Context, nonce uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.burned = append(m.burned, nonce)
	return nil
}

// Digest returns the recorded digest for a batch id.
func (m *Memory) Digest(ctx context.Context, id string) (models.Digest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.records[id]
	if !ok {
		return models.Digest{}, apperr.ErrNotFound
	}
	return d, nil
}

// FindByID returns the recorded fingerprint for a batch id.
func (m *Memory) FindByID(ctx context.Context, id string) (models.Fingerprint, error) {
	d, err := m.Digest(ctx, id)
	if err != nil {
		return models.Fingerprint{}, err
	}
	return models.Fingerprint{ID: id, Hash: d}, nil
}

// Burned returns the nonces consumed by Cancel, in call order.
func (m *Memory) Burned() []uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]uint64, len(m.burned))
	copy(out, m.burned)
	return out
}
