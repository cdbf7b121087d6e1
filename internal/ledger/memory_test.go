package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/starford/audita/internal/apperr"
	"github.com/starford/audita/internal/models"
)

func TestMemory_SubmitAndRead(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	fp := models.Fingerprint{ID: "batch-1", Hash: models.Digest{1, 2, 3}}
	ref, err := m.Submit(ctx, fp, 0)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	found, err := m.Confirmed(ctx, ref)
	if err != nil || !found {
		t.Fatalf("Confirmed = (%v, %v), want (true, nil)", found, err)
	}

	d, err := m.Digest(ctx, "batch-1")
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if d != fp.Hash {
		t.Errorf("digest = %s, want %s", d.Hex(), fp.Hash.Hex())
	}

	got, err := m.FindByID(ctx, "batch-1")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got != fp {
		t.Errorf("FindByID = %+v, want %+v", got, fp)
	}
}

func TestMemory_NotFound(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, err := m.Digest(ctx, "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Digest error = %v, want ErrNotFound", err)
	}
	if _, err := m.FindByID(ctx, "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("FindByID error = %v, want ErrNotFound", err)
	}
}

func TestMemory_CancelRecordsBurnedNonces(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_ = m.Cancel(ctx, 3)
	_ = m.Cancel(ctx, 7)

	burned := m.Burned()
	if len(burned) != 2 || burned[0] != 3 || burned[1] != 7 {
		t.Errorf("Burned = %v, want [3 7]", burned)
	}
}
