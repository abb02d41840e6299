package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"chamapay/internal/config"
	"chamapay/internal/model"
	"chamapay/internal/repository"
)

// Two concurrent edits of the same record must each compute their ledger
// delta from the stored row, not from a snapshot taken before the lock.
// Both editing to the same amount therefore nets out to a single adjustment.
func TestTransactionUpdateConcurrent(t *testing.T) {
	db := openTestDB(t)
	svc := NewTransactionService(db, testRedis(t), &config.Config{})
	ctx := context.Background()

	chama := activeChama(t, db, 0)
	created, err := svc.Create(ctx, chama.ID, 1, &TransactionRequest{
		Type:        model.TransactionTypeIncome,
		Amount:      10000,
		Description: "harambee proceeds",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Update(ctx, chama.ID, created.ID, 1, &TransactionRequest{
				Type:        model.TransactionTypeIncome,
				Amount:      3000,
				Description: "harambee proceeds, corrected",
			})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("update %d failed: %v", i, err)
		}
	}

	var gotChama model.Chama
	if err := db.First(&gotChama, chama.ID).Error; err != nil {
		t.Fatalf("failed to reload chama: %v", err)
	}
	if gotChama.CurrentBalance != 3000 {
		t.Errorf("chama balance = %d, want 3000", gotChama.CurrentBalance)
	}

	var got model.ChamaTransaction
	if err := db.First(&got, created.ID).Error; err != nil {
		t.Fatalf("failed to reload transaction: %v", err)
	}
	if got.Amount != 3000 {
		t.Errorf("amount = %d, want 3000", got.Amount)
	}
}

// Deleting the same record twice reverses its effect exactly once; the
// loser observes the record as already gone.
func TestTransactionDeleteConcurrent(t *testing.T) {
	db := openTestDB(t)
	svc := NewTransactionService(db, testRedis(t), &config.Config{})
	ctx := context.Background()

	chama := activeChama(t, db, 0)
	created, err := svc.Create(ctx, chama.ID, 1, &TransactionRequest{
		Type:        model.TransactionTypeIncome,
		Amount:      5000,
		Description: "fines collected",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = svc.Delete(ctx, chama.ID, created.ID, 1)
		}(i)
	}
	wg.Wait()

	var deleted, missing int
	for _, err := range errs {
		switch {
		case err == nil:
			deleted++
		case errors.Is(err, repository.ErrTransactionNotFound):
			missing++
		default:
			t.Fatalf("unexpected delete error: %v", err)
		}
	}
	if deleted != 1 || missing != 1 {
		t.Fatalf("deleted=%d missing=%d, want exactly one of each", deleted, missing)
	}

	var gotChama model.Chama
	if err := db.First(&gotChama, chama.ID).Error; err != nil {
		t.Fatalf("failed to reload chama: %v", err)
	}
	if gotChama.CurrentBalance != 0 {
		t.Errorf("chama balance = %d, want 0", gotChama.CurrentBalance)
	}
}
