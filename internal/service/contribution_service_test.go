package service

import (
	"context"
	"testing"

	"chamapay/internal/config"
	"chamapay/internal/infrastructure/mpesa"
	"chamapay/internal/model"
)

// A callback replay for a contribution that already reached a terminal
// status is acknowledged without touching the ledger again.
func TestHandleCallbackReplayIsNoOp(t *testing.T) {
	db := openTestDB(t)
	svc := NewContributionService(db, testRedis(t), &config.Config{}, nil)
	ctx := context.Background()

	chama := activeChama(t, db, 7000)
	checkout := "ws_CO_replay_1"
	contribution := &model.Contribution{
		ContributionNo:    "CT-TEST-1",
		ChamaID:           chama.ID,
		UserID:            2,
		Amount:            7000,
		Method:            model.PaymentMethodMpesa,
		Status:            model.ContributionStatusConfirmed,
		CheckoutRequestID: &checkout,
	}
	if err := db.Create(contribution).Error; err != nil {
		t.Fatalf("failed to seed contribution: %v", err)
	}

	err := svc.HandleCallback(ctx, &mpesa.StkCallback{
		CheckoutRequestID: checkout,
		ResultCode:        0,
		ResultDesc:        "The service request is processed successfully.",
	})
	if err != nil {
		t.Fatalf("replayed callback returned error: %v", err)
	}

	var gotChama model.Chama
	if err := db.First(&gotChama, chama.ID).Error; err != nil {
		t.Fatalf("failed to reload chama: %v", err)
	}
	if gotChama.CurrentBalance != 7000 {
		t.Errorf("chama balance = %d, want 7000 (replay must not credit twice)", gotChama.CurrentBalance)
	}

	var got model.Contribution
	if err := db.First(&got, contribution.ID).Error; err != nil {
		t.Fatalf("failed to reload contribution: %v", err)
	}
	if got.Status != model.ContributionStatusConfirmed {
		t.Errorf("status = %s, want %s", got.Status, model.ContributionStatusConfirmed)
	}
}

// A failure callback on an already confirmed contribution must not move it
// out of its terminal state.
func TestHandleCallbackFailureAfterConfirmIsNoOp(t *testing.T) {
	db := openTestDB(t)
	svc := NewContributionService(db, testRedis(t), &config.Config{}, nil)
	ctx := context.Background()

	chama := activeChama(t, db, 5000)
	checkout := "ws_CO_replay_2"
	contribution := &model.Contribution{
		ContributionNo:    "CT-TEST-2",
		ChamaID:           chama.ID,
		UserID:            2,
		Amount:            5000,
		Method:            model.PaymentMethodMpesa,
		Status:            model.ContributionStatusConfirmed,
		CheckoutRequestID: &checkout,
	}
	if err := db.Create(contribution).Error; err != nil {
		t.Fatalf("failed to seed contribution: %v", err)
	}

	err := svc.HandleCallback(ctx, &mpesa.StkCallback{
		CheckoutRequestID: checkout,
		ResultCode:        1032,
		ResultDesc:        "Request cancelled by user",
	})
	if err != nil {
		t.Fatalf("late failure callback returned error: %v", err)
	}

	var got model.Contribution
	if err := db.First(&got, contribution.ID).Error; err != nil {
		t.Fatalf("failed to reload contribution: %v", err)
	}
	if got.Status != model.ContributionStatusConfirmed {
		t.Errorf("status = %s, want %s", got.Status, model.ContributionStatusConfirmed)
	}
}
