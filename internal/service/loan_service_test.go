package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"chamapay/internal/config"
	"chamapay/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB opens a throwaway sqlite database with the production gorm
// configuration (error translation on) and the full schema migrated.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to unwrap test db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	err = db.AutoMigrate(
		&model.Chama{},
		&model.ChamaMember{},
		&model.Contribution{},
		&model.Loan{},
		&model.LoanGuarantor{},
		&model.ChamaTransaction{},
		&model.AuditLog{},
		&model.OutboxMessage{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test schema: %v", err)
	}
	return db
}

// testRedis backs the per-chama lock with an in-process redis.
func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func activeChama(t *testing.T, db *gorm.DB, balance int64) *model.Chama {
	t.Helper()
	chama := &model.Chama{
		Name:           "test-" + t.Name(),
		CreatorID:      1,
		Status:         model.ChamaStatusActive,
		OperationType:  model.OperationEqualSharing,
		CurrentBalance: balance,
	}
	if err := db.Create(chama).Error; err != nil {
		t.Fatalf("failed to seed chama: %v", err)
	}
	return chama
}

func addMember(t *testing.T, db *gorm.DB, chamaID, userID int64, role string) {
	t.Helper()
	member := &model.ChamaMember{
		ChamaID: chamaID,
		UserID:  userID,
		Role:    role,
		Status:  model.MemberStatusActive,
	}
	if err := db.Create(member).Error; err != nil {
		t.Fatalf("failed to seed member: %v", err)
	}
}

// Two repayments land at the same time and together cross the owed total.
// Whichever commits second must see the first payment and flip the loan to
// REPAID, not leave a fully paid loan ACTIVE.
func TestRepayConcurrentSettlement(t *testing.T) {
	db := openTestDB(t)
	svc := NewLoanService(db, testRedis(t), &config.Config{})
	ctx := context.Background()

	chama := activeChama(t, db, 0)
	loan := &model.Loan{
		LoanNo:         "LN-TEST-1",
		ChamaID:        chama.ID,
		UserID:         2,
		Amount:         10000,
		DurationMonths: 1,
		TotalExpected:  10000,
		Status:         model.LoanStatusActive,
	}
	if err := db.Create(loan).Error; err != nil {
		t.Fatalf("failed to seed loan: %v", err)
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Repay(ctx, chama.ID, loan.ID, 2, 6000)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("repayment %d failed: %v", i, err)
		}
	}

	var got model.Loan
	if err := db.First(&got, loan.ID).Error; err != nil {
		t.Fatalf("failed to reload loan: %v", err)
	}
	if got.TotalPaid != 12000 {
		t.Errorf("total paid = %d, want 12000", got.TotalPaid)
	}
	if got.Status != model.LoanStatusRepaid {
		t.Errorf("status = %s, want %s", got.Status, model.LoanStatusRepaid)
	}
	if got.RepaidAt == nil {
		t.Error("repaid_at not set on settled loan")
	}

	var gotChama model.Chama
	if err := db.First(&gotChama, chama.ID).Error; err != nil {
		t.Fatalf("failed to reload chama: %v", err)
	}
	if gotChama.CurrentBalance != 12000 {
		t.Errorf("chama balance = %d, want 12000", gotChama.CurrentBalance)
	}
}

func TestRequestRejectsDuplicateGuarantor(t *testing.T) {
	db := openTestDB(t)
	svc := NewLoanService(db, testRedis(t), &config.Config{})
	ctx := context.Background()

	chama := activeChama(t, db, 0)
	addMember(t, db, chama.ID, 1, model.MemberRoleMember)
	addMember(t, db, chama.ID, 2, model.MemberRoleMember)

	_, err := svc.Request(ctx, chama.ID, 1, &LoanRequest{
		Amount:         5000,
		DurationMonths: 1,
		GuarantorIDs:   []int64{2, 2},
	})
	if !errors.Is(err, ErrDuplicateGuarantor) {
		t.Fatalf("request = %v, want ErrDuplicateGuarantor", err)
	}
}

func TestRequestNotifiesOfficials(t *testing.T) {
	db := openTestDB(t)
	svc := NewLoanService(db, testRedis(t), &config.Config{})
	ctx := context.Background()

	chama := activeChama(t, db, 0)
	addMember(t, db, chama.ID, 1, model.MemberRoleMember)
	addMember(t, db, chama.ID, 2, model.MemberRoleMember)
	addMember(t, db, chama.ID, 3, model.MemberRoleChairperson)
	addMember(t, db, chama.ID, 4, model.MemberRoleTreasurer)

	loan, err := svc.Request(ctx, chama.ID, 1, &LoanRequest{
		Amount:         5000,
		DurationMonths: 1,
		GuarantorIDs:   []int64{2},
	})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	// One guarantee event plus one request event per official.
	var count int64
	err = db.Model(&model.OutboxMessage{}).
		Where("message_key = ?", loan.LoanNo).
		Count(&count).Error
	if err != nil {
		t.Fatalf("failed to count outbox rows: %v", err)
	}
	if count != 3 {
		t.Errorf("outbox rows = %d, want 3", count)
	}
}

func TestRespondGuaranteeRejectsUnknownDecision(t *testing.T) {
	db := openTestDB(t)
	svc := NewLoanService(db, testRedis(t), &config.Config{})

	err := svc.RespondGuarantee(context.Background(), 1, 1, 2, "MAYBE")
	if !errors.Is(err, ErrInvalidGuarantorAct) {
		t.Fatalf("respond = %v, want ErrInvalidGuarantorAct", err)
	}
}
