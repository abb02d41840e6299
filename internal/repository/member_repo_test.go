package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"chamapay/internal/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB opens a throwaway sqlite database with the same gorm
// configuration the server uses, in particular error translation, so
// duplicate-key handling behaves as in production.
func openTestDB(t *testing.T, models ...interface{}) *gorm.DB {
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
	if err := db.AutoMigrate(models...); err != nil {
		t.Fatalf("failed to migrate test schema: %v", err)
	}
	return db
}

func TestMemberRepositoryCreateDuplicate(t *testing.T) {
	db := openTestDB(t, &model.ChamaMember{})
	repo := NewMemberRepository(db)
	ctx := context.Background()

	first := &model.ChamaMember{
		ChamaID: 1,
		UserID:  7,
		Role:    model.MemberRoleMember,
		Status:  model.MemberStatusActive,
	}
	if err := repo.Create(ctx, nil, first); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	err := repo.Create(ctx, nil, &model.ChamaMember{
		ChamaID: 1,
		UserID:  7,
		Role:    model.MemberRoleTreasurer,
		Status:  model.MemberStatusActive,
	})
	if !errors.Is(err, ErrAlreadyMember) {
		t.Fatalf("duplicate create = %v, want ErrAlreadyMember", err)
	}

	// Same user in a different chama is fine.
	err = repo.Create(ctx, nil, &model.ChamaMember{
		ChamaID: 2,
		UserID:  7,
		Role:    model.MemberRoleMember,
		Status:  model.MemberStatusActive,
	})
	if err != nil {
		t.Fatalf("create in second chama failed: %v", err)
	}
}

func TestCollabRepositoryCreateVoteDuplicate(t *testing.T) {
	db := openTestDB(t, &model.Poll{}, &model.PollVote{})
	repo := NewCollabRepository(db)
	ctx := context.Background()

	vote := &model.PollVote{PollID: 3, UserID: 9, OptionIndex: 0}
	if err := repo.CreateVote(ctx, vote); err != nil {
		t.Fatalf("first vote failed: %v", err)
	}

	err := repo.CreateVote(ctx, &model.PollVote{PollID: 3, UserID: 9, OptionIndex: 1})
	if !errors.Is(err, ErrAlreadyVoted) {
		t.Fatalf("second vote = %v, want ErrAlreadyVoted", err)
	}

	if err := repo.CreateVote(ctx, &model.PollVote{PollID: 3, UserID: 10, OptionIndex: 1}); err != nil {
		t.Fatalf("vote by another user failed: %v", err)
	}
}
