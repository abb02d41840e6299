package job

import (
	"context"
	"log"
	"time"

	"chamapay/internal/config"
	"chamapay/internal/repository"

	"gorm.io/gorm"
)

// StkTimeoutJob expires M-Pesa contributions stuck in PENDING. A payer who
// never completed the phone prompt leaves a row Daraja will not call back
// for; after the timeout window it is marked FAILED. The compare-and-set in
// MarkFailed loses gracefully to a late callback racing this job.
type StkTimeoutJob struct {
	db               *gorm.DB
	contributionRepo *repository.ContributionRepository
	cfg              *config.Config
	stopCh           chan struct{}
	interval         time.Duration
	batchSize        int
}

func NewStkTimeoutJob(db *gorm.DB, cfg *config.Config) *StkTimeoutJob {
	return &StkTimeoutJob{
		db:               db,
		contributionRepo: repository.NewContributionRepository(db),
		cfg:              cfg,
		stopCh:           make(chan struct{}),
		interval:         30 * time.Second,
		batchSize:        100,
	}
}

func (j *StkTimeoutJob) Start(ctx context.Context) {
	log.Println("[StkTimeoutJob] started")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[StkTimeoutJob] context cancelled, exiting")
			return
		case <-j.stopCh:
			log.Println("[StkTimeoutJob] stopped")
			return
		case <-ticker.C:
			j.expirePendingContributions(ctx)
		}
	}
}

func (j *StkTimeoutJob) Stop() {
	close(j.stopCh)
}

func (j *StkTimeoutJob) expirePendingContributions(ctx context.Context) {
	cutoff := time.Now().Add(-time.Duration(j.cfg.Business.StkTimeoutMinutes) * time.Minute)
	contributions, err := j.contributionRepo.ListPendingBefore(ctx, cutoff, j.batchSize)
	if err != nil {
		log.Printf("[StkTimeoutJob] query failed: %v", err)
		return
	}

	if len(contributions) == 0 {
		return
	}

	log.Printf("[StkTimeoutJob] found %d expired pending contributions", len(contributions))

	expiredCount := 0
	for _, contribution := range contributions {
		err := j.contributionRepo.MarkFailed(ctx, nil, contribution.ID, "stk push timed out")
		if err != nil {
			log.Printf("[StkTimeoutJob] expire failed: contributionNo=%s, err=%v", contribution.ContributionNo, err)
			continue
		}
		expiredCount++
		log.Printf("[StkTimeoutJob] contribution expired: contributionNo=%s, chamaID=%d, amount=%d",
			contribution.ContributionNo, contribution.ChamaID, contribution.Amount)
	}

	log.Printf("[StkTimeoutJob] expired %d contributions this round", expiredCount)
}
