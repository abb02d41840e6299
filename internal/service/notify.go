package service

import (
	"context"
	"encoding/json"

	"chamapay/internal/config"
	"chamapay/internal/model"
	"chamapay/internal/repository"

	"gorm.io/gorm"
)

// Notifier enqueues member notifications through the transactional outbox.
// The message is written in the same database transaction as the business
// mutation, then relayed to Kafka by the outbox sender job; downstream
// consumers (mailer, SMS) do the actual delivery. Relay or delivery failures
// never propagate back into the originating operation.
type Notifier struct {
	outboxRepo *repository.OutboxRepository
	topic      string
}

func NewNotifier(db *gorm.DB, cfg *config.Config) *Notifier {
	return &Notifier{
		outboxRepo: repository.NewOutboxRepository(db),
		topic:      cfg.Kafka.Topic.Notifications,
	}
}

// Notification event types.
const (
	EventContributionConfirmed = "CONTRIBUTION_CONFIRMED"
	EventContributionFailed    = "CONTRIBUTION_FAILED"
	EventLoanRequested         = "LOAN_REQUESTED"
	EventGuaranteeRequested    = "GUARANTEE_REQUESTED"
	EventLoanApproved          = "LOAN_APPROVED"
	EventLoanRejected          = "LOAN_REJECTED"
	EventLoanRepaid            = "LOAN_REPAID"
	EventPayoutReceived        = "PAYOUT_RECEIVED"
	EventGoalCompleted         = "GOAL_COMPLETED"
	EventMemberInvited         = "MEMBER_INVITED"
	EventChamaApproved         = "CHAMA_APPROVED"
	EventChamaRejected         = "CHAMA_REJECTED"
)

// Enqueue writes one notification event for a user inside tx. payload carries
// event-specific fields; user_id and event are added to the envelope.
func (n *Notifier) Enqueue(ctx context.Context, tx *gorm.DB, key, event string, userID int64, payload map[string]interface{}) error {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	payload["event"] = event
	payload["user_id"] = userID

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return n.outboxRepo.Create(ctx, tx, &model.OutboxMessage{
		MessageKey: key,
		Topic:      n.topic,
		Payload:    string(body),
		Status:     model.OutboxStatusPending,
	})
}
