// Package worker provides async profile aggregation behind the event bus.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/VihaanShah2004/cardwise/internal/domain"
	"github.com/VihaanShah2004/cardwise/internal/profile"
)

// Worker consumes recorded transactions from the EventBus and keeps user
// profile snapshots current.
type Worker struct {
	bus        domain.EventBus
	aggregator *profile.Aggregator

	subscriptions []domain.Subscription
	wg            sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewWorker creates a new async worker.
func NewWorker(bus domain.EventBus, aggregator *profile.Aggregator) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:        bus,
		aggregator: aggregator,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start subscribes to the transaction topic.
func (w *Worker) Start() error {
	sub, err := w.bus.Subscribe(w.ctx, domain.TopicTransactionRecorded, w.handleMessage)
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	slog.Info("profile worker started",
		"topic", domain.TopicTransactionRecorded,
	)
	return nil
}

// TransactionEvent is the payload published when a transaction is recorded.
type TransactionEvent struct {
	TxID        string  `json:"txId"`
	UserID      string  `json:"userId"`
	TraceID     string  `json:"traceId,omitempty"`
	Amount      float64 `json:"amount"`
	Merchant    string  `json:"merchant,omitempty"`
	Category    string  `json:"category,omitempty"`
	Description string  `json:"description,omitempty"`
	Timestamp   int64   `json:"timestamp"`
}

// ProfileUpdatedEvent is published after the aggregator refreshes a profile.
type ProfileUpdatedEvent struct {
	UserID            string `json:"userId"`
	TotalTransactions int64  `json:"totalTransactions"`
}

// handleMessage folds one recorded transaction into the user's profile.
// In-flight handlers are tracked so Stop can wait them out.
func (w *Worker) handleMessage(ctx context.Context, msg *domain.Message) error {
	w.wg.Add(1)
	defer w.wg.Done()

	start := time.Now()

	var event TransactionEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		slog.Error("failed to parse transaction event",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}

	traceID := event.TraceID
	if traceID == "" {
		traceID = msg.ID
	}

	slog.Debug("aggregating transaction",
		"tx_id", event.TxID,
		"user_id", event.UserID,
		"trace_id", traceID,
	)

	tx := &domain.Transaction{
		ID:          event.TxID,
		UserID:      event.UserID,
		Amount:      event.Amount,
		Merchant:    event.Merchant,
		Category:    event.Category,
		Description: event.Description,
		Timestamp:   time.Unix(0, event.Timestamp).UTC(),
	}

	updated, err := w.aggregator.Refresh(ctx, tx)
	if err != nil {
		slog.Error("profile refresh failed",
			"tx_id", event.TxID,
			"user_id", event.UserID,
			"error", err,
		)
		return err
	}

	payload, _ := json.Marshal(ProfileUpdatedEvent{
		UserID:            updated.UserID,
		TotalTransactions: updated.TotalTransactions,
	})
	if err := w.bus.Publish(ctx, domain.TopicProfileUpdated, payload); err != nil {
		slog.Error("failed to publish profile update",
			"user_id", event.UserID,
			"error", err,
		)
	}

	slog.Info("profile refreshed",
		"user_id", event.UserID,
		"total_transactions", updated.TotalTransactions,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return nil
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() error {
	w.cancel()

	// Unsubscribe all
	for _, sub := range w.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			slog.Error("failed to unsubscribe",
				"topic", sub.Topic(),
				"error", err,
			)
		}
	}
	w.subscriptions = nil

	w.wg.Wait()

	slog.Info("profile worker stopped")
	return nil
}

// Stats returns worker statistics.
type Stats struct {
	SubscriptionCount int      `json:"subscriptionCount"`
	Topics            []string `json:"topics"`
}

// GetStats returns current worker statistics.
func (w *Worker) GetStats() Stats {
	topics := make([]string, len(w.subscriptions))
	for i, sub := range w.subscriptions {
		topics[i] = sub.Topic()
	}
	return Stats{
		SubscriptionCount: len(w.subscriptions),
		Topics:            topics,
	}
}
