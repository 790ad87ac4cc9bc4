// Package alerts delivers best-effort in-app notifications through asynq.
// Enqueues happen after the triggering transaction commits and never
// participate in money movement.
package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type Alerts struct {
	client *asynq.Client
	server *asynq.Server
	pool   *pgxpool.Pool
	log    *zap.Logger
}

// New builds the asynq client and an in-process worker that stores
// notifications for later display.
func New(redisAddr string, pool *pgxpool.Pool, log *zap.Logger) *Alerts {
	opts := asynq.RedisClientOpt{Addr: redisAddr}
	return &Alerts{
		client: asynq.NewClient(opts),
		server: asynq.NewServer(opts, asynq.Config{
			Concurrency: 5,
			Queues:      map[string]int{"notifications": 10},
		}),
		pool: pool,
		log:  log,
	}
}

// Start runs the worker in the background.
func (a *Alerts) Start() {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskMilestoneSubmitted, a.handleSubmitted)
	mux.HandleFunc(TaskMilestoneApproved, a.handleApproved)
	mux.HandleFunc(TaskMilestoneRejected, a.handleRejected)

	go func() {
		if err := a.server.Run(mux); err != nil {
			a.log.Warn("alerts worker stopped", zap.Error(err))
		}
	}()
}

func (a *Alerts) Close() {
	_ = a.client.Close()
	a.server.Shutdown()
}

// ---- enqueue side (milestone.Notifier) ----

func (a *Alerts) MilestoneSubmitted(userID, milestoneID, title string) error {
	return a.enqueue(TaskMilestoneSubmitted, MilestonePayload{
		UserID: userID, MilestoneID: milestoneID, Title: title, SentAt: time.Now(),
	})
}

func (a *Alerts) MilestoneApproved(userID, milestoneID, title string, amount int64) error {
	return a.enqueue(TaskMilestoneApproved, MilestonePayload{
		UserID: userID, MilestoneID: milestoneID, Title: title, Amount: amount, SentAt: time.Now(),
	})
}

func (a *Alerts) MilestoneRejected(userID, milestoneID, title string) error {
	return a.enqueue(TaskMilestoneRejected, MilestonePayload{
		UserID: userID, MilestoneID: milestoneID, Title: title, SentAt: time.Now(),
	})
}

func (a *Alerts) enqueue(taskType string, payload MilestonePayload) error {
	b, _ := json.Marshal(payload)
	_, err := a.client.Enqueue(asynq.NewTask(taskType, b), asynq.Queue("notifications"))
	if err != nil {
		a.log.Warn("enqueue notification failed", zap.String("task", taskType), zap.Error(err))
	}
	return err
}

// ---- worker side ----

func (a *Alerts) handleSubmitted(ctx context.Context, t *asynq.Task) error {
	var p MilestonePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	return a.store(ctx, p, "milestone_submitted", "Milestone submitted for review",
		fmt.Sprintf("%q was submitted and awaits your review.", p.Title))
}

func (a *Alerts) handleApproved(ctx context.Context, t *asynq.Task) error {
	var p MilestonePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	return a.store(ctx, p, "milestone_approved", "Milestone approved",
		fmt.Sprintf("%q was approved. %d released to your wallet.", p.Title, p.Amount))
}

func (a *Alerts) handleRejected(ctx context.Context, t *asynq.Task) error {
	var p MilestonePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	return a.store(ctx, p, "milestone_rejected", "Milestone needs changes",
		fmt.Sprintf("%q was sent back for rework.", p.Title))
}

func (a *Alerts) store(ctx context.Context, p MilestonePayload, kind, title, body string) error {
	_, err := a.pool.Exec(ctx,
		`INSERT INTO notifications (id, user_id, kind, title, body, reference_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
		uuid.New().String(), p.UserID, kind, title, body, p.MilestoneID)
	if err != nil {
		a.log.Warn("store notification failed", zap.Error(err))
	}
	return err
}
