// Package audit emits an append-only trail of accepted commands. Publishing
// is asynchronous and best-effort: a failed emit never rolls back the
// command that produced it.
package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Actions recorded by the command workflows.
const (
	ActionWorkStarted      = "work.started"
	ActionWorkClosed       = "work.closed"
	ActionWorkCorrected    = "work.corrected"
	ActionLeaveRecorded    = "leave.recorded"
	ActionLeaveCorrected   = "leave.corrected"
	ActionShiftTransferred = "shift.transferred"
)

// Event is one audit record. Subject is the id of the aggregate the action
// touched (work period, leave event, transfer).
type Event struct {
	ID         string         `json:"id"`
	DriverID   string         `json:"driver_id"`
	Action     string         `json:"action"`
	Subject    string         `json:"subject"`
	Details    map[string]any `json:"details,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// NewEvent stamps id and time on an audit event.
func NewEvent(driverID, action, subject string, details map[string]any) Event {
	return Event{
		ID:         uuid.NewString(),
		DriverID:   driverID,
		Action:     action,
		Subject:    subject,
		Details:    details,
		OccurredAt: time.Now().UTC(),
	}
}

// Sink delivers audit events to a backend.
type Sink interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

const publishTimeout = 5 * time.Second

// Publisher decouples command latency from sink latency: Emit enqueues and
// returns, a single worker drains the queue. Events are dropped with a log
// line when the queue is full.
type Publisher struct {
	sink   Sink
	logger *slog.Logger
	queue  chan Event
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

func NewPublisher(sink Sink, logger *slog.Logger, queueSize int) *Publisher {
	if queueSize <= 0 {
		queueSize = 256
	}
	p := &Publisher{
		sink:   sink,
		logger: logger,
		queue:  make(chan Event, queueSize),
	}
	p.wg.Add(1)
	go p.run()
	return p
}

func (p *Publisher) run() {
	defer p.wg.Done()
	for event := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		if err := p.sink.Publish(ctx, event); err != nil {
			p.logger.Error("audit publish failed",
				"action", event.Action,
				"subject", event.Subject,
				"error", err,
			)
		}
		cancel()
	}
}

// Emit enqueues an event without blocking the caller.
func (p *Publisher) Emit(event Event) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	select {
	case p.queue <- event:
	default:
		p.logger.Warn("audit queue full, dropping event",
			"action", event.Action,
			"subject", event.Subject,
		)
	}
}

// Close drains the queue, stops the worker and closes the sink.
func (p *Publisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	close(p.queue)
	p.wg.Wait()
	return p.sink.Close()
}
