package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"board/internal/domain"
)

const (
	ApprovalRequiredEvent  = "mcp:approval-required"
	ApprovalDismissedEvent = "mcp:approval-dismissed"

	DefaultApprovalTimeout = 120 * time.Second
	defaultApprovalPoll    = 500 * time.Millisecond
)

var (
	// ErrRejected is returned when the user declines a destructive tool call.
	ErrRejected = errors.New("rejected by user")
	// ErrApprovalTimeout is returned when nobody answers in time.
	ErrApprovalTimeout = errors.New("approval timed out")
)

// EventEmitter allows the MCP server to notify the frontend.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// PendingAction is the payload of ApprovalRequiredEvent.
type PendingAction struct {
	ID          string `json:"id"`
	Tool        string `json:"tool"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt"`
	Metadata    string `json:"metadata"` // JSON, e.g. the ids about to be deleted
}

// PendingFromApproval converts a stored approval into the event payload.
func PendingFromApproval(a domain.Approval) PendingAction {
	return PendingAction{
		ID:          a.ID,
		Tool:        a.Tool,
		Description: a.Description,
		CreatedAt:   a.CreatedAt.UTC().Format(time.RFC3339),
		Metadata:    a.Metadata,
	}
}

// ApprovalQueue holds destructive tool calls until a human decides.
//
// With a store (standalone --mcp process) the request is written to the
// shared database and polled; the desktop app shows it and records the
// answer. Without one, requests are raised as events and answered through
// Approve/Reject in the same process.
type ApprovalQueue struct {
	ctx     context.Context
	emitter EventEmitter
	store   domain.ApprovalStore
	timeout time.Duration
	poll    time.Duration

	mu      sync.Mutex
	waiting map[string]chan bool
}

func NewApprovalQueue(ctx context.Context, emitter EventEmitter) *ApprovalQueue {
	return &ApprovalQueue{
		ctx:     ctx,
		emitter: emitter,
		timeout: DefaultApprovalTimeout,
		poll:    defaultApprovalPoll,
		waiting: make(map[string]chan bool),
	}
}

// SetStore switches the queue to database-backed approvals.
func (q *ApprovalQueue) SetStore(store domain.ApprovalStore) {
	q.store = store
}

// Request blocks until the call is approved. It returns an error wrapping
// ErrRejected or ErrApprovalTimeout otherwise, or the context error when
// ctx or the server shuts down first. metadata is JSON and may be empty.
func (q *ApprovalQueue) Request(ctx context.Context, tool, description, metadata string) error {
	if metadata == "" {
		metadata = "{}"
	}
	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()
	stop := context.AfterFunc(q.ctx, cancel)
	defer stop()

	var err error
	if q.store != nil {
		err = q.awaitStore(ctx, tool, description, metadata)
	} else {
		err = q.awaitEvent(ctx, tool, description, metadata)
	}
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w after %s", tool, ErrApprovalTimeout, q.timeout)
	default:
		return fmt.Errorf("%s: %w", tool, err)
	}
}

func (q *ApprovalQueue) awaitStore(ctx context.Context, tool, description, metadata string) error {
	a := &domain.Approval{Tool: tool, Description: description, Metadata: metadata}
	if err := q.store.CreateApproval(ctx, a); err != nil {
		return err
	}
	defer q.store.DeleteApproval(context.WithoutCancel(ctx), a.ID)

	ticker := time.NewTicker(q.poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		got, err := q.store.GetApproval(ctx, a.ID)
		if err != nil {
			continue
		}
		switch got.Status {
		case domain.ApprovalApproved:
			return nil
		case domain.ApprovalRejected:
			return ErrRejected
		}
	}
}

func (q *ApprovalQueue) awaitEvent(ctx context.Context, tool, description, metadata string) error {
	id := uuid.NewString()
	answer := make(chan bool, 1)
	q.mu.Lock()
	q.waiting[id] = answer
	q.mu.Unlock()
	defer func() {
		q.mu.Lock()
		delete(q.waiting, id)
		q.mu.Unlock()
	}()

	q.emit(ApprovalRequiredEvent, PendingAction{
		ID:          id,
		Tool:        tool,
		Description: description,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		Metadata:    metadata,
	})

	select {
	case ok := <-answer:
		if !ok {
			return ErrRejected
		}
		return nil
	case <-ctx.Done():
		q.emit(ApprovalDismissedEvent, map[string]string{"id": id})
		return ctx.Err()
	}
}

func (q *ApprovalQueue) emit(event string, data any) {
	if q.emitter != nil {
		q.emitter.Emit(q.ctx, event, data)
	}
}

// Approve answers an in-process request. Unknown ids are ignored.
func (q *ApprovalQueue) Approve(actionID string) { q.answer(actionID, true) }

// Reject answers an in-process request. Unknown ids are ignored.
func (q *ApprovalQueue) Reject(actionID string) { q.answer(actionID, false) }

func (q *ApprovalQueue) answer(actionID string, ok bool) {
	q.mu.Lock()
	ch, found := q.waiting[actionID]
	q.mu.Unlock()
	if !found {
		return
	}
	select {
	case ch <- ok:
	default:
	}
}
