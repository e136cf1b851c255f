package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"board/internal/domain"
	"board/internal/history"

	"github.com/google/uuid"
)

const (
	// NoticeEvent is emitted to the front end for every new notice.
	NoticeEvent = "board:notice"
	// NoticeDismissedEvent is emitted when a notice is dismissed early.
	NoticeDismissedEvent = "board:notice-dismissed"

	DefaultNoticeTTL = 4 * time.Second
)

type NoticeKind string

const (
	NoticePersistence NoticeKind = "persistence"
	NoticeHistory     NoticeKind = "history"
	NoticeError       NoticeKind = "error"
)

// Notice is a transient, auto-dismissing message.
type Notice struct {
	ID        string     `json:"id"`
	Kind      NoticeKind `json:"kind"`
	Message   string     `json:"message"`
	Detail    string     `json:"detail,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	ExpiresAt time.Time  `json:"expiresAt"`
}

// ─────────────────────────────────────────────────────────────
// Notices: implements interaction.Notifier
// ─────────────────────────────────────────────────────────────

// Notices collects failures worth telling the user about. Validation errors
// are dropped; everything else becomes a notice that expires after the TTL.
type Notices struct {
	ctx     context.Context
	emitter EventEmitter
	ttl     time.Duration

	// Now is the clock; tests replace it.
	Now func() time.Time

	mu    sync.Mutex
	items []Notice
}

// NewNotices creates a Notices service. emitter may be nil.
func NewNotices(ctx context.Context, emitter EventEmitter, ttl time.Duration) *Notices {
	if ttl <= 0 {
		ttl = DefaultNoticeTTL
	}
	return &Notices{ctx: ctx, emitter: emitter, ttl: ttl, Now: time.Now}
}

// Notify records err as a notice. Safe for concurrent use.
func (n *Notices) Notify(err error) {
	if err == nil || errors.Is(err, domain.ErrValidation) {
		return
	}
	now := n.Now()
	notice := Notice{
		ID:        uuid.NewString(),
		Detail:    err.Error(),
		CreatedAt: now,
		ExpiresAt: now.Add(n.ttl),
	}
	var perr *domain.PersistenceError
	switch {
	case errors.As(err, &perr):
		notice.Kind = NoticePersistence
		notice.Message = fmt.Sprintf("Couldn't save changes (%s)", perr.Op)
	case errors.Is(err, history.ErrApply):
		notice.Kind = NoticeHistory
		notice.Message = "Couldn't apply undo/redo"
	default:
		notice.Kind = NoticeError
		notice.Message = "Something went wrong"
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.prune(now)
	n.items = append(n.items, notice)
	if n.emitter != nil {
		n.emitter.Emit(n.ctx, NoticeEvent, notice)
	}
}

// Active returns the notices that have not yet expired, oldest first.
func (n *Notices) Active() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.prune(n.Now())
	out := make([]Notice, len(n.items))
	copy(out, n.items)
	return out
}

// Dismiss removes a notice before it expires.
func (n *Notices) Dismiss(id string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, it := range n.items {
		if it.ID != id {
			continue
		}
		n.items = append(n.items[:i], n.items[i+1:]...)
		if n.emitter != nil {
			n.emitter.Emit(n.ctx, NoticeDismissedEvent, id)
		}
		return true
	}
	return false
}

func (n *Notices) prune(now time.Time) {
	kept := n.items[:0]
	for _, it := range n.items {
		if now.Before(it.ExpiresAt) {
			kept = append(kept, it)
		}
	}
	n.items = kept
}
