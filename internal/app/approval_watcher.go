package app

import (
	"context"
	"log"
	"sync"
	"time"

	"board/internal/domain"
	mcpserver "board/internal/mcp"
)

const approvalPollInterval = 2 * time.Second

// approvalWatcher polls the approval store for requests written by a
// standalone MCP process and forwards them to the frontend, which answers
// through ApproveAction / RejectAction.
type approvalWatcher struct {
	ctx      context.Context
	store    domain.ApprovalStore
	emit     func(event string, data any)
	interval time.Duration

	mu sync.Mutex
	// Track emitted approval IDs to avoid re-emission
	emitted map[string]bool
	stopCh  chan struct{}
	done    chan struct{}
}

func newApprovalWatcher(ctx context.Context, store domain.ApprovalStore, emit func(string, any)) *approvalWatcher {
	return &approvalWatcher{
		ctx:      ctx,
		store:    store,
		emit:     emit,
		interval: approvalPollInterval,
		emitted:  map[string]bool{},
	}
}

// Start begins the polling loop. Should be called once on app startup.
func (w *approvalWatcher) Start() {
	w.stopCh = make(chan struct{})
	w.done = make(chan struct{})
	go w.pollLoop()
}

// Stop terminates the polling loop and waits for it to exit.
func (w *approvalWatcher) Stop() {
	if w.stopCh == nil {
		return
	}
	close(w.stopCh)
	<-w.done
	w.stopCh = nil
}

func (w *approvalWatcher) pollLoop() {
	defer close(w.done)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.check()
		case <-w.stopCh:
			return
		case <-w.ctx.Done():
			return
		}
	}
}

func (w *approvalWatcher) check() {
	pending, err := w.store.ListPendingApprovals(w.ctx)
	if err != nil {
		log.Printf("approval watcher: %v", err)
		return
	}

	live := make(map[string]bool, len(pending))
	var fresh []domain.Approval
	w.mu.Lock()
	for _, a := range pending {
		live[a.ID] = true
		if !w.emitted[a.ID] {
			w.emitted[a.ID] = true
			fresh = append(fresh, a)
		}
	}
	// Resolved, timed out, or cleaned up by the requesting process.
	var gone []string
	for id := range w.emitted {
		if !live[id] {
			delete(w.emitted, id)
			gone = append(gone, id)
		}
	}
	w.mu.Unlock()

	for _, a := range fresh {
		w.emit(mcpserver.ApprovalRequiredEvent, mcpserver.PendingFromApproval(a))
	}
	for _, id := range gone {
		w.emit(mcpserver.ApprovalDismissedEvent, map[string]string{"id": id})
	}
}
