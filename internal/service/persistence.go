package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"board/internal/domain"
	"board/internal/interaction"
)

// DefaultOpTimeout bounds a single store call made by the bridge.
const DefaultOpTimeout = 10 * time.Second

// ─────────────────────────────────────────────────────────────
// Persistence bridge
// ─────────────────────────────────────────────────────────────

// Stores groups the backing stores a board needs.
type Stores struct {
	Boards   domain.BoardStore
	Elements domain.ElementStore
	Blocks   domain.MaterialBlockStore
	Views    domain.ViewStateStore
}

type op struct {
	epoch uint64
	key   string
	run   func(ctx context.Context) (func(*interaction.Engine), error)
}

type completion struct {
	epoch uint64
	apply func(*interaction.Engine)
}

// Bridge implements interaction.Persistence. Calls return immediately and
// are executed in order by a single worker goroutine; results are queued in
// an inbox that the host drains on the engine thread.
//
// Ordering is what makes optimistic ids work: an update or delete issued
// against a temp id always runs after the create that introduced it, and the
// worker translates the temp id to the server id at that point.
type Bridge struct {
	stores  Stores
	notify  interaction.Notifier
	timeout time.Duration

	// OnPost is called after a completion is queued, typically to request a frame.
	OnPost func()
	// OnWrite is called on the worker after every successful store write.
	OnWrite func()

	mu     sync.Mutex
	queue  []op
	inbox  []completion
	epoch  uint64
	signal chan struct{}
	wg     sync.WaitGroup
	cancel context.CancelFunc
	done   chan struct{}

	// worker-only
	ids map[string]string
}

// NewBridge creates a Bridge. notify may be nil.
func NewBridge(stores Stores, notify interaction.Notifier, timeout time.Duration) *Bridge {
	if timeout <= 0 {
		timeout = DefaultOpTimeout
	}
	return &Bridge{
		stores:  stores,
		notify:  notify,
		timeout: timeout,
		signal:  make(chan struct{}, 1),
		ids:     make(map[string]string),
	}
}

// Start launches the worker. It must be called once before any write.
func (b *Bridge) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.done = make(chan struct{})
	go b.run(ctx)
}

// Close stops the worker after the queued writes have been attempted or
// ctx expires.
func (b *Bridge) Close(ctx context.Context) {
	if b.cancel == nil {
		return
	}
	b.Wait(ctx)
	b.cancel()
	<-b.done
	b.cancel = nil
}

// Wait blocks until every queued write has run or ctx is cancelled.
func (b *Bridge) Wait(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// Reset starts a new board epoch: completions still in flight for the
// previous board are dropped instead of merged.
func (b *Bridge) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.epoch++
	b.inbox = nil
}

// Epoch returns the current board epoch.
func (b *Bridge) Epoch() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.epoch
}

// Drain applies queued completions to e. It must run on the engine thread.
func (b *Bridge) Drain(e *interaction.Engine) int {
	b.mu.Lock()
	pending := b.inbox
	b.inbox = nil
	epoch := b.epoch
	b.mu.Unlock()

	n := 0
	for _, c := range pending {
		if c.epoch != epoch {
			continue
		}
		c.apply(e)
		n++
	}
	return n
}

// Pending reports the number of undrained completions.
func (b *Bridge) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.inbox)
}

func (b *Bridge) enqueue(key string, run func(ctx context.Context) (func(*interaction.Engine), error)) {
	b.mu.Lock()
	b.queue = append(b.queue, op{epoch: b.epoch, key: key, run: run})
	b.wg.Add(1)
	b.mu.Unlock()
	select {
	case b.signal <- struct{}{}:
	default:
	}
}

func (b *Bridge) run(ctx context.Context) {
	defer close(b.done)
	for {
		b.mu.Lock()
		if len(b.queue) == 0 {
			b.mu.Unlock()
			select {
			case <-ctx.Done():
				return
			case <-b.signal:
			}
			continue
		}
		o := b.queue[0]
		b.queue = b.queue[1:]
		b.mu.Unlock()

		b.exec(ctx, o)
		b.wg.Done()
	}
}

func (b *Bridge) exec(ctx context.Context, o op) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	apply, err := o.run(ctx)
	if err != nil {
		log.Printf("persistence: %v", err)
		if b.notify != nil {
			b.notify.Notify(err)
		}
		return
	}
	if b.OnWrite != nil {
		b.OnWrite()
	}
	if apply == nil {
		return
	}
	b.mu.Lock()
	b.inbox = append(b.inbox, completion{epoch: o.epoch, apply: apply})
	onPost := b.OnPost
	b.mu.Unlock()
	if onPost != nil {
		onPost()
	}
}

// superseded reports whether a later queued write touches key, in which case
// merging this result would briefly roll the local record back.
func (b *Bridge) superseded(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, o := range b.queue {
		if o.key == key {
			return true
		}
	}
	return false
}

// resolve maps a temp id to its server id once the create has run.
func (b *Bridge) resolve(id string) (string, bool) {
	if !domain.IsTempID(id) {
		return id, true
	}
	sid, ok := b.ids[id]
	return sid, ok
}

func (b *Bridge) resolvePayload(p *domain.Payload) *domain.Payload {
	if p == nil || p.Connector == nil {
		return p
	}
	c := *p.Connector
	if id, ok := b.resolve(c.From.Target.ID); ok {
		c.From.Target.ID = id
	}
	if id, ok := b.resolve(c.To.Target.ID); ok {
		c.To.Target.ID = id
	}
	out := *p
	out.Connector = &c
	return &out
}

func unresolved(op, id string) error {
	return &domain.PersistenceError{Op: op, ID: id, Err: fmt.Errorf("%w: create never completed", domain.ErrNotFound)}
}

// ── Elements ────────────────────────────────────────────────

func (b *Bridge) CreateElement(el domain.Element) {
	el = el.Clone()
	tempID := el.ID
	b.enqueue(tempID, func(ctx context.Context) (func(*interaction.Engine), error) {
		rec := el
		if domain.IsTempID(rec.ID) {
			rec.ID = domain.NewID()
		}
		if p := b.resolvePayload(&rec.Payload); p != nil {
			rec.Payload = *p
		}
		if err := b.stores.Elements.CreateElement(ctx, &rec); err != nil {
			return nil, &domain.PersistenceError{Op: "create element", ID: tempID, Err: err}
		}
		if rec.ID != tempID {
			b.ids[tempID] = rec.ID
		}
		merge := !b.superseded(tempID)
		return func(e *interaction.Engine) {
			if rec.ID != tempID {
				e.Rekey(domain.ElementRef(tempID), rec.ID)
			}
			if merge {
				e.MergeElement(rec)
			}
		}, nil
	})
}

func (b *Bridge) UpdateElement(id string, patch domain.ElementPatch) {
	if patch.Payload != nil {
		p := patch.Payload.Clone()
		patch.Payload = &p
	}
	b.enqueue(id, func(ctx context.Context) (func(*interaction.Engine), error) {
		sid, ok := b.resolve(id)
		if !ok {
			return nil, unresolved("update element", id)
		}
		patch.Payload = b.resolvePayload(patch.Payload)
		rec, err := b.stores.Elements.UpdateElement(ctx, sid, patch)
		if err != nil {
			return nil, &domain.PersistenceError{Op: "update element", ID: sid, Err: err}
		}
		if rec == nil || b.superseded(id) {
			return nil, nil
		}
		merged := *rec
		return func(e *interaction.Engine) { e.MergeElement(merged) }, nil
	})
}

func (b *Bridge) DeleteElement(id string) {
	b.enqueue(id, func(ctx context.Context) (func(*interaction.Engine), error) {
		sid, ok := b.resolve(id)
		if !ok {
			return nil, unresolved("delete element", id)
		}
		if err := b.stores.Elements.DeleteElement(ctx, sid); err != nil {
			return nil, &domain.PersistenceError{Op: "delete element", ID: sid, Err: err}
		}
		return nil, nil
	})
}

// ── Material blocks ─────────────────────────────────────────

func (b *Bridge) CreateBlock(mb domain.MaterialBlock) {
	tempID := mb.ID
	b.enqueue(tempID, func(ctx context.Context) (func(*interaction.Engine), error) {
		rec := mb
		if domain.IsTempID(rec.ID) {
			rec.ID = domain.NewID()
		}
		if err := b.stores.Blocks.CreateBlock(ctx, &rec); err != nil {
			return nil, &domain.PersistenceError{Op: "create block", ID: tempID, Err: err}
		}
		if rec.ID != tempID {
			b.ids[tempID] = rec.ID
		}
		merge := !b.superseded(tempID)
		return func(e *interaction.Engine) {
			if rec.ID != tempID {
				e.Rekey(domain.BlockRef(tempID), rec.ID)
			}
			if merge {
				e.MergeBlock(rec)
			}
		}, nil
	})
}

func (b *Bridge) UpdateBlock(id string, patch domain.BlockPatch) {
	b.enqueue(id, func(ctx context.Context) (func(*interaction.Engine), error) {
		sid, ok := b.resolve(id)
		if !ok {
			return nil, unresolved("update block", id)
		}
		rec, err := b.stores.Blocks.UpdateBlock(ctx, sid, patch)
		if err != nil {
			return nil, &domain.PersistenceError{Op: "update block", ID: sid, Err: err}
		}
		if rec == nil || b.superseded(id) {
			return nil, nil
		}
		merged := *rec
		return func(e *interaction.Engine) { e.MergeBlock(merged) }, nil
	})
}

func (b *Bridge) DeleteBlock(id string) {
	b.enqueue(id, func(ctx context.Context) (func(*interaction.Engine), error) {
		sid, ok := b.resolve(id)
		if !ok {
			return nil, unresolved("delete block", id)
		}
		if err := b.stores.Blocks.DeleteBlock(ctx, sid); err != nil {
			return nil, &domain.PersistenceError{Op: "delete block", ID: sid, Err: err}
		}
		return nil, nil
	})
}

// ── View state ──────────────────────────────────────────────

// SaveView persists the viewport of boardID. It is safe to call from any
// goroutine; the engine's debouncer calls it off the engine thread.
func (b *Bridge) SaveView(boardID string, v domain.ViewState) {
	if b.stores.Views == nil || boardID == "" {
		return
	}
	rec := domain.NewViewRecord(v)
	b.enqueue("view:"+boardID, func(ctx context.Context) (func(*interaction.Engine), error) {
		if err := b.stores.Views.SaveView(ctx, boardID, rec); err != nil {
			return nil, &domain.PersistenceError{Op: "save view", ID: boardID, Err: err}
		}
		return nil, nil
	})
}
