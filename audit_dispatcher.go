package authsession

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// auditRecord is what a session operation hands to the dispatcher. It is
// turned into an AuditEvent on the worker, so token decoding stays off the
// caller's path.
type auditRecord struct {
	eventType string
	token     string
	err       error
	at        time.Time
}

type auditDispatcher struct {
	sink  AuditSink
	build func(auditRecord) AuditEvent

	queue      chan auditRecord
	dropIfFull bool

	stop     chan struct{}
	finished chan struct{}
	stopOnce sync.Once
	stopping atomic.Bool
	dropped  atomic.Uint64
}

// newAuditDispatcher starts the worker, or returns nil when cfg is disabled.
// A nil build records only type, time and outcome.
func newAuditDispatcher(cfg AuditConfig, sink AuditSink, build func(auditRecord) AuditEvent) *auditDispatcher {
	if !cfg.Enabled {
		return nil
	}
	size := cfg.BufferSize
	if size <= 0 {
		size = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}
	if build == nil {
		build = baseAuditEvent
	}

	d := &auditDispatcher{
		sink:       sink,
		build:      build,
		queue:      make(chan auditRecord, size),
		dropIfFull: cfg.DropIfFull,
		stop:       make(chan struct{}),
		finished:   make(chan struct{}),
	}
	go d.work()
	return d
}

func baseAuditEvent(rec auditRecord) AuditEvent {
	event := AuditEvent{
		Timestamp: rec.at,
		EventType: rec.eventType,
		Success:   rec.err == nil,
	}
	if rec.err != nil {
		event.Error = rec.err.Error()
	}
	return event
}

func (d *auditDispatcher) work() {
	defer close(d.finished)

	for {
		select {
		case rec := <-d.queue:
			d.deliver(rec)
		case <-d.stop:
			for len(d.queue) > 0 {
				d.deliver(<-d.queue)
			}
			return
		}
	}
}

func (d *auditDispatcher) deliver(rec auditRecord) {
	d.sink.Emit(context.Background(), d.build(rec))
}

// enqueue hands rec to the worker. In drop-if-full mode a full queue counts
// a drop and returns at once; otherwise it waits for room until ctx ends or
// the dispatcher closes.
func (d *auditDispatcher) enqueue(ctx context.Context, rec auditRecord) {
	if d == nil || d.stopping.Load() {
		return
	}

	if d.dropIfFull {
		select {
		case d.queue <- rec:
		case <-d.stop:
		default:
			d.dropped.Add(1)
		}
		return
	}

	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case d.queue <- rec:
	case <-ctx.Done():
	case <-d.stop:
	}
}

// Close delivers what is already queued and stops the worker. Safe to call
// more than once.
func (d *auditDispatcher) Close() {
	if d == nil {
		return
	}
	d.stopOnce.Do(func() {
		d.stopping.Store(true)
		close(d.stop)
	})
	<-d.finished
}

func (d *auditDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
