package memory

import (
	"context"
	"sync"

	appoutbox "carmarket/internal/app/outbox"
)

// Outbox keeps staged event records in memory. Add stages records for
// the in-flight command; Flush promotes them to the ready queue once the
// command commits. The worker pops ready records through Drain.
type Outbox struct {
	mu     sync.Mutex
	staged []appoutbox.EventRecord
	ready  []appoutbox.EventRecord
}

func NewOutbox() *Outbox {
	return &Outbox{}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.staged = append(o.staged, record)
	return nil
}

func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ready = append(o.ready, o.staged...)
	o.staged = nil
	return nil
}

// Drain removes and returns up to max ready records.
func (o *Outbox) Drain(ctx context.Context, max int) ([]appoutbox.EventRecord, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if max <= 0 || max > len(o.ready) {
		max = len(o.ready)
	}
	if max == 0 {
		return nil, nil
	}
	batch := make([]appoutbox.EventRecord, max)
	copy(batch, o.ready[:max])
	o.ready = o.ready[max:]
	return batch, nil
}

// Requeue puts failed records back at the head of the ready queue.
func (o *Outbox) Requeue(ctx context.Context, records []appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ready = append(append([]appoutbox.EventRecord{}, records...), o.ready...)
	return nil
}

var _ appoutbox.Outbox = (*Outbox)(nil)
