package outbox

import (
	"context"
	"sync"
	"time"

	appoutbox "carmarket/internal/app/outbox"
	"carmarket/internal/infra/storage/memory"
)

// MemorySource adapts the in-memory outbox to the worker. Claimed
// records are parked until the publish outcome is known; failures go
// back to the queue and get retried on a later poll tick.
type MemorySource struct {
	Box *memory.Outbox

	mu       sync.Mutex
	inflight map[string]appoutbox.EventRecord
}

func NewMemorySource(box *memory.Outbox) *MemorySource {
	return &MemorySource{
		Box:      box,
		inflight: make(map[string]appoutbox.EventRecord),
	}
}

func (s *MemorySource) Claim(ctx context.Context, workerID string) (*EventDocument, error) {
	records, err := s.Box.Drain(ctx, 1)
	if err != nil || len(records) == 0 {
		return nil, err
	}
	rec := records[0]
	s.mu.Lock()
	s.inflight[rec.ID] = rec
	s.mu.Unlock()
	return &EventDocument{
		ID:         rec.ID,
		Name:       rec.Name,
		Payload:    rec.Payload,
		OccurredAt: rec.OccurredAt,
		Aggregate:  rec.Aggregate,
		Headers:    rec.Headers,
		State:      stateClaimed,
		ClaimedBy:  workerID,
		ClaimedAt:  time.Now().UTC(),
	}, nil
}

func (s *MemorySource) MarkSent(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.inflight, id)
	s.mu.Unlock()
	return nil
}

func (s *MemorySource) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	s.mu.Lock()
	rec, ok := s.inflight[id]
	delete(s.inflight, id)
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return s.Box.Requeue(ctx, []appoutbox.EventRecord{rec})
}

var _ Source = (*MemorySource)(nil)
