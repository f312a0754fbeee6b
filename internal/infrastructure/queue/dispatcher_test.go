package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/afaf/accounts/internal/core/domain"
)

type stubAuditRepo struct {
	mu     sync.Mutex
	events []domain.AuthEvent
	err    error
}

func (r *stubAuditRepo) InsertEvent(_ context.Context, e *domain.AuthEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, *e)
	return nil
}

func TestDispatcher_PreservesPerEmailOrder(t *testing.T) {
	repo := &stubAuditRepo{}
	d := NewDispatcher(4, repo, zerolog.Nop())
	d.Start()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 50; i++ {
		d.Record(domain.AuthEvent{Type: domain.EventLogin, Email: "a@x.com", At: base.Add(time.Duration(i) * time.Second)})
		d.Record(domain.AuthEvent{Type: domain.EventLogin, Email: "b@x.com", At: base.Add(time.Duration(i) * time.Second)})
	}
	d.Close()

	if len(repo.events) != 100 {
		t.Fatalf("expected 100 events, got %d", len(repo.events))
	}

	last := map[string]time.Time{}
	for _, e := range repo.events {
		if prev, ok := last[e.Email]; ok && e.At.Before(prev) {
			t.Fatalf("events for %s out of order", e.Email)
		}
		last[e.Email] = e.At
	}
}

func TestDispatcher_RecordAfterCloseIsIgnored(t *testing.T) {
	repo := &stubAuditRepo{}
	d := NewDispatcher(1, repo, zerolog.Nop())
	d.Start()
	d.Close()
	d.Close()

	d.Record(domain.AuthEvent{Type: domain.EventLogin, Email: "late@x.com"})
	if len(repo.events) != 0 {
		t.Fatalf("event recorded after close")
	}
}

func TestDispatcher_InsertErrorsDoNotStopWorker(t *testing.T) {
	repo := &stubAuditRepo{err: errors.New("store down")}
	d := NewDispatcher(1, repo, zerolog.Nop())
	d.Start()

	d.Record(domain.AuthEvent{Type: domain.EventLogin, Email: "a@x.com"})
	d.Record(domain.AuthEvent{Type: domain.EventLogin, Email: "a@x.com"})
	d.Close()
}

func TestDispatcher_ShardIndexStable(t *testing.T) {
	d := NewDispatcher(8, &stubAuditRepo{}, zerolog.Nop())
	first := d.shardIndex("same@x.com")
	for i := 0; i < 10; i++ {
		if d.shardIndex("same@x.com") != first {
			t.Fatalf("shard index not deterministic")
		}
	}
	if idx := d.shardIndex(""); idx < 0 || idx >= 8 {
		t.Fatalf("shard index out of range: %d", idx)
	}
}
