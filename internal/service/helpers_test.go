package service

import (
	"bytes"
	"context"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"titleboost/internal/adapters/memstore"
	"titleboost/internal/core/domain"
	"titleboost/internal/core/ports"
)

type recordingBus struct {
	mu         sync.Mutex
	events     []domain.Event
	publishErr error
}

func (b *recordingBus) Publish(_ context.Context, ev domain.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.publishErr != nil {
		return b.publishErr
	}
	b.events = append(b.events, ev)
	return nil
}

func (b *recordingBus) Subscribe(domain.Topic, ports.Handler) {}

func (b *recordingBus) Events() []domain.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.Event(nil), b.events...)
}

type fakeLookup struct {
	mu      sync.Mutex
	matches []ports.ChannelMatch
	err     error
	queries []string
}

func (f *fakeLookup) SearchChannels(_ context.Context, query string) ([]ports.ChannelMatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	return f.matches, f.err
}

type fakeLister struct {
	mu      sync.Mutex
	entries []ports.VideoEntry
	err     error
	gotMax  int
}

func (f *fakeLister) ListRecent(_ context.Context, _ string, max int) ([]ports.VideoEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotMax = max
	return f.entries, f.err
}

type fakeGenerator struct {
	mu      sync.Mutex
	content string
	err     error
	reqs    []ports.CompletionRequest
}

func (f *fakeGenerator) Complete(_ context.Context, req ports.CompletionRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	return f.content, f.err
}

type fakeMailer struct {
	mu   sync.Mutex
	err  error
	sent []ports.EmailMessage
}

func (f *fakeMailer) Send(_ context.Context, msg ports.EmailMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return f.err
}

type harness struct {
	pipeline  *Pipeline
	store     *memstore.Store
	bus       *recordingBus
	lookup    *fakeLookup
	lister    *fakeLister
	generator *fakeGenerator
	mailer    *fakeMailer
	logs      *bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		store:     memstore.New(),
		bus:       &recordingBus{},
		lookup:    &fakeLookup{},
		lister:    &fakeLister{},
		generator: &fakeGenerator{},
		mailer:    &fakeMailer{},
		logs:      &bytes.Buffer{},
	}
	h.pipeline = NewPipeline(h.store, h.bus, h.lookup, h.lister, h.generator, h.mailer,
		log.New(h.logs, "", 0), Options{})
	return h
}

// seed stores a job already sitting in the given status.
func (h *harness) seed(t *testing.T, jobID string, status domain.Status) domain.Envelope {
	t.Helper()
	job := domain.NewJob(jobID, "@example", "a@b.com", time.Now().UTC())
	job.Status = status
	require.NoError(t, h.store.Create(context.Background(), job))
	return domain.Envelope{JobID: jobID, Email: "a@b.com"}
}

func (h *harness) job(t *testing.T, jobID string) *domain.Job {
	t.Helper()
	job, err := h.store.Get(context.Background(), jobID)
	require.NoError(t, err)
	return job
}

func sampleVideos(n int) []domain.Video {
	titles := []string{"First video", "Second video", "Third video", "Fourth video", "Fifth video"}
	videos := make([]domain.Video, 0, n)
	for i := 0; i < n; i++ {
		id := "vid" + string(rune('1'+i))
		videos = append(videos, domain.Video{ID: id, Title: titles[i], URL: domain.WatchURL(id)})
	}
	return videos
}
