package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/iliyamo/cinebook/internal/queue"
	"github.com/iliyamo/cinebook/internal/tmdb"
)

// captureMailer records reset links instead of sending them.
type captureMailer struct {
	mu    sync.Mutex
	links []string
	err   error
}

func (m *captureMailer) SendPasswordReset(_ context.Context, _, _, resetURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.links = append(m.links, resetURL)
	return nil
}

func (m *captureMailer) lastToken(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.links) == 0 {
		t.Fatal("no reset link was sent")
	}
	link := m.links[len(m.links)-1]
	i := strings.LastIndex(link, "/reset-password/")
	if i < 0 {
		t.Fatalf("unexpected reset link %q", link)
	}
	return link[i+len("/reset-password/"):]
}

// recordingPublisher collects published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.BookingCreatedEvent
	err    error
}

func (p *recordingPublisher) PublishBookingCreated(_ context.Context, ev queue.BookingCreatedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

// fakeDetails serves canned catalog metadata.
type fakeDetails struct {
	d     *tmdb.MovieDetails
	err   error
	calls int
}

func (f *fakeDetails) Details(_ context.Context, _ string) (*tmdb.MovieDetails, error) {
	f.calls++
	return f.d, f.err
}

func assertKind(t *testing.T, err, kind error) {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("err = %v, want kind %v", err, kind)
	}
}
