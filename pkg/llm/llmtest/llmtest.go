// Package llmtest provides backend and cache doubles for tests.
package llmtest

import (
	"context"
	"sync"

	"filestoprompt/pkg/llm"
)

// StubBackend returns a fixed reply (or error) and records every request.
type StubBackend struct {
	Reply string
	Err   error

	mu       sync.Mutex
	requests []llm.CompletionRequest
}

// NewStubBackend creates a StubBackend answering reply.
func NewStubBackend(reply string) *StubBackend {
	return &StubBackend{Reply: reply}
}

// Name returns "stub".
func (b *StubBackend) Name() string {
	return "stub"
}

// Complete records req and returns the configured reply or error.
func (b *StubBackend) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, req)
	return b.Reply, b.Err
}

// Calls returns how many times Complete was invoked.
func (b *StubBackend) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.requests)
}

// Requests returns a copy of the recorded requests.
func (b *StubBackend) Requests() []llm.CompletionRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]llm.CompletionRequest, len(b.requests))
	copy(out, b.requests)
	return out
}

// LastRequest returns the most recent request, or the zero value.
func (b *StubBackend) LastRequest() llm.CompletionRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.requests) == 0 {
		return llm.CompletionRequest{}
	}
	return b.requests[len(b.requests)-1]
}

// SpyCache wraps a ResponseCache and counts Get and Put calls.
type SpyCache struct {
	Inner llm.ResponseCache

	mu   sync.Mutex
	gets int
	puts int
}

// NewSpyCache wraps inner.
func NewSpyCache(inner llm.ResponseCache) *SpyCache {
	return &SpyCache{Inner: inner}
}

func (s *SpyCache) Get(ctx context.Context, fingerprint string) (string, bool, error) {
	s.mu.Lock()
	s.gets++
	s.mu.Unlock()
	return s.Inner.Get(ctx, fingerprint)
}

func (s *SpyCache) Put(ctx context.Context, fingerprint, completion string) error {
	s.mu.Lock()
	s.puts++
	s.mu.Unlock()
	return s.Inner.Put(ctx, fingerprint, completion)
}

// Gets returns the number of Get calls.
func (s *SpyCache) Gets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets
}

// Puts returns the number of Put calls.
func (s *SpyCache) Puts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts
}
