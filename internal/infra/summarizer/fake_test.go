package summarizer

import (
	"sync"
	"time"
)

// fakeRecorder captures metrics calls for assertions.
type fakeRecorder struct {
	mu       sync.Mutex
	words    []int
	calls    int
	failures []string
}

func (f *fakeRecorder) RecordWords(_ string, words int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.words = append(f.words, words)
}

func (f *fakeRecorder) RecordDuration(string, time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
}

func (f *fakeRecorder) RecordFailure(_ string, reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = append(f.failures, reason)
}
