// Package audittest provides an in-memory audit.Recorder for usecase tests.
package audittest

import (
	"context"
	"sync"

	"github.com/fekuna/omnipos-erp-service/internal/audit"
)

type Recorder struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (r *Recorder) Record(_ context.Context, e audit.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

func (r *Recorder) Entries() []audit.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]audit.Entry(nil), r.entries...)
}
