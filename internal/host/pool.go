package host

import (
	"net/http"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"clinical-backend/internal/shared/metrics"
)

// pool bounds the number of requests served concurrently.
type pool struct {
	size     int64
	sem      *semaphore.Weighted
	inFlight atomic.Int64
}

func newPool(size int) *pool {
	if size < 1 {
		size = 1
	}
	return &pool{size: int64(size), sem: semaphore.NewWeighted(int64(size))}
}

// wrap holds one worker slot for the lifetime of each request.
// Requests wait for a free slot until their context ends.
func (p *pool) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := p.sem.Acquire(r.Context(), 1); err != nil {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
			return
		}
		p.inFlight.Add(1)
		metrics.WorkersBusy.Inc()
		defer func() {
			metrics.WorkersBusy.Dec()
			p.inFlight.Add(-1)
			p.sem.Release(1)
		}()
		next.ServeHTTP(w, r)
	})
}
