package consultation

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	mem "hilop/pkg/memcache"
)

// Registry holds live flows in memory. Idle flows expire after the TTL and
// are closed, which cancels anything they still have in flight.
type Registry struct {
	flows      *mem.Store[*Flow]
	deps       Deps
	logger     *zap.Logger
	sweepEvery time.Duration

	stopOnce sync.Once
	stop     chan struct{}
	wg       sync.WaitGroup
}

func NewRegistry(ttl time.Duration, deps Deps) *Registry {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sweep := ttl / 4
	if sweep < time.Second {
		sweep = time.Second
	}
	return &Registry{
		flows: mem.NewStore[*Flow](ttl, func(_ string, f *Flow) {
			f.Close()
		}),
		deps:       deps,
		logger:     logger,
		sweepEvery: sweep,
		stop:       make(chan struct{}),
	}
}

func (r *Registry) Create(owner string) *Flow {
	f := NewFlow(uuid.NewString(), owner, r.deps)
	r.flows.Set(f.ID(), f)
	return f
}

// Get returns the flow only to the session that created it.
func (r *Registry) Get(id, owner string) (*Flow, error) {
	f, ok := r.flows.Get(id)
	if !ok || f.Owner() != owner {
		return nil, ErrFlowNotFound
	}
	return f, nil
}

func (r *Registry) Delete(id, owner string) error {
	if _, err := r.Get(id, owner); err != nil {
		return err
	}
	r.flows.Delete(id)
	return nil
}

func (r *Registry) Len() int {
	return r.flows.Len()
}

// Start runs the janitor until Stop.
func (r *Registry) Start() {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.sweepEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := r.flows.Sweep(); n > 0 {
					r.logger.Debug("expired consultation flows", zap.Int("count", n))
				}
			case <-r.stop:
				return
			}
		}
	}()
}

// Stop ends the janitor and closes every flow.
func (r *Registry) Stop() {
	r.stopOnce.Do(func() {
		close(r.stop)
	})
	r.wg.Wait()
	r.flows.Clear()
}
