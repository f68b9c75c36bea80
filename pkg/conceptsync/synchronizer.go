package conceptsync

import (
	"context"
	"errors"
	"sync"
	"time"

	"concept-visualizer-be/internal/pkg/logger"
)

var ErrClosed = errors.New("synchronizer closed")

// Update is delivered to subscribers whenever the snapshot changes or a
// jump asks the client to scroll.
type Update struct {
	Snapshot Snapshot `json:"snapshot"`
	Scroll   bool     `json:"scroll"`
}

// Synchronizer owns one Model and applies events to it from a single
// goroutine. Timers post their events back into the same queue.
type Synchronizer struct {
	cfg    Config
	events chan Event
	calls  chan call
	done   chan struct{}
	once   sync.Once
	logger logger.ILogger

	mu       sync.RWMutex
	snapshot Snapshot
	subs     map[int]chan Update
	nextSub  int

	// owned by the Run goroutine
	model          Model
	recomputeTimer *time.Timer
	suppressTimer  *time.Timer
}

func New(cfg Config, log logger.ILogger) *Synchronizer {
	if cfg.Throttle <= 0 {
		cfg.Throttle = DefaultConfig().Throttle
	}
	if cfg.SuppressionWindow <= 0 {
		cfg.SuppressionWindow = DefaultConfig().SuppressionWindow
	}
	if cfg.Strategy == "" {
		cfg.Strategy = StrategyDirectional
	}
	return &Synchronizer{
		cfg:    cfg,
		events: make(chan Event, 64),
		calls:  make(chan call),
		done:   make(chan struct{}),
		logger: log,
		subs:   make(map[int]chan Update),
		model:  NewModel(cfg.Strategy),
	}
}

// Run processes events until ctx ends or Close is called.
func (s *Synchronizer) Run(ctx context.Context) {
	defer s.stopTimers()
	for {
		select {
		case <-ctx.Done():
			s.Close()
			return
		case <-s.done:
			return
		case ev := <-s.events:
			s.apply(ev)
		case c := <-s.calls:
			s.drain()
			s.apply(c.ev)
			c.reply <- s.model.Snapshot()
		}
	}
}

// Dispatch queues an event. It reports false once the synchronizer is closed.
func (s *Synchronizer) Dispatch(ev Event) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	}
}

type call struct {
	ev    Event
	reply chan Snapshot
}

// Apply runs ev after every event already queued through Dispatch and
// returns the snapshot right after it.
func (s *Synchronizer) Apply(ctx context.Context, ev Event) (Snapshot, error) {
	select {
	case <-s.done:
		return Snapshot{}, ErrClosed
	default:
	}
	c := call{ev: ev, reply: make(chan Snapshot, 1)}
	select {
	case s.calls <- c:
	case <-s.done:
		return Snapshot{}, ErrClosed
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
	select {
	case snap := <-c.reply:
		return snap, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

func (s *Synchronizer) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Subscribe returns a buffered update channel and a function that removes
// it. Slow subscribers miss updates rather than stall the loop.
func (s *Synchronizer) Subscribe() (<-chan Update, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan Update, 16)
	s.subs[id] = ch
	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

func (s *Synchronizer) Close() {
	s.once.Do(func() {
		close(s.done)
		s.mu.Lock()
		for id, ch := range s.subs {
			delete(s.subs, id)
			close(ch)
		}
		s.mu.Unlock()
	})
}

func (s *Synchronizer) apply(ev Event) {
	before := s.model.Snapshot()
	next, effects := Reduce(s.model, ev)
	s.model = next
	after := next.Snapshot()

	scroll := false
	for _, eff := range effects {
		switch e := eff.(type) {
		case ActiveChanged:
			scroll = scroll || e.Scroll
		case ArmRecomputeTimer:
			s.arm(&s.recomputeTimer, s.cfg.Throttle, Recompute{})
		case ArmSuppressionTimer:
			s.arm(&s.suppressTimer, s.cfg.SuppressionWindow, SuppressionExpired{Seq: e.Seq})
		}
	}

	if before.State != after.State {
		s.logger.Debug("ConceptSync", "State changed", map[string]interface{}{
			"from":   before.State.String(),
			"to":     after.State.String(),
			"active": after.ActiveIndex,
		})
	}
	if before == after && !scroll {
		return
	}
	s.publish(Update{Snapshot: after, Scroll: scroll})
}

func (s *Synchronizer) drain() {
	for {
		select {
		case ev := <-s.events:
			s.apply(ev)
		default:
			return
		}
	}
}

func (s *Synchronizer) arm(slot **time.Timer, d time.Duration, ev Event) {
	if *slot != nil {
		(*slot).Stop()
	}
	*slot = time.AfterFunc(d, func() { s.Dispatch(ev) })
}

func (s *Synchronizer) stopTimers() {
	for _, t := range []*time.Timer{s.recomputeTimer, s.suppressTimer} {
		if t != nil {
			t.Stop()
		}
	}
}

func (s *Synchronizer) publish(u Update) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = u.Snapshot
	for _, ch := range s.subs {
		select {
		case ch <- u:
		default:
			s.logger.Warn("ConceptSync", "Subscriber buffer full, dropping update", map[string]interface{}{
				"active": u.Snapshot.ActiveIndex,
			})
		}
	}
}
