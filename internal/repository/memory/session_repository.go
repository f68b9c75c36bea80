package memory

import (
	"sync"
	"time"

	"concept-visualizer-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

const (
	DefaultSessionTTL = 1 * time.Hour
	cleanupInterval   = 10 * time.Minute
)

// SessionRepository keeps visualization sessions in process memory. Readers
// always get a copy; writers go through Update so read-modify-write cycles
// on one repository are serialized.
type SessionRepository struct {
	cache *cache.Cache
	mu    sync.Mutex
}

func NewSessionRepository(ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionRepository{
		cache: cache.New(ttl, cleanupInterval),
	}
}

func (r *SessionRepository) Save(session *store.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Set(session.ID, session.Clone(), cache.DefaultExpiration)
}

func (r *SessionRepository) Get(sessionID string) (*store.Session, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*store.Session).Clone(), true
	}
	return nil, false
}

// Update applies fn to a copy of the stored session and saves the result
// when fn returns true. It reports false when the session does not exist.
func (r *SessionRepository) Update(sessionID string, fn func(s *store.Session) bool) (*store.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	x, found := r.cache.Get(sessionID)
	if !found {
		return nil, false
	}
	session := x.(*store.Session).Clone()
	if fn(session) {
		session.UpdatedAt = time.Now()
		r.cache.Set(sessionID, session, cache.DefaultExpiration)
	}
	return session.Clone(), true
}

func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}

func (r *SessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}
