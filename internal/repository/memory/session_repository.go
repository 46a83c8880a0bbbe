package memory

import (
	"time"

	"doc-assistant-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps assistant session state in process memory.
// Sessions idle for a day are evicted; the controller recreates them
// with defaults on next access.
type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository() *SessionRepository {
	c := cache.New(24*time.Hour, 10*time.Minute)
	return &SessionRepository{
		cache: c,
	}
}

func (r *SessionRepository) Save(session *store.AssistantSession) {
	r.cache.Set(session.ID, session, cache.DefaultExpiration)
}

func (r *SessionRepository) Get(sessionID string) (*store.AssistantSession, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*store.AssistantSession), true
	}
	return nil, false
}

func (r *SessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}
