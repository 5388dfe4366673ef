// Package sessions keeps live reading sessions in process memory with
// a sliding expiration. Readings are never persisted; an expired
// session is simply gone.
package sessions

import (
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/sirsean/project-augurbox/internal/app"
)

const DefaultTTL = 2 * time.Hour

// Store implements app.SessionStore on top of an expiring cache.
type Store struct {
	ttl time.Duration
	c   *cache.Cache
}

func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		ttl: ttl,
		c:   cache.New(ttl, 10*time.Minute),
	}
}

func (s *Store) Get(id string) (*app.Session, bool) {
	v, ok := s.c.Get(id)
	if !ok {
		return nil, false
	}
	// Touching a session keeps an active reading alive.
	s.c.Set(id, v, s.ttl)
	return v.(*app.Session), true
}

func (s *Store) Put(id string, sess *app.Session) {
	s.c.Set(id, sess, s.ttl)
}

func (s *Store) Delete(id string) {
	s.c.Delete(id)
}
