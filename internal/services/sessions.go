package services

import (
	"fmt"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

type SessionStore interface {
	Create(userID int) (string, error)
	Resolve(token string) (int, bool)
	Invalidate(token string)
}

// MemorySessions never expires entries; they live until logout or restart.
type MemorySessions struct {
	cache *gocache.Cache
}

func NewMemorySessions() *MemorySessions {
	return &MemorySessions{cache: gocache.New(gocache.NoExpiration, 0)}
}

func (s *MemorySessions) Create(userID int) (string, error) {
	token := fmt.Sprintf("session_%d_%s", userID, uuid.NewString())
	if err := s.cache.Add(token, userID, gocache.NoExpiration); err != nil {
		return "", err
	}
	return token, nil
}

func (s *MemorySessions) Resolve(token string) (int, bool) {
	if token == "" {
		return 0, false
	}
	value, found := s.cache.Get(token)
	if !found {
		return 0, false
	}
	userID, ok := value.(int)
	return userID, ok
}

func (s *MemorySessions) Invalidate(token string) {
	s.cache.Delete(token)
}
