package session

import (
	"go-news-portal/internal/logger"
	"time"

	"github.com/alexedwards/scs/v2"
)

// failSafeStore keeps the public site usable while the session database is down.
// A lookup that fails reads as "no session", so the visitor is served as an
// anonymous reader; failed writes are logged and dropped.
type failSafeStore struct {
	store scs.Store
	log   logger.Logger
}

// NewFailSafeStore wraps store so its errors never reach the request.
func NewFailSafeStore(store scs.Store, log logger.Logger) scs.Store {
	return &failSafeStore{store: store, log: log}
}

func (s *failSafeStore) Find(token string) ([]byte, bool, error) {
	b, found, err := s.store.Find(token)
	if err != nil {
		s.log.Error(err, "Session lookup failed, continuing without a session")
		return nil, false, nil
	}
	return b, found, nil
}

func (s *failSafeStore) Commit(token string, b []byte, expiry time.Time) error {
	if err := s.store.Commit(token, b, expiry); err != nil {
		s.log.Error(err, "Failed to store session")
	}
	return nil
}

func (s *failSafeStore) Delete(token string) error {
	if err := s.store.Delete(token); err != nil {
		s.log.Error(err, "Failed to delete session")
	}
	return nil
}
