package stores

import (
	"context"
	"time"

	"github.com/colonyops/markreview/internal/core/kv"
	"github.com/colonyops/markreview/internal/remote"
)

const (
	cookieNamespace = "session"

	// DefaultSessionTTL matches the server's default session lifetime.
	DefaultSessionTTL = 14 * 24 * time.Hour
)

// CookieStore keeps server session cookies in the KV store, keyed by host.
type CookieStore struct {
	cookies *kv.TypedKV[[]remote.Cookie]
	ttl     time.Duration
}

var _ remote.CookieStore = (*CookieStore)(nil)

// NewCookieStore creates a cookie store whose entries expire after ttl.
func NewCookieStore(store kv.KV, ttl time.Duration) *CookieStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &CookieStore{
		cookies: kv.Scoped[[]remote.Cookie](store, cookieNamespace),
		ttl:     ttl,
	}
}

// LoadCookies returns the cookies saved for host, or none when the session
// was never saved or has expired.
func (s *CookieStore) LoadCookies(ctx context.Context, host string) ([]remote.Cookie, error) {
	cookies, err := s.cookies.Get(ctx, host)
	if IsNotFoundError(err) {
		return nil, nil
	}
	return cookies, err
}

// SaveCookies replaces the cookies saved for host.
func (s *CookieStore) SaveCookies(ctx context.Context, host string, cookies []remote.Cookie) error {
	return s.cookies.SetTTL(ctx, host, cookies, s.ttl)
}

// ClearCookies forgets the session for host.
func (s *CookieStore) ClearCookies(ctx context.Context, host string) error {
	return s.cookies.Delete(ctx, host)
}
