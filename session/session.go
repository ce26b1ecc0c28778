// Package session owns the authentication state of the admin: access token, refresh
// token and the signed-in user, mirrored into a persistent Storage.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/sync/singleflight"

	"gestion-admin/models"
)

const RefreshPath = "/api/auth/token/refresh/"

var (
	// ErrSessionExpired is returned once the session has been torn down.
	ErrSessionExpired = errors.New("Session expirée. Veuillez vous reconnecter.")
	ErrNotLoggedIn    = errors.New("not logged in")
)

// Session is safe for concurrent use. Concurrent refreshes collapse into one request.
type Session struct {
	mu         sync.RWMutex
	access     string
	refresh    string
	user       *models.AuthUser
	generation uint64

	storage Storage
	baseURL string
	http    *http.Client
	group   singleflight.Group
}

// New creates an empty session. Call Restore to rehydrate it from storage.
func New(storage Storage, baseURL string, hc *http.Client) *Session {
	if storage == nil {
		storage = NewMemoryStorage()
	}
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Session{
		storage: storage,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
	}
}

// Restore loads a persisted session. A partial or corrupt record is wiped.
func (s *Session) Restore() (bool, error) {
	access, okA, err := s.storage.Get(KeyAccess)
	if err != nil {
		return false, fmt.Errorf("read session: %w", err)
	}
	refresh, okR, err := s.storage.Get(KeyRefresh)
	if err != nil {
		return false, fmt.Errorf("read session: %w", err)
	}
	rawUser, okU, err := s.storage.Get(KeyUser)
	if err != nil {
		return false, fmt.Errorf("read session: %w", err)
	}
	if !okA || !okR || !okU || access == "" || refresh == "" {
		return false, nil
	}
	var u models.AuthUser
	if err := json.Unmarshal([]byte(rawUser), &u); err != nil {
		log.Printf("session: discarding corrupt stored user: %v", err)
		_ = s.storage.Delete(KeyAccess, KeyRefresh, KeyUser)
		return false, nil
	}

	s.mu.Lock()
	s.access, s.refresh, s.user = access, refresh, &u
	s.mu.Unlock()
	return true, nil
}

// Begin installs the tokens and user of a successful login.
func (s *Session) Begin(resp models.LoginResponse) error {
	resp.Normalize()
	rawUser, err := json.Marshal(resp.User)
	if err != nil {
		return err
	}
	u := resp.User

	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.access, s.refresh, s.user = resp.Access, resp.Refresh, &u
	s.mu.Unlock()

	return s.persist(gen, func() error {
		return s.writeAll(resp.Access, resp.Refresh, rawUser)
	})
}

func (s *Session) writeAll(access, refresh string, rawUser []byte) error {
	if err := s.storage.Set(KeyAccess, access); err != nil {
		return err
	}
	if err := s.storage.Set(KeyRefresh, refresh); err != nil {
		return err
	}
	return s.storage.Set(KeyUser, string(rawUser))
}

// persist runs write, then checks that no Begin or Clear landed meanwhile. If one did,
// storage is rewritten from the in-memory state and ErrSessionExpired is returned.
func (s *Session) persist(gen uint64, write func() error) error {
	err := write()
	if !s.current(gen) {
		s.resync()
		return ErrSessionExpired
	}
	if err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

func (s *Session) current(gen uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation == gen
}

// resync makes storage match memory, retrying until no Begin or Clear interleaves.
func (s *Session) resync() {
	for {
		s.mu.RLock()
		gen, access, refresh, user := s.generation, s.access, s.refresh, s.user
		s.mu.RUnlock()

		var err error
		if user == nil || access == "" {
			err = s.storage.Delete(KeyAccess, KeyRefresh, KeyUser)
		} else if raw, mErr := json.Marshal(*user); mErr != nil {
			err = mErr
		} else {
			err = s.writeAll(access, refresh, raw)
		}
		if err != nil {
			log.Printf("session: resync storage: %v", err)
		}
		if s.current(gen) {
			return
		}
	}
}

// Token returns the access token, falling back to the persisted one.
func (s *Session) Token() string {
	s.mu.RLock()
	t := s.access
	s.mu.RUnlock()
	if t != "" {
		return t
	}
	t, _, _ = s.storage.Get(KeyAccess)
	return t
}

// RefreshToken returns the refresh token, falling back to the persisted one.
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	t := s.refresh
	s.mu.RUnlock()
	if t != "" {
		return t
	}
	t, _, _ = s.storage.Get(KeyRefresh)
	return t
}

// User returns the signed-in user.
func (s *Session) User() (models.AuthUser, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return models.AuthUser{}, false
	}
	return *s.user, true
}

// LoggedIn reports whether a user and an access token are present.
func (s *Session) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.access != ""
}

// UpdateUser patches the cached user after a profile edit.
func (s *Session) UpdateUser(fn func(u *models.AuthUser)) error {
	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return ErrNotLoggedIn
	}
	u := *s.user
	fn(&u)
	s.user = &u
	s.mu.Unlock()

	raw, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return s.storage.Set(KeyUser, string(raw))
}

// SetAccess stores a new access token in memory and storage.
func (s *Session) SetAccess(token string) error {
	s.mu.Lock()
	s.access = token
	s.mu.Unlock()
	return s.storage.Set(KeyAccess, token)
}

// Clear tears the session down. A refresh in flight when Clear runs is discarded.
func (s *Session) Clear() {
	s.mu.Lock()
	s.generation++
	s.access, s.refresh, s.user = "", "", nil
	s.mu.Unlock()
	if err := s.storage.Delete(KeyAccess, KeyRefresh, KeyUser); err != nil {
		log.Printf("session: clear storage: %v", err)
	}
}

// AccessExpiry reads the exp claim of the access token. The signature is not checked:
// the admin never holds the signing key and only uses this for display.
func (s *Session) AccessExpiry() (time.Time, bool) {
	tok := s.Token()
	if tok == "" {
		return time.Time{}, false
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(tok, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Refresh obtains a new access token. stale is the token the server just rejected:
// if the session already moved on to another token, that one is returned without a
// network call. Concurrent callers share a single refresh request, which runs detached
// from any one caller's ctx and is bounded by the HTTP client timeout. A caller whose ctx
// ends stops waiting with ctx.Err(). On any refresh failure the session is cleared and
// ErrSessionExpired returned.
func (s *Session) Refresh(ctx context.Context, stale string) (string, error) {
	s.mu.RLock()
	current, gen := s.access, s.generation
	s.mu.RUnlock()
	if stale != "" && current != "" && current != stale {
		return current, nil
	}

	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan("refresh", func() (any, error) {
		return s.doRefresh(shared, gen)
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

type refreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

func (s *Session) doRefresh(ctx context.Context, gen uint64) (string, error) {
	refresh := s.RefreshToken()
	if refresh == "" {
		s.expire(gen)
		return "", ErrSessionExpired
	}

	body, _ := json.Marshal(map[string]string{"refresh": refresh})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+RefreshPath, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		log.Printf("session: token refresh failed: %v", err)
		s.expire(gen)
		return "", ErrSessionExpired
	}
	defer resp.Body.Close()

	var out refreshResponse
	if resp.StatusCode >= 300 || json.NewDecoder(resp.Body).Decode(&out) != nil || out.Access == "" {
		log.Printf("session: token refresh rejected (status %d)", resp.StatusCode)
		s.expire(gen)
		return "", ErrSessionExpired
	}

	s.mu.Lock()
	if s.generation != gen {
		// Logged out (or in again) while the refresh was in flight.
		s.mu.Unlock()
		return "", ErrSessionExpired
	}
	s.access = out.Access
	if out.Refresh != "" {
		s.refresh = out.Refresh
	}
	s.mu.Unlock()

	err = s.persist(gen, func() error {
		if err := s.storage.Set(KeyAccess, out.Access); err != nil {
			return err
		}
		if out.Refresh != "" {
			return s.storage.Set(KeyRefresh, out.Refresh)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return out.Access, nil
}

// expire clears the session unless a newer login already replaced it.
func (s *Session) expire(gen uint64) {
	if s.current(gen) {
		s.Clear()
	}
}
