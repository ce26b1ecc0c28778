package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"gestion-admin/models"
)

func login(t *testing.T, s *Session) {
	t.Helper()
	err := s.Begin(models.LoginResponse{
		Access:  "old-access",
		Refresh: "refresh-1",
		User:    models.AuthUser{ID: 1, Username: "admin"},
	})
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
}

func TestBeginPersistsAndRestore(t *testing.T) {
	store := NewMemoryStorage()
	s := New(store, "http://unused", nil)
	login(t, s)

	restored := New(store, "http://unused", nil)
	ok, err := restored.Restore()
	if err != nil || !ok {
		t.Fatalf("Restore = %v, %v", ok, err)
	}
	u, ok := restored.User()
	if !ok || u.Username != "admin" {
		t.Fatalf("user = %+v", u)
	}
	if u.Role != models.RoleAdmin {
		t.Fatalf("role defaulted to %q", u.Role)
	}
	if restored.Token() != "old-access" || restored.RefreshToken() != "refresh-1" {
		t.Fatalf("tokens not restored")
	}
}

func TestRestoreWipesPartialSession(t *testing.T) {
	store := NewMemoryStorage()
	_ = store.Set(KeyAccess, "a")
	_ = store.Set(KeyRefresh, "r")
	_ = store.Set(KeyUser, "{not json")

	s := New(store, "http://unused", nil)
	ok, err := s.Restore()
	if err != nil || ok {
		t.Fatalf("Restore = %v, %v", ok, err)
	}
	if _, found, _ := store.Get(KeyAccess); found {
		t.Fatal("corrupt session should be wiped")
	}
}

func TestRefreshSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != RefreshPath {
			t.Errorf("path = %s", r.URL.Path)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["refresh"] != "refresh-1" {
			t.Errorf("refresh body = %v", body)
		}
		_, _ = w.Write([]byte(`{"access":"new-access"}`))
	}))
	defer srv.Close()

	store := NewMemoryStorage()
	s := New(store, srv.URL, srv.Client())
	login(t, s)

	tok, err := s.Refresh(context.Background(), "old-access")
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if tok != "new-access" || s.Token() != "new-access" {
		t.Fatalf("token = %q", tok)
	}
	if v, _, _ := store.Get(KeyAccess); v != "new-access" {
		t.Fatalf("stored token = %q", v)
	}
}

func TestRefreshFailureClearsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	store := NewMemoryStorage()
	s := New(store, srv.URL, srv.Client())
	login(t, s)

	_, err := s.Refresh(context.Background(), "old-access")
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("err = %v", err)
	}
	if s.LoggedIn() {
		t.Fatal("session should be cleared")
	}
	for _, k := range []string{KeyAccess, KeyRefresh, KeyUser} {
		if _, found, _ := store.Get(k); found {
			t.Fatalf("%s still stored", k)
		}
	}
}

func TestRefreshWithoutRefreshToken(t *testing.T) {
	s := New(nil, "http://127.0.0.1:1", nil)
	_, err := s.Refresh(context.Background(), "")
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("err = %v", err)
	}
}

func TestConcurrentRefreshSharesOneRequest(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		<-release
		_, _ = w.Write([]byte(`{"access":"new-access"}`))
	}))
	defer srv.Close()

	s := New(nil, srv.URL, srv.Client())
	login(t, s)

	var wg sync.WaitGroup
	results := make([]string, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = s.Refresh(context.Background(), "old-access")
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("refresh requests = %d, want 1", n)
	}
	for i, r := range results {
		if r != "new-access" {
			t.Fatalf("result[%d] = %q", i, r)
		}
	}
}

func TestRefreshSkippedWhenTokenAlreadyRotated(t *testing.T) {
	s := New(nil, "http://127.0.0.1:1", nil)
	login(t, s)
	_ = s.SetAccess("rotated")

	tok, err := s.Refresh(context.Background(), "old-access")
	if err != nil || tok != "rotated" {
		t.Fatalf("Refresh = %q, %v", tok, err)
	}
}

func TestClearDuringRefreshWins(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		_, _ = w.Write([]byte(`{"access":"late-access"}`))
	}))
	defer srv.Close()

	store := NewMemoryStorage()
	s := New(store, srv.URL, srv.Client())
	login(t, s)

	done := make(chan error, 1)
	go func() {
		_, err := s.Refresh(context.Background(), "old-access")
		done <- err
	}()
	<-entered
	s.Clear()
	close(release)

	if err := <-done; !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("err = %v", err)
	}
	if s.Token() != "" {
		t.Fatalf("late refresh resurrected token %q", s.Token())
	}
	if _, found, _ := store.Get(KeyAccess); found {
		t.Fatal("late refresh was persisted")
	}
}

// hookStorage runs before on every Set, so tests can land a logout between the
// in-memory update and the write to storage.
type hookStorage struct {
	*MemoryStorage
	before func(key, value string)
}

func (h *hookStorage) Set(key, value string) error {
	if h.before != nil {
		h.before(key, value)
	}
	return h.MemoryStorage.Set(key, value)
}

func TestClearWhilePersistingRefreshWins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"access":"late-access"}`))
	}))
	defer srv.Close()

	store := &hookStorage{MemoryStorage: NewMemoryStorage()}
	s := New(store, srv.URL, srv.Client())
	login(t, s)
	var once sync.Once
	store.before = func(key, value string) {
		if key == KeyAccess && value == "late-access" {
			once.Do(s.Clear)
		}
	}

	tok, err := s.Refresh(context.Background(), "old-access")
	if !errors.Is(err, ErrSessionExpired) || tok != "" {
		t.Fatalf("Refresh = %q, %v", tok, err)
	}
	if s.LoggedIn() {
		t.Fatal("still logged in")
	}
	if got := s.Token(); got != "" {
		t.Fatalf("logged-out session hands out token %q", got)
	}
	for _, k := range []string{KeyAccess, KeyRefresh, KeyUser} {
		if _, found, _ := store.Get(k); found {
			t.Fatalf("%s still stored", k)
		}
	}
}

func TestClearWhilePersistingLoginWins(t *testing.T) {
	store := &hookStorage{MemoryStorage: NewMemoryStorage()}
	s := New(store, "http://unused", nil)
	var once sync.Once
	store.before = func(key, _ string) {
		if key == KeyUser {
			once.Do(s.Clear)
		}
	}

	err := s.Begin(models.LoginResponse{
		Access:  "old-access",
		Refresh: "refresh-1",
		User:    models.AuthUser{ID: 1, Username: "admin"},
	})
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("Begin err = %v", err)
	}
	if s.LoggedIn() || s.Token() != "" || s.RefreshToken() != "" {
		t.Fatal("session survived a logout during login")
	}
	for _, k := range []string{KeyAccess, KeyRefresh, KeyUser} {
		if _, found, _ := store.Get(k); found {
			t.Fatalf("%s still stored", k)
		}
	}
}

func TestCancelledCallerDoesNotFailSharedRefresh(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() { close(entered) })
		<-release
		_, _ = w.Write([]byte(`{"access":"new-access"}`))
	}))
	defer srv.Close()

	s := New(nil, srv.URL, srv.Client())
	login(t, s)

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()
	errA := make(chan error, 1)
	go func() {
		_, err := s.Refresh(ctxA, "old-access")
		errA <- err
	}()
	<-entered

	type result struct {
		tok string
		err error
	}
	resB := make(chan result, 1)
	go func() {
		tok, err := s.Refresh(context.Background(), "old-access")
		resB <- result{tok, err}
	}()
	time.Sleep(20 * time.Millisecond)
	cancelA()

	if err := <-errA; !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled caller err = %v", err)
	}
	close(release)
	b := <-resB
	if b.err != nil || b.tok != "new-access" {
		t.Fatalf("live caller = %q, %v", b.tok, b.err)
	}
	if s.Token() != "new-access" || !s.LoggedIn() {
		t.Fatalf("session token = %q", s.Token())
	}
}

func TestAccessExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("whatever"))
	if err != nil {
		t.Fatal(err)
	}

	s := New(nil, "", nil)
	if _, ok := s.AccessExpiry(); ok {
		t.Fatal("no token should give no expiry")
	}
	_ = s.SetAccess(tok)
	got, ok := s.AccessExpiry()
	if !ok || !got.Equal(exp) {
		t.Fatalf("expiry = %v, %v; want %v", got, ok, exp)
	}
}
