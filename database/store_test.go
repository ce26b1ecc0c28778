package database

import (
	"strings"
	"testing"

	"gestion-admin/models"
	"gestion-admin/session"
)

func memoryStore(t *testing.T) *Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	st, err := Connect("file:" + name + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestStoreGetSetDelete(t *testing.T) {
	st := memoryStore(t)

	if _, ok, err := st.Get("missing"); err != nil || ok {
		t.Fatalf("Get(missing) = %v, %v", ok, err)
	}
	if err := st.Set("a", "1"); err != nil {
		t.Fatal(err)
	}
	if err := st.Set("a", "2"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := st.Set("b", "x"); err != nil {
		t.Fatal(err)
	}
	if v, ok, _ := st.Get("a"); !ok || v != "2" {
		t.Fatalf("a = %q, %v", v, ok)
	}
	if err := st.Delete("a", "b", "never-set"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := st.Get("b"); ok {
		t.Fatal("b survived Delete")
	}
	if err := st.Delete(); err != nil {
		t.Fatal(err)
	}
}

func TestSessionSurvivesReopen(t *testing.T) {
	st := memoryStore(t)
	s := session.New(st, "http://unused", nil)
	err := s.Begin(models.LoginResponse{
		Access:  "acc",
		Refresh: "ref",
		User:    models.AuthUser{ID: 7, Username: "awa", Role: models.RoleAdmin},
	})
	if err != nil {
		t.Fatal(err)
	}

	again := session.New(NewStore(st.DB()), "http://unused", nil)
	ok, err := again.Restore()
	if err != nil || !ok {
		t.Fatalf("Restore = %v, %v", ok, err)
	}
	u, _ := again.User()
	if again.Token() != "acc" || u.Username != "awa" {
		t.Fatalf("restored %q / %+v", again.Token(), u)
	}
}

func TestOpenRejectsEmptyDSN(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected an error")
	}
}
