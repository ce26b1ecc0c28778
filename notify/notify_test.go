package notify

import (
	"testing"
	"time"
)

func TestNotificationExpires(t *testing.T) {
	n := New(40 * time.Millisecond)
	n.Success("Client créé avec succès")

	got, ok := n.Current()
	if !ok || got.Kind != Success || got.Message != "Client créé avec succès" {
		t.Fatalf("current = %+v, %v", got, ok)
	}
	time.Sleep(120 * time.Millisecond)
	if _, ok := n.Current(); ok {
		t.Fatal("notification should have expired")
	}
}

func TestNewerNotificationSurvivesOldTimer(t *testing.T) {
	n := New(80 * time.Millisecond)
	n.Error("first")
	time.Sleep(50 * time.Millisecond)
	n.Warning("second")
	time.Sleep(50 * time.Millisecond)

	got, ok := n.Current()
	if !ok || got.Message != "second" {
		t.Fatalf("current = %+v, %v; want second", got, ok)
	}
}

func TestEmptyMessageDismisses(t *testing.T) {
	n := New(time.Second)
	n.Success("ok")
	n.Show(Success, "")
	if _, ok := n.Current(); ok {
		t.Fatal("empty message should dismiss")
	}
}

func TestSubscribe(t *testing.T) {
	n := New(time.Second)
	var seen []Kind
	n.Subscribe(func(note Notification) { seen = append(seen, note.Kind) })
	n.Success("a")
	n.Error("b")
	if len(seen) != 2 || seen[0] != Success || seen[1] != Error {
		t.Fatalf("seen = %v", seen)
	}
}
