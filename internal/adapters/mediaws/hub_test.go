package mediaws

import (
	"encoding/json"
	"testing"

	"github.com/akarpov/mediactl/internal/domain"
)

func TestWatcherHubBroadcastsStateEvents(t *testing.T) {
	h := NewWatcherHub()
	conn := newWSConn(nil, 4)
	h.add("w-1", conn)

	h.NotifyStateChanged("tab-1", domain.PlaybackPlaying, true)

	select {
	case data := <-conn.send:
		var msg struct {
			Type       string `json:"type"`
			Controller string `json:"controller"`
			State      string `json:"state"`
			Audible    bool   `json:"audible"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if msg.Type != "state" || msg.Controller != "tab-1" || msg.State != "playing" || !msg.Audible {
			t.Fatalf("state event = %+v", msg)
		}
	default:
		t.Fatal("watcher received no event")
	}
}

func TestWatcherHubMainEvents(t *testing.T) {
	h := NewWatcherHub()
	conn := newWSConn(nil, 4)
	h.add("w-1", conn)

	h.NotifyMainChanged("tab-1", true)
	h.NotifyMainChanged("", false)

	var msg struct {
		Type       string  `json:"type"`
		Controller *string `json:"controller"`
	}
	data := <-conn.send
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != "main" || msg.Controller == nil || *msg.Controller != "tab-1" {
		t.Fatalf("main event = %+v", msg)
	}

	data = <-conn.send
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Controller != nil {
		t.Fatalf("want null controller when none active, got %v", *msg.Controller)
	}
}

func TestWatcherHubReconnectKeepsNewWatcher(t *testing.T) {
	// Watcher session IDs come from a stable client token, so a
	// reconnect replaces the registered conn. The old conn's read
	// goroutine exiting afterwards must not deregister the new one.
	h := NewWatcherHub()
	old := newWSConn(nil, 4)
	h.add("w-1", old)

	replacement := newWSConn(nil, 4)
	h.add("w-1", replacement)

	// The dying old connection's cleanup runs late.
	h.remove("w-1", old)

	if got := h.WatcherCount(); got != 1 {
		t.Fatalf("WatcherCount() = %d after reconnect, want 1", got)
	}
	h.NotifyStateChanged("tab-1", domain.PlaybackPlaying, false)
	if len(replacement.send) != 1 {
		t.Fatalf("live watcher queued %d events, want 1", len(replacement.send))
	}

	// The replacement's own cleanup still deregisters it.
	h.remove("w-1", replacement)
	if got := h.WatcherCount(); got != 0 {
		t.Fatalf("WatcherCount() = %d after own removal, want 0", got)
	}
}

func TestWatcherHubDropsSlowWatchers(t *testing.T) {
	h := NewWatcherHub()
	slow := newWSConn(nil, 1)
	fast := newWSConn(nil, 8)
	h.add("slow", slow)
	h.add("fast", fast)

	// Second event overflows the slow watcher's queue; it gets dropped,
	// the fast one stays attached.
	h.NotifyStateChanged("tab-1", domain.PlaybackPlaying, false)
	h.NotifyStateChanged("tab-1", domain.PlaybackPaused, false)

	if got := h.WatcherCount(); got != 1 {
		t.Fatalf("WatcherCount() = %d, want 1 after slow watcher dropped", got)
	}
	if len(fast.send) != 2 {
		t.Fatalf("fast watcher queued %d events, want 2", len(fast.send))
	}
}
