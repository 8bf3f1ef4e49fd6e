package core

import (
	"testing"

	"github.com/akarpov/mediactl/internal/domain"
)

func TestServiceGetOrCreateReturnsSameInstance(t *testing.T) {
	svc := NewService()

	a, created := svc.GetOrCreateController("tab-1")
	if !created {
		t.Fatal("first GetOrCreateController: want created=true")
	}
	b, created := svc.GetOrCreateController("tab-1")
	if created {
		t.Fatal("second GetOrCreateController: want created=false")
	}
	if a != b {
		t.Fatal("GetOrCreateController returned different instances for same id")
	}

	if _, ok := svc.GetController("tab-1"); !ok {
		t.Fatal("GetController: existing controller not found")
	}
	if _, ok := svc.GetController("tab-2"); ok {
		t.Fatal("GetController: found controller that was never created")
	}
}

func TestServiceRegistrationIsIdempotent(t *testing.T) {
	svc := NewService()
	c, _ := svc.GetOrCreateController("tab-1")

	svc.RegisterActiveController(c)
	svc.RegisterActiveController(c)
	if got := svc.ControllerCount(); got != 1 {
		t.Fatalf("ControllerCount() = %d after duplicate register, want 1", got)
	}

	svc.UnregisterActiveController(c)
	svc.UnregisterActiveController(c)
	if got := svc.ControllerCount(); got != 0 {
		t.Fatalf("ControllerCount() = %d after duplicate unregister, want 0", got)
	}
}

func TestServiceMainControllerFollowsActivationOrder(t *testing.T) {
	svc := NewService()

	var promoted []*Controller
	svc.OnMainControllerChanged(func(c *Controller) { promoted = append(promoted, c) })

	if svc.MainController() != nil {
		t.Fatal("MainController() != nil with no active controllers")
	}

	a, _ := svc.GetOrCreateController("tab-a")
	b, _ := svc.GetOrCreateController("tab-b")
	c, _ := svc.GetOrCreateController("tab-c")

	a.NotifyStarted("1")
	b.NotifyStarted("1")
	c.NotifyStarted("1")
	if got := svc.MainController(); got != c {
		t.Fatalf("MainController() = %v, want most recently activated (tab-c)", got)
	}

	// Deactivating a non-main controller does not change the main one.
	b.NotifyStopped("1")
	if got := svc.MainController(); got != c {
		t.Fatal("main controller changed when a non-main controller deactivated")
	}

	// Deactivating the main controller promotes the next most recent.
	c.NotifyStopped("1")
	if got := svc.MainController(); got != a {
		t.Fatalf("MainController() = %v, want tab-a after promotion", got)
	}

	a.NotifyStopped("1")
	if svc.MainController() != nil {
		t.Fatal("MainController() != nil after all controllers deactivated")
	}

	want := []*Controller{a, b, c, a, nil}
	if len(promoted) != len(want) {
		t.Fatalf("main-changed callbacks fired %d times, want %d", len(promoted), len(want))
	}
	for i := range want {
		if promoted[i] != want[i] {
			t.Fatalf("main-changed callback %d = %v, want %v", i, promoted[i], want[i])
		}
	}
}

func TestServiceDropController(t *testing.T) {
	svc := NewService()
	c, _ := svc.GetOrCreateController("tab-1")
	c.NotifyStarted("1")

	// Dropping is legal while elements are still started; the controller
	// simply leaves both the owned and active sets.
	svc.DropController("tab-1")
	if got := svc.ControllerCount(); got != 0 {
		t.Fatalf("ControllerCount() = %d after drop, want 0", got)
	}
	if _, ok := svc.GetController("tab-1"); ok {
		t.Fatal("dropped controller still owned")
	}

	// Dropping an unknown id is a no-op.
	svc.DropController("tab-404")
}

func TestServiceListAndInfo(t *testing.T) {
	svc := NewService()
	a, _ := svc.GetOrCreateController("tab-a")
	svc.GetOrCreateController("tab-b")

	a.NotifyStarted("1")
	a.NotifyPlayed("1")
	a.NotifyAudibleChanged("1", true)

	infos := svc.List()
	if len(infos) != 2 {
		t.Fatalf("List() returned %d controllers, want 2", len(infos))
	}
	byID := make(map[domain.ControllerID]ControllerInfo, len(infos))
	for _, info := range infos {
		byID[info.ID] = info
	}

	got, ok := byID["tab-a"]
	if !ok {
		t.Fatal("tab-a missing from List()")
	}
	want := ControllerInfo{ID: "tab-a", MediaCount: 1, State: domain.PlaybackPlaying, Audible: true, Active: true}
	if got != want {
		t.Errorf("tab-a info = %+v, want %+v", got, want)
	}

	got, ok = byID["tab-b"]
	if !ok {
		t.Fatal("tab-b missing from List()")
	}
	if got.Active || got.MediaCount != 0 || got.State != domain.PlaybackStopped {
		t.Errorf("tab-b info = %+v, want inactive stopped zero-count", got)
	}

	if _, ok := svc.Info("tab-404"); ok {
		t.Error("Info() reported an unknown controller")
	}
}
