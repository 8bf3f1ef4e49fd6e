package core

import "github.com/akarpov/mediactl/internal/domain"

// ActiveControllerRegistry receives the 0->1 / 1->0 controlled-media
// transitions of a controller. Both calls are idempotent per controller
// identity; duplicate notifications around the zero boundary are no-ops.
type ActiveControllerRegistry interface {
	RegisterActiveController(*Controller)
	UnregisterActiveController(*Controller)
}

// ControllerInfo is a read-only view for APIs (no callbacks or locks).
type ControllerInfo struct {
	ID         domain.ControllerID  `json:"id"`
	MediaCount int                  `json:"media_count"`
	State      domain.PlaybackState `json:"state"`
	Audible    bool                 `json:"audible"`
	Active     bool                 `json:"active"`
}
