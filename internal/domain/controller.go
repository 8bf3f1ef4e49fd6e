// Package domain contains entities without logic, just meta-data.
package domain

import (
	"encoding/json"
	"fmt"
)

// ControllerID identifies one controllable group (a tab, or a
// browsing-context group). Assigned at creation, never changes.
type ControllerID string

// PlaybackState is the aggregate playback state of a controller
// (Stopped, Playing, or Paused).
type PlaybackState int

const (
	PlaybackStopped PlaybackState = iota
	PlaybackPlaying
	PlaybackPaused
)

func (s PlaybackState) String() string {
	switch s {
	case PlaybackStopped:
		return "stopped"
	case PlaybackPlaying:
		return "playing"
	case PlaybackPaused:
		return "paused"
	}
	return "unknown"
}

// MarshalJSON encodes the state as its lowercase name so API clients
// never see raw enum values.
func (s PlaybackState) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

func (s *PlaybackState) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	switch name {
	case "stopped":
		*s = PlaybackStopped
	case "playing":
		*s = PlaybackPlaying
	case "paused":
		*s = PlaybackPaused
	default:
		return fmt.Errorf("unknown playback state %q", name)
	}
	return nil
}
