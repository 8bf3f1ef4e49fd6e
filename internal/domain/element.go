package domain

// ElementID is a caller-supplied stable handle for one controlled media
// element. The aggregate algorithm only needs it to remember the last
// reported audible flag per element.
type ElementID string

// MediaEvent is a lifecycle transition reported by a controlled element.
type MediaEvent int

const (
	MediaStarted MediaEvent = iota
	MediaStopped
	MediaPlayed
	MediaPaused
)

func (e MediaEvent) String() string {
	switch e {
	case MediaStarted:
		return "started"
	case MediaStopped:
		return "stopped"
	case MediaPlayed:
		return "playing"
	case MediaPaused:
		return "paused"
	}
	return "unknown"
}
