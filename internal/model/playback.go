package model

// PlaybackState is the controller's state machine position.
type PlaybackState string

const (
	StateStopped PlaybackState = "stopped"
	StatePlaying PlaybackState = "playing"
	StatePaused  PlaybackState = "paused"
	StateSeeking PlaybackState = "seeking"
)
