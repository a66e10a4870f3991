package schema

// State is the small assistant-state enumeration consumed by voice and GUI
// front ends. The core only emits transitions; presentation is external.
type State string

const (
	StateIdle       State = "idle"
	StateListening  State = "listening"
	StateProcessing State = "processing"
	StateSpeaking   State = "speaking"
)
