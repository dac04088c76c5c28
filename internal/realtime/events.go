package realtime

import "canvas_ai_server/internal/types"

// Event names on the wire.
const (
	EventStart         = "start"
	EventPhaseStart    = "phase_start"
	EventChunk         = "chunk"
	EventPhaseComplete = "phase_complete"
	EventComplete      = "complete"
	EventError         = "error"
)

// Event is the closed set of payloads broadcast during a build.
// Only the types in this file implement it.
type Event interface {
	EventName() string
	isEvent()
}

type StartEvent struct {
	Instruction  string `json:"instruction"`
	TotalPhases  int    `json:"totalPhases"`
	IsFirstBuild bool   `json:"isFirstBuild"`
}

type PhaseStartEvent struct {
	PhaseID          string `json:"phaseId"`
	PhaseName        string `json:"phaseName"`
	PhaseDescription string `json:"phaseDescription"`
	PhaseIndex       int    `json:"phaseIndex"`
	TotalPhases      int    `json:"totalPhases"`
}

// ChunkEvent carries the next slice of generated text. PhaseID is empty in direct mode.
type ChunkEvent struct {
	Text    string `json:"text"`
	PhaseID string `json:"phaseId,omitempty"`
}

type PhaseCompleteEvent struct {
	PhaseID      string        `json:"phaseId"`
	PhaseName    string        `json:"phaseName"`
	Files        types.FileSet `json:"files"`
	CombinedHTML string        `json:"combinedHtml"`
	PhaseIndex   int           `json:"phaseIndex"`
	TotalPhases  int           `json:"totalPhases"`
}

type CompleteEvent struct {
	Files        types.FileSet `json:"files"`
	CombinedHTML string        `json:"combinedHtml"`
	Version      int           `json:"version"`
}

type ErrorEvent struct {
	Message string `json:"message"`
}

func (StartEvent) EventName() string         { return EventStart }
func (PhaseStartEvent) EventName() string    { return EventPhaseStart }
func (ChunkEvent) EventName() string         { return EventChunk }
func (PhaseCompleteEvent) EventName() string { return EventPhaseComplete }
func (CompleteEvent) EventName() string      { return EventComplete }
func (ErrorEvent) EventName() string         { return EventError }

func (StartEvent) isEvent()         {}
func (PhaseStartEvent) isEvent()    {}
func (ChunkEvent) isEvent()         {}
func (PhaseCompleteEvent) isEvent() {}
func (CompleteEvent) isEvent()      {}
func (ErrorEvent) isEvent()         {}

// Envelope is the JSON frame delivered to viewers.
type Envelope struct {
	Type    string `json:"type"`
	Event   string `json:"event"`
	Payload Event  `json:"payload"`
}

func NewEnvelope(e Event) Envelope {
	return Envelope{Type: "broadcast", Event: e.EventName(), Payload: e}
}
