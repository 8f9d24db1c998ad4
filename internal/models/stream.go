package models

// StreamEventKind discriminates the per-job stream events emitted while a
// job's model response is being reconstructed.
type StreamEventKind string

const (
	StreamEventStart  StreamEventKind = "start"
	StreamEventChunk  StreamEventKind = "chunk"
	StreamEventFinish StreamEventKind = "finish"
	StreamEventError  StreamEventKind = "error"
)

// StreamEvent is emitted per job during execution. For a given execution:
// exactly one start, zero or more chunks (each chunk is a suffix appended to
// previously delivered text, never a duplicate or reordering), then exactly
// one of finish/error.
type StreamEvent struct {
	JobID string          `json:"jobId"`
	Kind  StreamEventKind `json:"kind"`
	Chunk string          `json:"chunk,omitempty"`
	Error string          `json:"error,omitempty"`
}
