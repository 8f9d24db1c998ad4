package provider

import (
	"regexp"
	"strings"
)

// Terminal is the end-state a frame parser can report for a stream.
type Terminal int

const (
	TerminalNone Terminal = iota
	TerminalDone
	TerminalError
)

// FrameResult is what one Feed call produced: the incremental text deltas
// decoded from newly completed frames, and optionally a terminal status.
type FrameResult struct {
	Deltas   []string
	Terminal Terminal
	Err      *APIError
}

// FrameParser decodes one provider's chunked streaming wire format. Feed
// must be called with the entire accumulated raw response text each time,
// not just the new bytes: the transport only exposes a growing buffer. The
// parser tracks how much of the buffer it has already consumed and carries
// an unconsumed trailing partial line across calls, so feeding the same
// final buffer in one call or many produces the same concatenated deltas.
type FrameParser interface {
	Feed(raw string) FrameResult
}

// frameReader is the shared consumed-length/partial-line bookkeeping used
// by all three parser variants.
type frameReader struct {
	processed int
	partial   string
}

// completeLines returns the lines that became complete with this buffer
// growth. The last split segment is held back as a new partial line unless
// the buffer itself ends on a line break.
func (r *frameReader) completeLines(raw string) []string {
	if len(raw) <= r.processed {
		return nil
	}
	chunk := r.partial + raw[r.processed:]
	r.processed = len(raw)

	parts := strings.Split(chunk, "\n")
	// Split always yields at least one element; the final element is either
	// "" (buffer ended on a break) or an incomplete line to hold back.
	r.partial = parts[len(parts)-1]
	parts = parts[:len(parts)-1]

	lines := make([]string, 0, len(parts))
	for _, line := range parts {
		lines = append(lines, strings.TrimSuffix(line, "\r"))
	}
	return lines
}

const (
	dataPrefix   = "data:"
	doneSentinel = "[DONE]"
)

// eventData strips the "data:" / "data: " frame prefix and surrounding
// whitespace. ok is false for non-event lines (comments, blank keep-alives,
// event-name lines), which callers skip.
func eventData(line string) (payload string, ok bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, dataPrefix) {
		return "", false
	}
	return strings.TrimSpace(line[len(dataPrefix):]), true
}

var newlineRuns = regexp.MustCompile(`\n{2,}`)

// normalizeDelta collapses consecutive newlines in a decoded delta to a
// single newline.
func normalizeDelta(s string) string {
	return newlineRuns.ReplaceAllString(s, "\n")
}
