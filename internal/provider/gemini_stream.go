package provider

import (
	"encoding/json"
	"strings"
)

// geminiFrameParser decodes the candidate-array wire format. The
// incremental text arrives either as candidates[0].delta.content.parts[]
// or as candidates[0].content.parts[]; both shapes must be accepted. The
// stream has no sentinel line and ends with the transport.
type geminiFrameParser struct {
	frameReader
}

func newGeminiFrameParser() FrameParser { return &geminiFrameParser{} }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiChunk struct {
	Candidates []struct {
		Delta *struct {
			Content geminiContent `json:"content"`
		} `json:"delta"`
		Content *geminiContent `json:"content"`
	} `json:"candidates"`
}

func (p *geminiFrameParser) Feed(raw string) FrameResult {
	var res FrameResult
	for _, line := range p.completeLines(raw) {
		payload, ok := eventData(line)
		if !ok || payload == "" || payload == doneSentinel {
			continue
		}

		var chunk geminiChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			continue
		}
		if len(chunk.Candidates) == 0 {
			continue
		}

		cand := chunk.Candidates[0]
		var parts []geminiPart
		switch {
		case cand.Delta != nil:
			parts = cand.Delta.Content.Parts
		case cand.Content != nil:
			parts = cand.Content.Parts
		}

		var b strings.Builder
		for _, part := range parts {
			b.WriteString(part.Text)
		}
		if b.Len() > 0 {
			res.Deltas = append(res.Deltas, normalizeDelta(b.String()))
		}
	}
	return res
}
