package provider

import (
	"encoding/json"
)

// openaiFrameParser decodes the delta-object wire format: newline-delimited
// "data: {json}" frames carrying choices[0].delta.content, terminated by a
// "data: [DONE]" sentinel line.
type openaiFrameParser struct {
	frameReader
}

func newOpenAIFrameParser() FrameParser { return &openaiFrameParser{} }

type openaiChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func (p *openaiFrameParser) Feed(raw string) FrameResult {
	var res FrameResult
	for _, line := range p.completeLines(raw) {
		payload, ok := eventData(line)
		if !ok || payload == "" {
			continue
		}
		if payload == doneSentinel {
			res.Terminal = TerminalDone
			return res
		}

		var chunk openaiChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			// One bad line never aborts the stream.
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if text := chunk.Choices[0].Delta.Content; text != "" {
			res.Deltas = append(res.Deltas, normalizeDelta(text))
		}
	}
	return res
}
