package provider

import (
	"encoding/json"
)

// anthropicFrameParser decodes the typed-event wire format: every frame
// carries a "type" field, only content_block_delta events contribute text,
// message_stop ends the stream, and error events carry a structured error.
type anthropicFrameParser struct {
	frameReader
}

func newAnthropicFrameParser() FrameParser { return &anthropicFrameParser{} }

type anthropicEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (p *anthropicFrameParser) Feed(raw string) FrameResult {
	var res FrameResult
	for _, line := range p.completeLines(raw) {
		payload, ok := eventData(line)
		if !ok || payload == "" || payload == doneSentinel {
			continue
		}

		var ev anthropicEvent
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			continue
		}

		switch ev.Type {
		case "content_block_delta":
			if ev.Delta.Text != "" {
				res.Deltas = append(res.Deltas, normalizeDelta(ev.Delta.Text))
			}
		case "message_stop":
			res.Terminal = TerminalDone
			return res
		case "error":
			res.Terminal = TerminalError
			apiErr := &APIError{Provider: "anthropic"}
			if ev.Error != nil {
				apiErr.Code = ev.Error.Type
				apiErr.Message = ev.Error.Message
			}
			res.Err = apiErr
			return res
		}
	}
	return res
}
