package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// wireFormat is what distinguishes the three provider variants: how the
// request body, endpoint and headers are built, and which frame parser
// decodes the response stream.
type wireFormat interface {
	name() string
	// endpoint may embed the credential (the candidate-array API keys by
	// query parameter); reportEndpoint is the credential-free form used in
	// errors and logs.
	endpoint(cfg Config, key string) string
	reportEndpoint(cfg Config) string
	headers(cfg Config, key string) map[string]string
	body(cfg Config, req Request) (any, error)
	newParser() FrameParser
}

// Adapter implements Provider over a raw streaming POST. One generic
// transport loop serves all three wire formats.
type Adapter struct {
	format wireFormat
	cfg    Config
	client *http.Client
}

func newAdapter(format wireFormat, cfg Config) *Adapter {
	return &Adapter{
		format: format,
		cfg:    cfg,
		// No overall timeout: streams legitimately run for minutes. Caller
		// contexts bound the call; the transport bounds the dial.
		client: &http.Client{
			Transport: &http.Transport{
				ResponseHeaderTimeout: 60 * time.Second,
			},
		},
	}
}

func (a *Adapter) Name() string  { return a.format.name() }
func (a *Adapter) Model() string { return a.cfg.Model }

func (a *Adapter) Send(ctx context.Context, req Request, key string, onDelta func(string)) (string, error) {
	if key == "" {
		return "", &ConfigError{Provider: a.Name(), Reason: "no api key configured"}
	}

	body, err := a.format.body(a.cfg, req)
	if err != nil {
		return "", fmt.Errorf("%s: build request body: %w", a.Name(), err)
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("%s: encode request body: %w", a.Name(), err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.format.endpoint(a.cfg, key), bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%s: build request: %w", a.Name(), err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	for k, v := range a.format.headers(a.cfg, key) {
		httpReq.Header.Set(k, v)
	}

	log.Debugf("%s: POST %s (%d bytes)", a.Name(), a.format.reportEndpoint(a.cfg), len(payload))

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%s: send request to %s: %w", a.Name(), a.format.reportEndpoint(a.cfg), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody+1))
		return "", newAPIError(a.Name(), resp.StatusCode, a.format.reportEndpoint(a.cfg), raw)
	}

	return a.consumeStream(resp.Body, onDelta)
}

// consumeStream reads the response into a growing buffer and feeds the
// whole buffer to the frame parser after every read, mirroring a transport
// that only exposes accumulated text. Partial output already delivered to
// the caller survives a mid-stream transport failure.
func (a *Adapter) consumeStream(body io.Reader, onDelta func(string)) (string, error) {
	parser := a.format.newParser()
	var raw strings.Builder
	var out strings.Builder
	buf := make([]byte, 4096)

	deliver := func(deltas []string) {
		for _, d := range deltas {
			out.WriteString(d)
			if onDelta != nil {
				onDelta(d)
			}
		}
	}

	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			raw.Write(buf[:n])
			res := parser.Feed(raw.String())
			deliver(res.Deltas)

			switch res.Terminal {
			case TerminalDone:
				return out.String(), nil
			case TerminalError:
				// A provider-signaled error is authoritative; it wins over
				// whatever partial text was decoded before it.
				apiErr := res.Err
				if apiErr == nil {
					apiErr = &APIError{Provider: a.Name()}
				}
				apiErr.Provider = a.Name()
				apiErr.Endpoint = a.format.reportEndpoint(a.cfg)
				return "", apiErr
			}
		}

		if readErr != nil {
			if readErr == io.EOF {
				// Transport close is a legitimate terminator for formats
				// without a sentinel.
				return out.String(), nil
			}
			if out.Len() > 0 {
				log.Warnf("%s: stream aborted after %d chars of output, keeping partial text: %v", a.Name(), out.Len(), readErr)
				return out.String(), nil
			}
			return "", fmt.Errorf("%s: read stream from %s: %w", a.Name(), a.format.reportEndpoint(a.cfg), readErr)
		}
	}
}
