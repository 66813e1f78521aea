package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
)

var (
	ErrSinkTimeout     = errors.New("sink timeout")
	ErrSinkUnreachable = errors.New("sink unreachable")
)

// SinkClient wraps one webhook dispatch round trip against the workflow sink.
// A call that reaches the sink "succeeds" at this level regardless of status
// code; interpreting status >= 400 as a dispatch failure is the caller's job.
// No internal retry.
type SinkClient struct {
	webhookURL string
	httpClient *http.Client
}

func NewSinkClient(webhookURL string, client *http.Client) *SinkClient {
	if client == nil {
		client = externalHTTPClient
	}
	return &SinkClient{webhookURL: webhookURL, httpClient: client}
}

// Dispatch POSTs one workflow-trigger payload and returns the sink's decoded
// response body and status code. The payload schema is the caller's concern.
func (s *SinkClient) Dispatch(ctx context.Context, payload map[string]any) (map[string]any, int, error) {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("marshaling sink payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.webhookURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, 0, fmt.Errorf("creating sink request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		log.Printf("sink dispatch error: %v", err)
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, 0, fmt.Errorf("%w: %v", ErrSinkTimeout, err)
		}
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, 0, fmt.Errorf("%w: %v", ErrSinkTimeout, err)
		}
		return nil, 0, fmt.Errorf("%w: %v", ErrSinkUnreachable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: reading response: %v", ErrSinkUnreachable, err)
	}

	decoded := map[string]any{}
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &decoded); err != nil {
			// Non-JSON body from the sink is still a response; keep it raw.
			decoded = map[string]any{"raw": string(respBody)}
		}
	}

	log.Printf("sink dispatch status=%d size=%d", resp.StatusCode, len(respBody))
	return decoded, resp.StatusCode, nil
}
