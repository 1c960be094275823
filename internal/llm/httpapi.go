package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrAPI matches every *APIError.
var ErrAPI = errors.New("provider API error")

// APIError is a non-200 reply from a provider's HTTP API.
type APIError struct {
	Provider string
	Status   int
	Message  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.Status, e.Message)
}

func (e *APIError) Is(target error) bool { return target == ErrAPI }

// Retryable reports whether repeating the request may succeed: rate
// limiting and server-side failures.
func (e *APIError) Retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// jsonAPI is the HTTP plumbing shared by the providers without an SDK.
type jsonAPI struct {
	provider string
	client   *http.Client
	header   http.Header
}

func newJSONAPI(provider string, header http.Header) jsonAPI {
	if header == nil {
		header = http.Header{}
	}
	return jsonAPI{provider: provider, client: &http.Client{}, header: header}
}

// call sends in as the JSON body (none when nil) and decodes the reply
// into out.
func (a jsonAPI) call(ctx context.Context, method, url string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", a.provider, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("create %s request: %w", a.provider, err)
	}
	for k, v := range a.header {
		req.Header[k] = v
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", a.provider, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", a.provider, err)
	}
	if resp.StatusCode != http.StatusOK {
		return &APIError{Provider: a.provider, Status: resp.StatusCode, Message: errorMessage(data)}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", a.provider, err)
	}
	return nil
}

// errorMessage pulls the message out of the error bodies the providers
// send: {"error":{"message":...}}, {"error":"..."} or plain text.
func errorMessage(body []byte) string {
	var nested struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &nested) == nil && nested.Error.Message != "" {
		return nested.Error.Message
	}
	var flat struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &flat) == nil && flat.Error != "" {
		return flat.Error
	}
	return strings.TrimSpace(string(body))
}
