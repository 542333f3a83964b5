package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"clnoffers/internal/logging"
)

// HTTPCaller implements Caller over a node's REST bridge (clnrest-style):
// every method is POST {base}/v1/{method} with the params as the JSON body
// and a rune for authentication.
type HTTPCaller struct {
	baseURL    string
	rune       string
	httpClient *http.Client
}

// HTTPConfig holds configuration for the REST transport.
type HTTPConfig struct {
	BaseURL string        // e.g. "https://node.example.com:3010"
	Rune    string        // base64 rune authorizing the methods this subsystem calls
	Timeout time.Duration // per-call timeout, defaults to 30s
}

// NewHTTPCaller creates a REST-backed Caller.
func NewHTTPCaller(cfg HTTPConfig) (*HTTPCaller, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.Rune == "" {
		return nil, fmt.Errorf("rune is required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &HTTPCaller{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		rune:       cfg.Rune,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// httpErrorBody is the envelope the bridge wraps a node rejection in.
type httpErrorBody struct {
	Error *RPCError `json:"error"`
}

func (h *HTTPCaller) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	if params == nil {
		params = map[string]any{}
	}

	body, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal %s params: %w", method, err)
	}

	url := h.baseURL + "/v1/" + method
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Rune", h.rune)
	req.Header.Set("Content-Type", "application/json")

	logging.RPC.Printf("calling %s", method)

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", method, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var rejection httpErrorBody
		if err := json.Unmarshal(raw, &rejection); err == nil && rejection.Error != nil {
			logging.RPC.Printf("%s rejected: %v", method, rejection.Error)
			return nil, rejection.Error
		}
		return nil, fmt.Errorf("%s returned status %d: %s", method, resp.StatusCode, string(raw))
	}

	return json.RawMessage(raw), nil
}
