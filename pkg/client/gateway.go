package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"
)

// Client is a small typed client for the gateway's JSON-RPC route.
type Client struct {
	baseURL    string
	network    string
	token      string
	httpClient *http.Client
}

func New(baseURL, network, token string) *Client {
	return &Client{
		baseURL:    baseURL,
		network:    network,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Request is a single JSON-RPC request. IDs are ULIDs so responses can be
// correlated with the gateway's persisted records.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      string `json:"id"`
}

type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *Error          `json:"error,omitempty"`
}

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Call invokes one JSON-RPC method through the gateway and returns the raw
// result member. A logical JSON-RPC error comes back as *Error.
func (c *Client) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	if params == nil {
		params = []any{}
	}
	payload, err := json.Marshal(Request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      ulid.Make().String(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	body, err := c.Raw(ctx, payload)
	if err != nil {
		return nil, err
	}

	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode gateway response %q: %w", body, err)
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return resp.Result, nil
}

// Raw relays an already-encoded JSON-RPC payload (single or batch) and
// returns the backend's raw body.
func (c *Client) Raw(ctx context.Context, payload []byte) ([]byte, error) {
	url := fmt.Sprintf("%s/rpc/%s/%s", c.baseURL, c.network, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, body)
	}
	return body, nil
}

// BlockNumber is a convenience wrapper for the most common probe call.
func (c *Client) BlockNumber(ctx context.Context) (string, error) {
	result, err := c.Call(ctx, "eth_blockNumber", nil)
	if err != nil {
		return "", err
	}
	var number string
	if err := json.Unmarshal(result, &number); err != nil {
		return "", fmt.Errorf("unexpected block number payload %q: %w", result, err)
	}
	return number, nil
}
