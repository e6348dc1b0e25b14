package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/ethflow/rpc-gateway/internal/models"
)

// DefaultTimeout bounds one complete request/response cycle against a backend.
const DefaultTimeout = 15 * time.Second

var requiredFields = []string{"jsonrpc", "method", "params", "id"}

// Relay performs a single JSON-RPC call against a single backend address.
// Every outcome, including transport failures and malformed input, is encoded
// in the returned RequestRecord; Call never returns an error.
type Relay struct {
	client  *http.Client
	timeout time.Duration
}

func New(timeout time.Duration) *Relay {
	return NewWithClient(&http.Client{}, timeout)
}

// NewWithClient allows injecting the HTTP client, used by tests to count
// transport calls.
func NewWithClient(client *http.Client, timeout time.Duration) *Relay {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Relay{client: client, timeout: timeout}
}

// Call validates payload, POSTs it to address and classifies the outcome.
// Validation failures set InputError and skip the network entirely, leaving
// Code at 0.
func (r *Relay) Call(ctx context.Context, address string, payload []byte) *models.RequestRecord {
	rec := &models.RequestRecord{
		Address: address,
		Payload: string(payload),
		Status:  models.StatusStarted,
		Date:    time.Now().UTC(),
	}

	if err := validatePayload(payload); err != nil {
		rec.InputError = err.Error()
		return rec
	}
	rec.Status = models.StatusSending

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, address, bytes.NewReader(payload))
	if err != nil {
		rec.Error = fmt.Sprintf("failed to build request: %v", err)
		return rec
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := r.client.Do(req)
	rec.ResponseTime = time.Since(start).Seconds()
	if err != nil {
		classifyTransportError(rec, err)
		return rec
	}
	defer resp.Body.Close()
	rec.Status = models.StatusReceived

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		classifyTransportError(rec, err)
		return rec
	}
	rec.Status = models.StatusRead
	rec.Code = resp.StatusCode
	rec.Response = string(body)

	// A 504 is the backend telling us it timed out upstream; the body is not
	// a JSON-RPC result and must not be parsed as one.
	if resp.StatusCode == http.StatusGatewayTimeout {
		rec.Timeout = true
		rec.Error = "backend reported gateway timeout"
		return rec
	}

	// Shape check only: well-formed JSON counts as valid even if it carries a
	// JSON-RPC error member. Callers needing logical success inspect Response.
	if json.Valid(body) {
		rec.Status = models.StatusParsed
		rec.ResultValid = true
		rec.Status = models.StatusOK
	}
	return rec
}

func classifyTransportError(rec *models.RequestRecord, err error) {
	var nerr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &nerr) && nerr.Timeout()) {
		rec.Timeout = true
		rec.Error = "timed out waiting for backend response"
		return
	}
	rec.Error = fmt.Sprintf("backend request failed: %v", err)
}

// validatePayload checks the structural JSON-RPC shape: a single object or a
// non-empty array of objects, each carrying jsonrpc/method/params/id.
func validatePayload(payload []byte) error {
	var parsed any
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return fmt.Errorf("failed to parse json: %v", err)
	}

	switch body := parsed.(type) {
	case map[string]any:
		return checkEntry(body)
	case []any:
		if len(body) == 0 {
			return errors.New("empty jsonrpc batch")
		}
		for i, entry := range body {
			obj, ok := entry.(map[string]any)
			if !ok {
				return fmt.Errorf("batch entry %d is not an object", i)
			}
			if err := checkEntry(obj); err != nil {
				return fmt.Errorf("batch entry %d: %v", i, err)
			}
		}
		return nil
	default:
		return errors.New("invalid jsonrpc request")
	}
}

func checkEntry(obj map[string]any) error {
	for _, field := range requiredFields {
		if _, ok := obj[field]; !ok {
			return fmt.Errorf("no %s field", field)
		}
	}
	return nil
}
