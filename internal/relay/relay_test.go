package relay

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// countingTransport counts round trips so tests can prove that input
// validation short-circuits before any network call.
type countingTransport struct {
	calls int
	inner http.RoundTripper
}

func (t *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.calls++
	return t.inner.RoundTrip(req)
}

func TestCallRejectsMalformedPayloads(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"not json", `{"jsonrpc":`},
		{"not object or array", `"eth_blockNumber"`},
		{"number", `42`},
		{"empty batch", `[]`},
		{"missing jsonrpc", `{"method":"eth_blockNumber","params":[],"id":1}`},
		{"missing method", `{"jsonrpc":"2.0","params":[],"id":1}`},
		{"missing params", `{"jsonrpc":"2.0","method":"eth_blockNumber","id":1}`},
		{"missing id", `{"jsonrpc":"2.0","method":"eth_blockNumber","params":[]}`},
		{"batch entry not object", `[{"jsonrpc":"2.0","method":"m","params":[],"id":1}, 7]`},
		{"batch entry missing field", `[{"jsonrpc":"2.0","method":"m","params":[],"id":1},{"jsonrpc":"2.0","params":[],"id":2}]`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			transport := &countingTransport{inner: http.DefaultTransport}
			r := NewWithClient(&http.Client{Transport: transport}, time.Second)

			rec := r.Call(context.Background(), "http://127.0.0.1:0", []byte(tc.payload))

			if rec.InputError == "" {
				t.Fatal("expected input error")
			}
			if rec.Code != 0 {
				t.Errorf("code = %d, want 0", rec.Code)
			}
			if transport.calls != 0 {
				t.Errorf("transport called %d times, want 0", transport.calls)
			}
			if rec.Timeout || rec.ResultValid {
				t.Error("input error record must not carry timeout or result_valid")
			}
		})
	}
}

const validPayload = `{"jsonrpc":"2.0","method":"eth_blockNumber","params":[],"id":1}`

func TestCallValidResponse(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if ct := req.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"0x10"}`))
	}))
	defer backend.Close()

	rec := New(time.Second).Call(context.Background(), backend.URL, []byte(validPayload))

	if !rec.ResultValid {
		t.Fatalf("result_valid = false, error=%q input_error=%q", rec.Error, rec.InputError)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("code = %d", rec.Code)
	}
	if rec.Status != "ok" {
		t.Errorf("status = %q, want ok", rec.Status)
	}
	if rec.Response != `{"jsonrpc":"2.0","id":1,"result":"0x10"}` {
		t.Errorf("response = %q", rec.Response)
	}
	if rec.ResponseTime <= 0 {
		t.Error("response_time not recorded")
	}
}

func TestCallBackendGatewayTimeout(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "upstream timeout", http.StatusGatewayTimeout)
	}))
	defer backend.Close()

	rec := New(time.Second).Call(context.Background(), backend.URL, []byte(validPayload))

	if !rec.Timeout {
		t.Fatal("timeout not set on 504")
	}
	if rec.ResultValid {
		t.Error("result_valid must stay unset on 504")
	}
	if rec.Code != http.StatusGatewayTimeout {
		t.Errorf("code = %d", rec.Code)
	}
	if rec.Error == "" {
		t.Error("error message missing")
	}
}

func TestCallNonJSONBody(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte("<html>not rpc</html>"))
	}))
	defer backend.Close()

	rec := New(time.Second).Call(context.Background(), backend.URL, []byte(validPayload))

	if rec.ResultValid {
		t.Error("result_valid set for non-JSON body")
	}
	if rec.Error != "" {
		t.Errorf("error = %q, want empty", rec.Error)
	}
	if rec.Timeout {
		t.Error("timeout set for non-JSON body")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("code = %d", rec.Code)
	}
}

func TestCallInternalTimeout(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer backend.Close()

	rec := New(50 * time.Millisecond).Call(context.Background(), backend.URL, []byte(validPayload))

	if !rec.Timeout {
		t.Fatalf("timeout not set, error=%q", rec.Error)
	}
	if rec.ResultValid {
		t.Error("result_valid set on timeout")
	}
}

func TestCallConnectionError(t *testing.T) {
	// Reserve a port and close it so the dial is refused.
	l := httptest.NewServer(http.NotFoundHandler())
	address := l.URL
	l.Close()

	rec := New(time.Second).Call(context.Background(), address, []byte(validPayload))

	if rec.Error == "" {
		t.Fatal("error not set on connection failure")
	}
	if rec.Timeout {
		t.Error("connection refusal misclassified as timeout")
	}
	if rec.ResultValid {
		t.Error("result_valid set on connection failure")
	}
	if !strings.Contains(rec.Error, "backend request failed") {
		t.Errorf("error = %q", rec.Error)
	}
}
