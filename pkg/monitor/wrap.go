package monitor

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// CallResult is what a wrapped operation reports back for bookkeeping.
type CallResult struct {
	// StatusCode is the HTTP status of the upstream response, 0 if the
	// call never produced one.
	StatusCode int

	// Header carries the response headers inspected for throttling
	// signals. May be nil.
	Header http.Header
}

// CallFunc is a monitored upstream operation.
type CallFunc func(ctx context.Context) (*CallResult, error)

// Wrap runs fn between a StartCall/EndCall pair, guaranteeing the end-side
// bookkeeping on every exit path. The original error (or panic) is passed
// through unchanged after being recorded.
func (m *Monitor) Wrap(ctx context.Context, api, method, url string, fn CallFunc) (res *CallResult, err error) {
	callID := uuid.NewString()
	m.StartCall(callID, api, method, url)

	defer func() {
		if r := recover(); r != nil {
			m.EndCall(callID, 0, false, fmt.Errorf("panic: %v", r), nil)
			panic(r)
		}
	}()

	res, err = fn(ctx)

	statusCode := 0
	var headers http.Header
	if res != nil {
		statusCode = res.StatusCode
		headers = res.Header
	}
	success := err == nil && (res == nil || res.StatusCode < 400)

	m.EndCall(callID, statusCode, success, err, headers)
	return res, err
}

// Do executes an HTTP request through client with full start/end
// bookkeeping. The response and error are returned exactly as the client
// produced them.
func (m *Monitor) Do(ctx context.Context, api string, client *http.Client, req *http.Request) (*http.Response, error) {
	if client == nil {
		client = http.DefaultClient
	}

	callID := uuid.NewString()
	m.StartCall(callID, api, req.Method, req.URL.String())

	resp, err := client.Do(req.WithContext(ctx))

	statusCode := 0
	var headers http.Header
	if resp != nil {
		statusCode = resp.StatusCode
		headers = resp.Header
	}
	success := err == nil && resp != nil && resp.StatusCode < 400

	m.EndCall(callID, statusCode, success, err, headers)
	return resp, err
}
