package protocol

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Routes exposed by a viewer instance on its loopback port.
const (
	RouteToFrontend = "/toFrontend"
	RouteVersion    = "/version"
)

// Operation names accepted by the viewer's /toFrontend endpoint.
const (
	OpUpdateViewer     = "update_viewer"
	OpCommitToDocument = "commit_to_document"
	OpHide             = "hide"
	OpShow             = "show"
	OpHideAll          = "hide_all"
	OpShowAll          = "show_all"
	OpFitAll           = "fit_all"
	OpShowOnly         = "show_only"
	OpHideOnly         = "hide_only"
	OpSetTransparency  = "set_transparency"
	OpAddToDocument    = "add_to_document"
	OpSetObjectColour  = "set_object_colour"
	OpFindObjectByName = "find_object_by_name"
)

// NoViewerSentinel is the status value a request resolves to when no viewer
// instance is attached. It is distinct from a viewer rejecting the request.
const NoViewerSentinel = "NoViewerInstance"

// Status is the three-valued outcome of a viewer request. On the wire it is
// JSON true, false, or the string sentinel NoViewerSentinel.
type Status int

const (
	// StatusFailed means a viewer was attached but the request did not
	// succeed (rejected by the viewer or lost to a transport error).
	StatusFailed Status = iota

	// StatusOK means the viewer accepted the request.
	StatusOK

	// StatusNoViewer means no viewer instance is attached; the request was
	// never sent. This is the expected steady state in batch runs.
	StatusNoViewer
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNoViewer:
		return "no viewer"
	default:
		return "failed"
	}
}

// MarshalJSON encodes StatusOK/StatusFailed as JSON booleans and
// StatusNoViewer as the sentinel string.
func (s Status) MarshalJSON() ([]byte, error) {
	switch s {
	case StatusOK:
		return []byte("true"), nil
	case StatusNoViewer:
		return json.Marshal(NoViewerSentinel)
	default:
		return []byte("false"), nil
	}
}

// UnmarshalJSON accepts a JSON boolean or the sentinel string.
func (s *Status) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		if b {
			*s = StatusOK
		} else {
			*s = StatusFailed
		}
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		if str == NoViewerSentinel {
			*s = StatusNoViewer
			return nil
		}
		return fmt.Errorf("unknown status string %q", str)
	}
	return fmt.Errorf("status must be a bool or %q", NoViewerSentinel)
}

// Request is one named operation for the viewer frontend.
type Request struct {
	Operation string         `json:"operation"`
	Arguments map[string]any `json:"arguments"`
}

// NewRequest builds a request, never leaving Arguments nil so the wire shape
// always carries an "arguments" object.
func NewRequest(operation string, args map[string]any) Request {
	if args == nil {
		args = map[string]any{}
	}
	return Request{Operation: operation, Arguments: args}
}

// Response is the viewer's answer to a request. Result keys depend on the
// operation and are left raw for the caller to decode.
type Response struct {
	Status Status                     `json:"status"`
	Result map[string]json.RawMessage `json:"result,omitempty"`
}

// OK reports whether the viewer accepted the request.
func (r Response) OK() bool { return r.Status == StatusOK }

// NoViewerResponse is the canonical short-circuit answer for a session
// without an attached viewer.
func NoViewerResponse() Response {
	return Response{Status: StatusNoViewer}
}

var httpClient = &http.Client{Timeout: 5 * time.Second}

// PostJSON sends one synchronous request to the given frontend URL and
// decodes the viewer's response. There are no retries.
func PostJSON(ctx context.Context, url string, request Request) (Response, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return Response{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Response{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := httpClient.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return Response{}, fmt.Errorf("http %s: %d", url, resp.StatusCode)
	}
	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Response{}, fmt.Errorf("decode response from %s: %w", url, err)
	}
	return out, nil
}

// GetText fetches a plain-text endpoint, such as the viewer's version route.
func GetText(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("http %s: %d", url, resp.StatusCode)
	}
	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(text), nil
}
