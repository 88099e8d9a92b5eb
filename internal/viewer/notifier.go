package viewer

import (
	"context"
	"errors"
	"fmt"

	"github.com/femsolve/fcsbridge/internal/protocol"
)

// Notifier delivers requests to a remote viewer. The session's transport is
// expressed as this capability so headless runs and tests can substitute a
// no-op or recording implementation.
type Notifier interface {
	// Notify sends one request to the viewer frontend and returns its
	// response. Implementations do not retry.
	Notify(ctx context.Context, req protocol.Request) (protocol.Response, error)

	// Version queries the viewer's protocol version as plain text.
	Version(ctx context.Context) (string, error)
}

// HTTPNotifier talks to a live viewer over its loopback HTTP endpoints.
type HTTPNotifier struct {
	baseURL string
}

// NewHTTPNotifier creates a notifier for a viewer at host:port.
func NewHTTPNotifier(host string, port int) *HTTPNotifier {
	return &HTTPNotifier{baseURL: fmt.Sprintf("http://%s:%d", host, port)}
}

func (n *HTTPNotifier) Notify(ctx context.Context, req protocol.Request) (protocol.Response, error) {
	return protocol.PostJSON(ctx, n.baseURL+protocol.RouteToFrontend, req)
}

func (n *HTTPNotifier) Version(ctx context.Context) (string, error) {
	return protocol.GetText(ctx, n.baseURL+protocol.RouteVersion)
}

// ErrNoViewer is returned by NopNotifier's version query.
var ErrNoViewer = errors.New("no viewer instance attached")

// NopNotifier is the headless notifier: every request resolves to the
// no-viewer sentinel without any I/O.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, protocol.Request) (protocol.Response, error) {
	return protocol.NoViewerResponse(), nil
}

func (NopNotifier) Version(context.Context) (string, error) {
	return "", ErrNoViewer
}
