package viewer

import (
	"context"
	"log"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/femsolve/fcsbridge/internal/document"
	"github.com/femsolve/fcsbridge/internal/workspace"
)

// APIVersion is the bridge's protocol version. A viewer is compatible when
// its version shares the same major version.
const APIVersion = "1.4.0"

// DefaultHost is the loopback host every viewer instance listens on.
const DefaultHost = "127.0.0.1"

// DefaultPluginName is the workspace folder used until SetPluginName is
// called.
const DefaultPluginName = "FCSProject"

// State is the session's position in the probe state machine.
//
// Unprobed moves to Unavailable or AvailableUnchecked on the port probe;
// AvailableUnchecked moves to AvailableCompatible or Unavailable on the
// version probe. Unavailable and AvailableCompatible are terminal until an
// explicit Probe call.
type State int

const (
	StateUnprobed State = iota
	StateUnavailable
	StateAvailableUnchecked
	StateAvailableCompatible
)

func (s State) String() string {
	switch s {
	case StateUnprobed:
		return "unprobed"
	case StateAvailableUnchecked:
		return "available-unchecked"
	case StateAvailableCompatible:
		return "available-compatible"
	default:
		return "unavailable"
	}
}

// Session is one connection to a remote viewer for the lifetime of the host
// application. All remote traffic is gated on the probe outcome: once the
// session is unavailable, every sync operation short-circuits to a local
// mutation with no network I/O, and nothing here ever panics over a missing
// viewer.
//
// Sessions are not safe for concurrent use. Operations are synchronous and
// issued one at a time by design; there is no queueing, batching, or retry.
type Session struct {
	viewerID   int    // the viewer's port, doubling as its identifier
	viewerHost string

	state         State
	remoteVersion string

	operator document.Operator
	mirror   *document.Mirror

	ws    workspace.Config
	wsErr error

	notifier       Notifier
	customNotifier bool

	publishedCount int

	dialTimeout time.Duration
	dialFunc    func(addr string, timeout time.Duration) (net.Conn, error)
}

// NewSession creates an unprobed session for a viewer expected on the given
// loopback port. Call Probe before issuing operations; until then every
// remote call short-circuits.
func NewSession(viewerID int, operator document.Operator) *Session {
	s := &Session{
		viewerID:    viewerID,
		viewerHost:  DefaultHost,
		state:       StateUnprobed,
		operator:    operator,
		mirror:      document.NewMirror(),
		dialTimeout: 2 * time.Second,
		dialFunc: func(addr string, timeout time.Duration) (net.Conn, error) {
			return net.DialTimeout("tcp", addr, timeout)
		},
	}
	s.notifier = NewHTTPNotifier(s.viewerHost, s.viewerID)

	ws, err := workspace.Resolve(DefaultPluginName)
	if err != nil {
		log.Printf("could not resolve application data root: %v", err)
		s.wsErr = err
	}
	s.ws = ws

	return s
}

// SetHost overrides the loopback host before probing. The default HTTP
// notifier is rebuilt to match unless a custom notifier was installed.
func (s *Session) SetHost(host string) {
	s.viewerHost = host
	if !s.customNotifier {
		s.notifier = NewHTTPNotifier(host, s.viewerID)
	}
}

// SetNotifier substitutes the remote notifier. Use NopNotifier for headless
// runs or a recording fake in tests.
func (s *Session) SetNotifier(n Notifier) {
	s.notifier = n
	s.customNotifier = true
}

// SetDialFunc overrides the TCP dial used by the availability probe.
// This is useful for testing or custom reachability checks.
func (s *Session) SetDialFunc(dial func(addr string, timeout time.Duration) (net.Conn, error)) {
	s.dialFunc = dial
}

// Probe runs the availability and compatibility checks and resolves the
// working directory, leaving the session in a terminal state. It is the only
// way a session recovers from Unavailable.
func (s *Session) Probe() State {
	if s.probeAvailability() {
		s.state = StateAvailableUnchecked
		if s.probeCompatibility() {
			s.state = StateAvailableCompatible
		} else {
			// An incompatible viewer is treated the same as no viewer.
			s.state = StateUnavailable
		}
	} else {
		s.state = StateUnavailable
	}

	s.setupWorkspace()
	return s.state
}

// Available reports whether a compatible viewer is attached. Sync operations
// only touch the network when this is true.
func (s *Session) Available() bool {
	return s.state == StateAvailableCompatible
}

// State returns the session's probe state.
func (s *Session) State() State { return s.state }

// RemoteVersion returns the viewer's self-reported version, if it was ever
// queried successfully.
func (s *Session) RemoteVersion() string { return s.remoteVersion }

// ViewerID returns the port the session probes and talks to.
func (s *Session) ViewerID() int { return s.viewerID }

// Mirror returns the session's authoritative entity state.
func (s *Session) Mirror() *document.Mirror { return s.mirror }

// Workspace returns the resolved working-directory configuration.
func (s *Session) Workspace() workspace.Config { return s.ws }

// PublishedCount returns how many entities have been published so far.
func (s *Session) PublishedCount() int { return s.publishedCount }

// SetPluginName repoints the working directory at a different plugin folder
// and re-creates it, degrading availability when that fails.
func (s *Session) SetPluginName(pluginName string) {
	s.ws = s.ws.WithPlugin(pluginName)
	s.setupWorkspace()
}

// probeAvailability opens a short-lived TCP connection to the viewer's port.
// Any failure, refusal or timeout included, means no viewer; the underlying
// error never propagates.
func (s *Session) probeAvailability() bool {
	addr := net.JoinHostPort(s.viewerHost, strconv.Itoa(s.viewerID))
	conn, err := s.dialFunc(addr, s.dialTimeout)
	if err != nil {
		log.Printf("viewer port probe failed: %v; assuming no viewer is connected", err)
		return false
	}
	conn.Close()
	return true
}

// probeCompatibility queries the viewer's version and applies the same-major
// rule against APIVersion. A failing query means not compatible, never a
// crash.
func (s *Session) probeCompatibility() bool {
	ctx, cancel := context.WithTimeout(context.Background(), s.dialTimeout)
	defer cancel()

	remote, err := s.notifier.Version(ctx)
	if err != nil {
		log.Printf("viewer version query failed: %v; treating viewer as incompatible", err)
		return false
	}
	s.remoteVersion = strings.TrimSpace(remote)

	ok, err := Compatible(APIVersion, s.remoteVersion)
	if err != nil {
		log.Printf("could not compare viewer version %q with API version %q: %v",
			s.remoteVersion, APIVersion, err)
		return false
	}
	if !ok {
		log.Printf("viewer version %s is not compatible with bridge API version %s",
			s.remoteVersion, APIVersion)
		return false
	}
	return true
}

// Compatible applies the protocol compatibility rule: two versions are
// compatible when they share a major version.
func Compatible(local, remote string) (bool, error) {
	lv, err := semver.NewVersion(local)
	if err != nil {
		return false, err
	}
	rv, err := semver.NewVersion(remote)
	if err != nil {
		return false, err
	}
	return lv.Major() == rv.Major(), nil
}

// setupWorkspace creates the working directory. With an available viewer
// attached a failure here degrades the session to Unavailable: the viewer
// reads exported artifacts from this directory, so it is unusable without
// one.
func (s *Session) setupWorkspace() {
	err := s.wsErr
	if err == nil {
		err = s.ws.Ensure()
	}

	if err != nil {
		if s.state == StateAvailableCompatible {
			log.Printf("failed to set up working directory with an available viewer attached: %v", err)
			s.state = StateUnavailable
		} else {
			log.Printf("failed to set up working directory: %v", err)
		}
	}

	if s.state == StateUnavailable {
		log.Printf("warning: no viewer is attached; nothing will be shown and, " +
			"unless the document is saved explicitly, batch results will not be kept")
	}
}
