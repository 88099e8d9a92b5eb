// Package viewer implements the client side of the FCS viewer
// synchronization protocol: one session per host-application run that
// publishes document entities to an out-of-process 3D viewer over loopback
// HTTP and keeps the remote visual state consistent with the local mirror.
//
// # Overview
//
// The viewer is optional. A bridge session must behave identically for the
// caller whether a viewer is attached, absent, or incompatible; the only
// difference is whether remote notifications go out. Local state is always
// mutated first and is never contingent on the remote call.
//
// # Architecture
//
//	┌──────────────────────────────────────────────┐
//	│                  Session                     │
//	├──────────────────────────────────────────────┤
//	│  Probe:   TCP port check → /version check    │
//	│  Mirror:  authoritative entity state         │
//	│  Counter: session-monotonic publish ordinal  │
//	│  send():  gate → POST /toFrontend            │
//	└───────────────┬──────────────────────────────┘
//	                │ Notifier (HTTP or no-op)
//	   ┌────────────▼────────────┐
//	   │  Viewer (out of process) │
//	   │  127.0.0.1:{viewerID}    │
//	   └─────────────────────────┘
//
// # Probe state machine
//
// A session starts Unprobed. Probe moves it to Unavailable (no listener on
// the port) or AvailableUnchecked, then the version query moves it to
// AvailableCompatible or back to Unavailable. The terminal states hold until
// Probe is called again; nothing flips a session back to available behind
// the caller's back.
//
// # Failure handling
//
// Four failure kinds, none of which crash the host:
//
//   - no viewer attached: expected steady state, silent short-circuit
//   - incompatible viewer: downgraded to no-viewer at probe time, logged
//   - transport failure: logged, reported as a failed status, no retry,
//     availability unchanged
//   - local export failure: aborts that publish only, ordinal untouched,
//     error returned to the caller
//
// Sync operations are deliberately fire-and-forget toward the viewer: there
// is no retry, no queueing, and no failure feedback into caller control
// flow. Batch runs with no viewer ever attached must complete unchanged.
package viewer
