// Package protocol defines the wire protocol spoken to an FCS viewer
// instance: JSON requests POSTed to /toFrontend, a plain-text /version
// query, and the three-valued response status that keeps "no viewer
// attached" distinguishable from "viewer rejected the request".
package protocol
