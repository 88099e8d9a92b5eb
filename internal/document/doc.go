// Package document holds the local document mirror: the in-memory
// authoritative record of which entities have been published to the viewer,
// and what their visibility, colour, and opacity are.
//
// The mirror is updated synchronously by every sync operation, whether or
// not a viewer is attached; the remote viewer only ever follows it. No
// entity can be visible without having been published, and this core never
// deletes entities.
//
// The package also defines Operator, the interface to the external document
// collaborator that owns serialization and geometry export.
package document
