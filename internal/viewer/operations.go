package viewer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/femsolve/fcsbridge/internal/document"
	"github.com/femsolve/fcsbridge/internal/palette"
	"github.com/femsolve/fcsbridge/internal/protocol"
	"github.com/femsolve/fcsbridge/internal/workspace"
)

// Every sync operation follows the same shape: mutate the mirror for each
// affected entity, then tell the viewer on a best-effort basis. The remote
// outcome is logged and discarded; callers never see a viewer failure,
// because the host must keep working with no viewer attached at all.

// send is the transport boundary. Without an available compatible viewer it
// short-circuits to the no-viewer sentinel and performs no network I/O.
// A transport failure is logged and reported as a failed status; it does not
// mark the viewer as gone.
func (s *Session) send(req protocol.Request) protocol.Response {
	if s.state != StateAvailableCompatible {
		return protocol.NoViewerResponse()
	}

	resp, err := s.notifier.Notify(context.Background(), req)
	if err != nil {
		log.Printf("viewer request %q failed: %v", req.Operation, err)
		return protocol.Response{Status: protocol.StatusFailed}
	}
	return resp
}

// UpdateViewer asks the viewer to reload its document, picking up all
// entities published so far.
func (s *Session) UpdateViewer() {
	_ = s.send(protocol.NewRequest(protocol.OpUpdateViewer, nil))
}

// Show makes a single entity visible.
func (s *Session) Show(entityID int) {
	s.mirror.SetVisibility(entityID, true)
	_ = s.send(protocol.NewRequest(protocol.OpShow, map[string]any{
		"entity_id": entityID,
	}))
}

// Hide makes a single entity invisible.
func (s *Session) Hide(entityID int) {
	s.mirror.SetVisibility(entityID, false)
	_ = s.send(protocol.NewRequest(protocol.OpHide, map[string]any{
		"entity_id": entityID,
	}))
}

// ShowOnly makes the given entity the only visible one. Every published
// entity is visited exactly once; an unregistered ID therefore hides
// everything.
func (s *Session) ShowOnly(entityID int) {
	for _, id := range s.mirror.IDs() {
		s.mirror.SetVisibility(id, id == entityID)
	}
	_ = s.send(protocol.NewRequest(protocol.OpShowOnly, map[string]any{
		"entity_id": entityID,
	}))
}

// HideOnly hides the given entity and shows every other published entity.
func (s *Session) HideOnly(entityID int) {
	for _, id := range s.mirror.IDs() {
		s.mirror.SetVisibility(id, id != entityID)
	}
	_ = s.send(protocol.NewRequest(protocol.OpHideOnly, map[string]any{
		"entity_id": entityID,
	}))
}

// ShowAll makes every published entity visible.
func (s *Session) ShowAll() {
	for _, id := range s.mirror.IDs() {
		s.mirror.SetVisibility(id, true)
	}
	_ = s.send(protocol.NewRequest(protocol.OpShowAll, nil))
}

// HideAll hides every published entity.
func (s *Session) HideAll() {
	for _, id := range s.mirror.IDs() {
		s.mirror.SetVisibility(id, false)
	}
	_ = s.send(protocol.NewRequest(protocol.OpHideAll, nil))
}

// SetTransparency sets an entity's opacity, clamped to [0, 1].
func (s *Session) SetTransparency(entityID int, opacity float64) {
	s.mirror.SetOpacity(entityID, opacity)
	_ = s.send(protocol.NewRequest(protocol.OpSetTransparency, map[string]any{
		"entity_id": entityID,
		"opacity":   opacity,
	}))
}

// FitAll adjusts the viewer camera so every visible entity is in frame.
// Camera state lives in the viewer only, so there is no local mutation.
func (s *Session) FitAll() {
	_ = s.send(protocol.NewRequest(protocol.OpFitAll, nil))
}

// SetColour paints an entity with a named palette colour.
func (s *Session) SetColour(entityID int, selection palette.Selection) {
	s.applyColour(entityID, palette.Colour(selection))
}

// SetSpecificColour paints an entity with free RGB channels, each clamped to
// 0-255.
func (s *Session) SetSpecificColour(entityID, red, green, blue int) {
	s.applyColour(entityID, palette.Specific(red, green, blue))
}

func (s *Session) applyColour(entityID int, colour document.Colour) {
	s.mirror.SetColour(entityID, colour)
	_ = s.send(protocol.NewRequest(protocol.OpSetObjectColour, map[string]any{
		"fname":   "colorModel",
		"item_id": strconv.Itoa(entityID),
		"red":     int(colour.R),
		"green":   int(colour.G),
		"blue":    int(colour.B),
	}))
}

// Publish materializes an entity into the working directory and registers it
// with the session and, best-effort, the viewer. The returned ID is the
// entity's identifier in the local document.
//
// The publish ordinal is a purely local identity: it advances after every
// successful export, whether or not the viewer accepted the object, and it
// is never reused within a session. A failed export leaves the counter
// untouched.
func (s *Session) Publish(entity any, name string) (int, error) {
	ordinal := s.publishedCount + 1
	baseName := fmt.Sprintf("%d_%s", ordinal, name)
	meshName := workspace.MeshFileName(ordinal, name)
	geomName := workspace.GeomFileName(ordinal, name)

	itemID, err := s.operator.ExportEntity(entity, baseName, s.ws.Dir())
	if err != nil {
		log.Printf("could not publish object %q: %v", name, err)
		return -1, fmt.Errorf("publish %q: %w", name, err)
	}

	s.mirror.Add(itemID, ordinal, name)

	_ = s.send(protocol.NewRequest(protocol.OpAddToDocument, map[string]any{
		"name":            name,
		"item_id":         strconv.Itoa(itemID),
		"t2g_file":        geomName,
		"stl_file":        meshName,
		"stl_path":        s.ws.PluginName,
		"stl_path_static": s.ws.StaticPath(meshName),
		"t2g_path_static": s.ws.StaticPath(geomName),
	}))

	s.publishedCount++

	return itemID, nil
}

// Commit serializes the working document into the workspace, closes it
// locally, and hands the file path over to the viewer so it can take over
// live editing. If serialization fails the viewer is never notified: the
// viewer must not hear about a file that was not produced.
func (s *Session) Commit() error {
	dir := s.ws.Dir()
	modelPath := filepath.Join(dir, workspace.DocumentFileName(s.operator.DocumentName()))

	if err := s.operator.SaveDocument(dir); err != nil {
		log.Printf("commit aborted, document save failed: %v", err)
		return fmt.Errorf("save document: %w", err)
	}
	if err := s.operator.CloseDocument(); err != nil {
		log.Printf("document close failed: %v", err)
	}

	_ = s.send(protocol.NewRequest(protocol.OpCommitToDocument, map[string]any{
		"fname":      "commit_to_document",
		"model_path": modelPath,
	}))
	return nil
}

// FindObjectsByName asks the viewer for the IDs of every object under the
// given name. Without an available viewer, or when the viewer rejects the
// query, the result is empty.
func (s *Session) FindObjectsByName(name string) []string {
	resp := s.send(protocol.NewRequest(protocol.OpFindObjectByName, map[string]any{
		"search_name": name,
	}))
	if !resp.OK() {
		return nil
	}

	raw, ok := resp.Result["IDs"]
	if !ok {
		return nil
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		log.Printf("could not decode find_object_by_name result: %v", err)
		return nil
	}
	return ids
}

// SetModelName renames the active document and, if the previous serialized
// file exists in the workspace, moves it to the new name. The name carries
// no extension.
func (s *Session) SetModelName(modelName string) {
	oldPath := filepath.Join(s.ws.Dir(), workspace.DocumentFileName(s.operator.DocumentName()))
	s.operator.SetDocumentName(modelName)
	newPath := filepath.Join(s.ws.Dir(), workspace.DocumentFileName(modelName))

	if _, err := os.Stat(oldPath); err == nil {
		if err := os.Rename(oldPath, newPath); err != nil {
			log.Printf("could not rename workspace document: %v", err)
		}
	}
}

// RemoveFromDocument is an extension point. Published entities are never
// physically deleted by this core; the mirror, once grown, only shrinks when
// the session ends.
func (s *Session) RemoveFromDocument(entityID int) {
}

// AddToDocumentUnder publishes a child entity under a parent entity.
// TODO: implement once the viewer document supports entity hierarchies.
func (s *Session) AddToDocumentUnder(child any, parentID int, name string) {
	if s.state != StateAvailableCompatible {
		return
	}
}
