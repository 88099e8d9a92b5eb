package integration

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/femsolve/fcsbridge/internal/document"
	"github.com/femsolve/fcsbridge/internal/protocol"
	"github.com/femsolve/fcsbridge/internal/viewer"
)

// FakeViewer is a loopback viewer instance under test control. It serves the
// version route and records every operation posted to /toFrontend.
type FakeViewer struct {
	mu       sync.Mutex
	version  string
	requests []protocol.Request
	srv      *httptest.Server
}

func NewFakeViewer(t *testing.T, version string) *FakeViewer {
	fv := &FakeViewer{version: version}

	mux := http.NewServeMux()
	mux.HandleFunc(protocol.RouteVersion, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(fv.version))
	})
	mux.HandleFunc(protocol.RouteToFrontend, func(w http.ResponseWriter, r *http.Request) {
		var req protocol.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		fv.mu.Lock()
		fv.requests = append(fv.requests, req)
		fv.mu.Unlock()
		w.Write([]byte(`{"status":true}`))
	})

	fv.srv = httptest.NewServer(mux)
	t.Cleanup(fv.srv.Close)
	return fv
}

func (fv *FakeViewer) Port() int {
	return fv.srv.Listener.Addr().(*net.TCPAddr).Port
}

func (fv *FakeViewer) Operations() []string {
	fv.mu.Lock()
	defer fv.mu.Unlock()

	ops := make([]string, len(fv.requests))
	for i, req := range fv.requests {
		ops[i] = req.Operation
	}
	return ops
}

// fileExportOperator materializes entities as real files in the workspace,
// the way a geometry kernel collaborator would.
type fileExportOperator struct {
	name   string
	nextID int
}

var _ document.Operator = (*fileExportOperator)(nil)

func (f *fileExportOperator) DocumentName() string        { return f.name }
func (f *fileExportOperator) SetDocumentName(name string) { f.name = name }
func (f *fileExportOperator) CloseDocument() error        { return nil }

func (f *fileExportOperator) ExportEntity(entity any, baseName, dir string) (int, error) {
	if err := os.WriteFile(filepath.Join(dir, baseName+".stl"), []byte("solid\nendsolid\n"), 0o644); err != nil {
		return -1, err
	}
	if err := os.WriteFile(filepath.Join(dir, baseName+"_geom.json"), []byte("{}"), 0o644); err != nil {
		return -1, err
	}
	f.nextID++
	return f.nextID, nil
}

func (f *fileExportOperator) SaveDocument(dir string) error {
	return os.WriteFile(filepath.Join(dir, f.name+".cbf"), []byte("cbf"), 0o644)
}

// TestViewerSynchronization runs a full session against a live fake viewer:
// probe, publish, visual-state changes, and commit, checking both the wire
// traffic and the exported artifacts.
func TestViewerSynchronization(t *testing.T) {
	t.Setenv("APPDATA", t.TempDir())

	fv := NewFakeViewer(t, viewer.APIVersion)
	op := &fileExportOperator{name: "Workbench"}
	session := viewer.NewSession(fv.Port(), op)

	require.Equal(t, viewer.StateAvailableCompatible, session.Probe())

	// Publish three entities; the third is the Bracket round-trip case.
	_, err := session.Publish(struct{}{}, "Plate")
	require.NoError(t, err)
	_, err = session.Publish(struct{}{}, "Bolt")
	require.NoError(t, err)
	bracketID, err := session.Publish(struct{}{}, "Bracket")
	require.NoError(t, err)

	dir := session.Workspace().Dir()
	assert.FileExists(t, filepath.Join(dir, "3_Bracket.stl"))
	assert.FileExists(t, filepath.Join(dir, "3_Bracket_geom.json"))

	session.ShowOnly(bracketID)
	session.SetTransparency(bracketID, 0.5)
	session.FitAll()
	require.NoError(t, session.Commit())

	assert.FileExists(t, filepath.Join(dir, "Workbench.cbf"))

	ops := fv.Operations()
	require.Len(t, ops, 7)
	assert.Equal(t, []string{
		protocol.OpAddToDocument,
		protocol.OpAddToDocument,
		protocol.OpAddToDocument,
		protocol.OpShowOnly,
		protocol.OpSetTransparency,
		protocol.OpFitAll,
		protocol.OpCommitToDocument,
	}, ops)

	// The mirror agrees with what the viewer was told.
	for _, e := range session.Mirror().All() {
		assert.Equal(t, e.LocalID == bracketID, e.Visible, "entity %q", e.Name)
	}
}

// TestIncompatibleViewerDegradesToHeadless verifies that a viewer on a
// different protocol major is treated exactly like no viewer at all.
func TestIncompatibleViewerDegradesToHeadless(t *testing.T) {
	t.Setenv("APPDATA", t.TempDir())

	fv := NewFakeViewer(t, "99.0.0")
	op := &fileExportOperator{name: "Workbench"}
	session := viewer.NewSession(fv.Port(), op)

	require.Equal(t, viewer.StateUnavailable, session.Probe())

	id, err := session.Publish(struct{}{}, "Plate")
	require.NoError(t, err)
	session.Hide(id)

	// Artifacts and mirror state exist; no operation ever reached the viewer.
	assert.FileExists(t, filepath.Join(session.Workspace().Dir(), "1_Plate.stl"))
	e, ok := session.Mirror().Get(id)
	require.True(t, ok)
	assert.False(t, e.Visible)
	assert.Empty(t, fv.Operations())
}
