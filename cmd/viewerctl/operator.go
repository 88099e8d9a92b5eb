package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// fileOperator is viewerctl's document collaborator. It has no geometry
// kernel: a published entity is a path to an existing STL file, which is
// copied into the workspace next to a small metadata file. The serialized
// document is a manifest of everything exported this run.
type fileOperator struct {
	documentName string
	nextItemID   int
	exports      []exportRecord
}

type exportRecord struct {
	ItemID   int       `json:"item_id"`
	Name     string    `json:"name"`
	MeshFile string    `json:"mesh_file"`
	Exported time.Time `json:"exported"`
}

func newFileOperator(documentName string) *fileOperator {
	return &fileOperator{
		documentName: documentName,
		nextItemID:   1,
	}
}

func (f *fileOperator) DocumentName() string { return f.documentName }

func (f *fileOperator) SetDocumentName(name string) { f.documentName = name }

func (f *fileOperator) ExportEntity(entity any, baseName, dir string) (int, error) {
	sourcePath, ok := entity.(string)
	if !ok {
		return -1, fmt.Errorf("entity must be an STL file path, got %T", entity)
	}

	meshPath := filepath.Join(dir, baseName+".stl")
	if err := copyFile(sourcePath, meshPath); err != nil {
		return -1, fmt.Errorf("export mesh: %w", err)
	}

	itemID := f.nextItemID
	record := exportRecord{
		ItemID:   itemID,
		Name:     baseName,
		MeshFile: meshPath,
		Exported: time.Now(),
	}

	meta, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return -1, err
	}
	geomPath := filepath.Join(dir, baseName+"_geom.json")
	if err := os.WriteFile(geomPath, meta, 0o644); err != nil {
		return -1, fmt.Errorf("export metadata: %w", err)
	}

	f.nextItemID++
	f.exports = append(f.exports, record)
	return itemID, nil
}

func (f *fileOperator) SaveDocument(dir string) error {
	manifest, err := json.MarshalIndent(f.exports, "", "  ")
	if err != nil {
		return err
	}
	docPath := filepath.Join(dir, f.documentName+".cbf")
	if err := os.WriteFile(docPath, manifest, 0o644); err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

func (f *fileOperator) CloseDocument() error {
	f.exports = nil
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
