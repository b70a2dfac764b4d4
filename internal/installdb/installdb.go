// Package installdb persists the list of installed titles to a single
// JSON file (spec.md §6.1, grounding: original_source config/installed.rs
// LauncherInstalled/InstalledObject schema).
package installdb

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

// Object describes one installed title.
type Object struct {
	InstallLocation string `json:"InstallLocation"`
	NamespaceID     string `json:"NamespaceId"`
	ItemID          string `json:"ItemId"`
	ArtifactID      string `json:"ArtifactId"`
	AppVersion      string `json:"AppVersion"`
	AppName         string `json:"AppName"`
}

type document struct {
	InstallationList []Object `json:"InstallationList"`
}

// ErrNotFound is returned when an operation targets an ArtifactID that
// isn't present in the database.
type ErrNotFound struct{ ArtifactID string }

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("installdb: artifact id %q not found", e.ArtifactID)
}

// DB is the on-disk installed-titles database, backed by a single JSON
// file at path on fs.
type DB struct {
	fs   afero.Fs
	path string
}

// New builds a DB rooted at path (typically LauncherInstalled.dat under
// the launcher's app-data directory).
func New(fs afero.Fs, path string) *DB {
	return &DB{fs: fs, path: path}
}

func (d *DB) read() (document, error) {
	exists, err := afero.Exists(d.fs, d.path)
	if err != nil {
		return document{}, err
	}
	if !exists {
		return document{}, nil
	}

	data, err := afero.ReadFile(d.fs, d.path)
	if err != nil {
		return document{}, err
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return document{}, err
	}
	return doc, nil
}

func (d *DB) write(doc document) error {
	if dir := filepath.Dir(d.path); dir != "." {
		if err := d.fs.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return afero.WriteFile(d.fs, d.path, data, 0o644)
}

// FindByArtifactID returns the Object registered under artifactID.
func (d *DB) FindByArtifactID(artifactID string) (Object, error) {
	doc, err := d.read()
	if err != nil {
		return Object{}, err
	}
	for _, obj := range doc.InstallationList {
		if obj.ArtifactID == artifactID {
			return obj, nil
		}
	}
	return Object{}, &ErrNotFound{ArtifactID: artifactID}
}

// AddOrUpdate inserts obj, or replaces the existing entry sharing its
// ArtifactID.
func (d *DB) AddOrUpdate(obj Object) error {
	doc, err := d.read()
	if err != nil {
		return err
	}

	replaced := false
	for i, existing := range doc.InstallationList {
		if existing.ArtifactID == obj.ArtifactID {
			doc.InstallationList[i] = obj
			replaced = true
			break
		}
	}
	if !replaced {
		doc.InstallationList = append(doc.InstallationList, obj)
	}
	return d.write(doc)
}

// Update replaces the entry matching obj.ArtifactID, failing with
// ErrNotFound if none exists.
func (d *DB) Update(obj Object) error {
	doc, err := d.read()
	if err != nil {
		return err
	}

	for i, existing := range doc.InstallationList {
		if existing.ArtifactID == obj.ArtifactID {
			doc.InstallationList[i] = obj
			return d.write(doc)
		}
	}
	return &ErrNotFound{ArtifactID: obj.ArtifactID}
}

// RemoveByArtifactID deletes the entry matching artifactID, failing with
// ErrNotFound if none exists.
func (d *DB) RemoveByArtifactID(artifactID string) error {
	doc, err := d.read()
	if err != nil {
		return err
	}

	kept := doc.InstallationList[:0]
	found := false
	for _, obj := range doc.InstallationList {
		if obj.ArtifactID == artifactID {
			found = true
			continue
		}
		kept = append(kept, obj)
	}
	if !found {
		return &ErrNotFound{ArtifactID: artifactID}
	}
	doc.InstallationList = kept
	return d.write(doc)
}
