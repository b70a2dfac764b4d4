// Package manifestcache manages the on-disk cache of downloaded manifest
// files, keyed by modification time (spec.md §5): the newest file is
// "latest", the one before it is "second latest".
package manifestcache

import (
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/afero"
)

const manifestExt = ".manifest"

// ErrNoManifestFound is returned by Latest when the cache directory holds
// no manifest files.
var ErrNoManifestFound = fmt.Errorf("manifestcache: no manifest found")

// ErrNoSecondLatestManifestFound is returned by SecondLatest when the
// cache directory holds fewer than two manifest files.
var ErrNoSecondLatestManifestFound = fmt.Errorf("manifestcache: no second latest manifest found")

// Cache stores and retrieves manifest byte blobs under a directory.
type Cache struct {
	fs  afero.Fs
	dir string
}

// New builds a Cache rooted at dir on fs. Callers in production use
// afero.NewOsFs(); tests use afero.NewMemMapFs().
func New(fs afero.Fs, dir string) *Cache {
	return &Cache{fs: fs, dir: dir}
}

type entry struct {
	path    string
	modTime time.Time
}

func (c *Cache) sortedEntries() ([]entry, error) {
	if err := c.fs.MkdirAll(c.dir, 0o755); err != nil {
		return nil, err
	}

	infos, err := afero.ReadDir(c.fs, c.dir)
	if err != nil {
		return nil, err
	}

	var entries []entry
	for _, info := range infos {
		if info.IsDir() || filepath.Ext(info.Name()) != manifestExt {
			continue
		}
		entries = append(entries, entry{
			path:    filepath.Join(c.dir, info.Name()),
			modTime: info.ModTime(),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].modTime.After(entries[j].modTime)
	})
	return entries, nil
}

// Latest returns the bytes of the most recently saved manifest.
func (c *Cache) Latest() ([]byte, error) {
	entries, err := c.sortedEntries()
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrNoManifestFound
	}
	return afero.ReadFile(c.fs, entries[0].path)
}

// SecondLatest returns the bytes of the manifest saved immediately before
// the latest one.
func (c *Cache) SecondLatest() ([]byte, error) {
	entries, err := c.sortedEntries()
	if err != nil {
		return nil, err
	}
	if len(entries) < 2 {
		return nil, ErrNoSecondLatestManifestFound
	}
	return afero.ReadFile(c.fs, entries[1].path)
}

// Save writes data under name inside the cache directory, creating the
// cache directory as needed. name is used as a file name directly in that
// directory: no subdirectories are created for it, and Latest and
// SecondLatest list only the directory's top level. The download command
// saves fetched manifests as "<build version>.manifest".
func (c *Cache) Save(name string, data []byte) error {
	if err := c.fs.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	return afero.WriteFile(c.fs, filepath.Join(c.dir, name), data, 0o644)
}

// PurgeAll deletes the entire cache directory and every manifest in it.
// The uninstall command does not call it.
func (c *Cache) PurgeAll() error {
	return c.fs.RemoveAll(c.dir)
}
