// Package reuseindex builds the (filename, chunk, offset, size) -> (source
// file, absolute offset) map that lets the download engine copy bytes out
// of an already-installed file instead of re-fetching an unchanged chunk
// part (spec.md §4.7, delta install optimization).
package reuseindex

import (
	"github.com/realitylauncher/splash/internal/guid"
	"github.com/realitylauncher/splash/internal/manifestcodec"
)

// Key identifies a chunk part as it appears within one file of a manifest.
// Two manifests agree on a Key only when the same file carries a
// byte-identical chunk part at the same offset — reuse is restricted to
// same-named files (spec.md §4.7 Non-goal: no cross-file or renamed-file
// matching).
type Key struct {
	FileName string
	GUID     guid.GUID
	Offset   uint32
	Size     uint32
}

// Location is where reusable bytes for a Key live on disk: SourceFile,
// relative to the install directory, at AbsoluteOffset bytes in.
type Location struct {
	SourceFile     string
	AbsoluteOffset uint64
}

// Index maps previous-install chunk parts to where their bytes can be
// copied from on disk.
type Index map[Key]Location

// Build constructs an Index from a previously installed manifest. A nil
// previous manifest yields an empty (non-nil) Index, so callers can
// always look up without a nil check.
func Build(previous *manifestcodec.ParsedManifest) Index {
	idx := make(Index)
	if previous == nil {
		return idx
	}

	for _, f := range previous.FileManifestList.Elements {
		var offset uint64
		for _, part := range f.ChunkParts {
			idx[Key{
				FileName: f.FileName,
				GUID:     part.GUID,
				Offset:   part.Offset,
				Size:     part.Size,
			}] = Location{
				SourceFile:     f.FileName,
				AbsoluteOffset: offset + uint64(part.Offset),
			}
			offset += uint64(part.Size)
		}
	}
	return idx
}

// Lookup reports whether a reusable source location exists for the given
// chunk part of fileName.
func (idx Index) Lookup(fileName string, g guid.GUID, offset, size uint32) (Location, bool) {
	loc, ok := idx[Key{FileName: fileName, GUID: g, Offset: offset, Size: size}]
	return loc, ok
}
