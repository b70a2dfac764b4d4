package manifestcodec

import (
	"github.com/samber/lo"

	"github.com/realitylauncher/splash/internal/guid"
)

// ChunkByGUID builds a lookup map from the chunk catalog, keyed by each
// chunk's guid.GUID (spec.md §3: GUID is the chunk's identity, and no two
// ChunkInfo records in one manifest share one).
func (m *ParsedManifest) ChunkByGUID() map[guid.GUID]ChunkInfo {
	return lo.KeyBy(m.ChunkDataList.Elements, func(c ChunkInfo) guid.GUID {
		return c.GUID
	})
}

// TotalBytes sums FileSize across every file in the manifest — the
// denominator for global progress accounting (spec.md §4.7).
func (m *ParsedManifest) TotalBytes() uint64 {
	return lo.SumBy(m.FileManifestList.Elements, func(f FileManifest) uint64 {
		return f.FileSize
	})
}

// TotalFiles is the file count used for progress accounting.
func (m *ParsedManifest) TotalFiles() int {
	return len(m.FileManifestList.Elements)
}

// FileByName builds a lookup map of files by relative filename.
func (m *ParsedManifest) FileByName() map[string]FileManifest {
	return lo.KeyBy(m.FileManifestList.Elements, func(f FileManifest) string {
		return f.FileName
	})
}
