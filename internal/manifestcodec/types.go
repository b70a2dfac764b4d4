// Package manifestcodec parses the binary manifest format: envelope, meta,
// chunk-data list, file-manifest list, and custom fields (spec.md §4.3).
package manifestcodec

import "github.com/realitylauncher/splash/internal/guid"

// ChunkInfo describes one content-addressed chunk (spec.md §3).
type ChunkInfo struct {
	GUID        guid.GUID
	RollingHash uint64
	SHA1        [20]byte
	GroupNum    uint8
	WindowSize  uint32
	// FileSize is read as signed 64-bit though only non-negative values
	// are meaningful for valid chunks; preserved per spec.md §9 Open
	// Questions.
	FileSize int64
}

// ChunkDataList is the ordered chunk catalog of a manifest.
type ChunkDataList struct {
	Version  uint8
	Elements []ChunkInfo
}

// ChunkPart references a byte range inside a decoded chunk (spec.md §3).
type ChunkPart struct {
	GUID   guid.GUID
	Offset uint32
	Size   uint32
	// FileOffset is the cumulative sum of preceding parts' sizes within
	// the same file; derived while parsing, not stored on the wire.
	FileOffset uint32
}

// FileManifest is the recipe for reconstructing one file (spec.md §3).
type FileManifest struct {
	FileName      string
	SymlinkTarget string
	Hash          [20]byte
	Flags         uint8
	InstallTags   []string
	ChunkParts    []ChunkPart
	FileSize      uint64

	HasMD5 bool
	MD5    [16]byte

	HasMimeType bool
	MimeType    string

	HasSHA256 bool
	SHA256    [32]byte
}

// FileManifestList is the ordered file catalog of a manifest.
type FileManifestList struct {
	Version  uint8
	Elements []FileManifest
}

// CustomFields is a version-tagged string-to-string map with no ordering
// requirement (spec.md §3).
type CustomFields struct {
	Version uint8
	Fields  map[string]string
}

// Meta is the manifest's purely-descriptive metadata block (spec.md §3).
type Meta struct {
	FeatureLevel  uint32
	IsFileData    bool
	AppID         uint32
	AppName       string
	BuildVersion  string
	LaunchExe     string
	LaunchCommand string
	PrereqIDs     []string
	PrereqName    string
	PrereqPath    string
	PrereqArgs    string

	BuildID string // data_version >= 1

	UninstallActionPath string // data_version >= 2
	UninstallActionArgs string // data_version >= 2
}

// ParsedManifest is the aggregate result of parsing a manifest byte buffer.
type ParsedManifest struct {
	Version          uint32
	Compressed       bool
	Meta             Meta
	ChunkDataList    ChunkDataList
	FileManifestList FileManifestList
	CustomFields     CustomFields
}
