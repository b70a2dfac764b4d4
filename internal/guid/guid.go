// Package guid implements the 128-bit chunk identifier used throughout the
// manifest and chunk codecs: four little-endian u32 words, per spec.md §3.
package guid

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// GUID is a chunk identifier: four 32-bit little-endian words. It is the
// identity of a ChunkInfo record within a manifest.
type GUID [4]uint32

// Zero reports whether g is the zero GUID.
func (g GUID) Zero() bool {
	return g == GUID{}
}

// UUID converts g into a canonical uuid.UUID, big-endian word order, for use
// as a map key or in structured log fields where a fixed-width comparable
// value is wanted instead of a raw array.
func (g GUID) UUID() uuid.UUID {
	var b [16]byte
	for i, w := range g {
		binary.BigEndian.PutUint32(b[i*4:], w)
	}
	return uuid.UUID(b)
}

// HexWords renders g as the concatenation of its four words, each as
// uppercase 8-digit hex, with no separators — the form used inside the
// ChunksV4 object-store key (spec.md §4.4).
func (g GUID) HexWords() string {
	var sb strings.Builder
	sb.Grow(32)
	for _, w := range g {
		fmt.Fprintf(&sb, "%08X", w)
	}
	return sb.String()
}

func (g GUID) String() string {
	return g.HexWords()
}
