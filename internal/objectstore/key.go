package objectstore

import (
	"fmt"

	"github.com/realitylauncher/splash/internal/guid"
)

// chunksPrefix is the object-store path convention for chunk data
// (spec.md §4.4): ChunksV4/<group:02>/<rolling:016X>_<guid32hex>.chunk
const chunksPrefix = "ChunksV4"

// ChunkKey builds the object-store key for a single chunk given its group
// number, rolling hash, and GUID.
func ChunkKey(group uint8, rollingHash uint64, g guid.GUID) string {
	return fmt.Sprintf("%s/%02d/%016X_%s.chunk", chunksPrefix, group, rollingHash, g.HexWords())
}
