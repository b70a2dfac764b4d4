// Package assembler implements the per-file chunk-part assembly protocol
// shared by the download engine (with reuse) and the verify engine
// (without reuse): spec.md §4.7 steps 2-5 and §4.8 step 2.
package assembler

import (
	"bytes"
	"context"
	"crypto/sha1"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/realitylauncher/splash/internal/chunkcache"
	"github.com/realitylauncher/splash/internal/chunkcodec"
	"github.com/realitylauncher/splash/internal/control"
	"github.com/realitylauncher/splash/internal/guid"
	"github.com/realitylauncher/splash/internal/manifestcodec"
	"github.com/realitylauncher/splash/internal/objectstore"
	"github.com/realitylauncher/splash/internal/reuseindex"
)

// Errors returned by Assemble. Kept as sentinels-with-data rather than a
// Kind enum because each carries a different payload.
type (
	// ErrCancelled is returned when the handle's cancellation flag was
	// observed mid-assembly.
	ErrCancelled struct{}

	// ErrChunkMissing is returned when a chunk part names a GUID absent
	// from the manifest's chunk catalog.
	ErrChunkMissing struct{ GUID guid.GUID }

	// ErrChunkCorrupt is returned when a decoded chunk is too short for
	// the part's declared offset/size.
	ErrChunkCorrupt struct{ Key string }

	// ErrHashMismatch is returned when the assembled file's SHA-1 does
	// not match the manifest's declared hash.
	ErrHashMismatch struct{ FileName string }
)

func (ErrCancelled) Error() string { return "assembler: cancelled" }
func (e ErrChunkMissing) Error() string {
	return fmt.Sprintf("assembler: chunk %s missing from manifest", e.GUID)
}
func (e ErrChunkCorrupt) Error() string {
	return fmt.Sprintf("assembler: chunk part out of bounds for %s", e.Key)
}
func (e ErrHashMismatch) Error() string {
	return fmt.Sprintf("assembler: hash mismatch for %s", e.FileName)
}

// Deps bundles an Assembler's collaborators.
type Deps struct {
	FS         afero.Fs
	Store      objectstore.Client
	Cache      *chunkcache.Cache
	Bucket     string
	InstallDir string
	ChunksByID map[guid.GUID]manifestcodec.ChunkInfo
	ReuseIndex reuseindex.Index // nil/empty disables reuse (verify engine)
}

// Assembler reconstructs one file at a time under InstallDir.
type Assembler struct {
	deps Deps
}

// New builds an Assembler from deps. A nil or empty deps.ReuseIndex
// disables the reuse optimization, which is how the verify engine shares
// this code with the download engine.
func New(deps Deps) *Assembler {
	return &Assembler{deps: deps}
}

// OnCredit is called with the number of bytes the caller should add to
// its global progress counter.
type OnCredit func(n uint64)

// FastPathCheck inspects an existing final file and, if its hash
// matches, reports the bytes to credit — spec.md §4.7 uses the
// manifest's declared file_size, §4.8's verify path uses the actual
// on-disk length; both happen to be equal for a valid file, so the
// caller supplies which one to credit.
type FastPathCheck func(existingLen uint64, fileSize uint64) uint64

// Assemble reconstructs file under the install directory, honoring
// fastCredit for the already-correct-on-disk case, crediting bytes via
// onCredit as work proceeds.
func (a *Assembler) Assemble(ctx context.Context, handle *control.Handle, file manifestcodec.FileManifest, fastCredit FastPathCheck, onCredit OnCredit) error {
	finalPath := filepath.Join(a.deps.InstallDir, file.FileName)
	tmpPath := finalPath + ".tmp"

	if existing, err := afero.ReadFile(a.deps.FS, finalPath); err == nil {
		sum := sha1.Sum(existing)
		if bytes.Equal(sum[:], file.Hash[:]) {
			onCredit(fastCredit(uint64(len(existing)), file.FileSize))
			return nil
		}
	}

	if handle.Cancelled() {
		return ErrCancelled{}
	}

	if dir := filepath.Dir(tmpPath); dir != "." {
		if err := a.deps.FS.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	var buf bytes.Buffer
	for _, part := range file.ChunkParts {
		if handle.Cancelled() {
			return ErrCancelled{}
		}

		if loc, ok := a.deps.ReuseIndex.Lookup(file.FileName, part.GUID, part.Offset, part.Size); ok {
			slice, err := a.readReused(loc, part.Size)
			if err != nil {
				return err
			}
			buf.Write(slice)
			onCredit(uint64(len(slice)))
			continue
		}

		slice, err := a.fetchChunkPart(ctx, handle, part)
		if err != nil {
			return err
		}
		buf.Write(slice)
		onCredit(uint64(len(slice)))
	}

	if err := afero.WriteFile(a.deps.FS, tmpPath, buf.Bytes(), 0o644); err != nil {
		return err
	}

	written, err := afero.ReadFile(a.deps.FS, tmpPath)
	if err != nil {
		return err
	}
	sum := sha1.Sum(written)
	if !bytes.Equal(sum[:], file.Hash[:]) {
		return ErrHashMismatch{FileName: file.FileName}
	}

	return a.deps.FS.Rename(tmpPath, finalPath)
}

func (a *Assembler) readReused(loc reuseindex.Location, size uint32) ([]byte, error) {
	f, err := a.deps.FS.Open(filepath.Join(a.deps.InstallDir, loc.SourceFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if _, err := f.Seek(int64(loc.AbsoluteOffset), 0); err != nil {
		return nil, err
	}

	buf := make([]byte, size)
	if _, err := io.ReadFull(f, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

const chunkPollInterval = 100 * time.Millisecond
const chunkFetchCeiling = 30 * time.Second

func (a *Assembler) fetchChunkPart(ctx context.Context, handle *control.Handle, part manifestcodec.ChunkPart) ([]byte, error) {
	info, ok := a.deps.ChunksByID[part.GUID]
	if !ok {
		return nil, ErrChunkMissing{GUID: part.GUID}
	}

	decoded, ok := a.deps.Cache.Get(part.GUID)
	if !ok {
		raw, err := a.fetchWithCancellation(ctx, handle, info)
		if err != nil {
			return nil, err
		}
		decoded, err = chunkcodec.Decode(raw)
		if err != nil {
			return nil, err
		}
		a.deps.Cache.Put(part.GUID, decoded)
	}

	start := int(part.Offset)
	end := start + int(part.Size)
	if end > len(decoded) {
		return nil, ErrChunkCorrupt{Key: info.GUID.String()}
	}
	return decoded[start:end], nil
}

// fetchWithCancellation races the object-store fetch (itself bounded by
// chunkFetchCeiling) against a chunkPollInterval cancellation poll
// (spec.md §4.7 step 3c, §5 Cancellation).
func (a *Assembler) fetchWithCancellation(ctx context.Context, handle *control.Handle, info manifestcodec.ChunkInfo) ([]byte, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, chunkFetchCeiling)
	defer cancel()

	key := objectstore.ChunkKey(info.GroupNum, info.RollingHash, info.GUID)

	type result struct {
		data []byte
		err  error
	}
	resultCh := make(chan result, 1)
	go func() {
		data, err := a.deps.Store.Fetch(fetchCtx, a.deps.Bucket, key)
		resultCh <- result{data, err}
	}()

	ticker := time.NewTicker(chunkPollInterval)
	defer ticker.Stop()

	for {
		select {
		case res := <-resultCh:
			return res.data, res.err
		case <-ticker.C:
			if handle.Cancelled() {
				cancel()
				return nil, ErrCancelled{}
			}
		}
	}
}
