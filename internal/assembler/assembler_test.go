package assembler

import (
	"context"
	"crypto/sha1"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/realitylauncher/splash/internal/chunkcache"
	"github.com/realitylauncher/splash/internal/control"
	"github.com/realitylauncher/splash/internal/guid"
	"github.com/realitylauncher/splash/internal/manifestcodec"
	"github.com/realitylauncher/splash/internal/objectstore"
	"github.com/realitylauncher/splash/internal/reuseindex"
)

func buildPlainChunk(t *testing.T, payload []byte) []byte {
	t.Helper()
	sum := sha1.Sum(payload)

	var buf []byte
	putU32 := func(v uint32) {
		buf = append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
	}
	const headerSize = 4 + 4 + 4 + 4 + 16 + 8 + 1 + 20 + 1 + 4 // up to and including uncompressed_size
	putU32(0xB1FE3AA2)                                        // magic
	putU32(3)                                                 // version
	putU32(headerSize)
	putU32(uint32(len(payload))) // compressed_size (equal to plain payload length)
	buf = append(buf, make([]byte, 16)...)    // guid
	buf = append(buf, 0, 0, 0, 0, 0, 0, 0, 0) // rolling hash
	buf = append(buf, 0)                      // storedAs = plain
	buf = append(buf, sum[:]...)
	buf = append(buf, 3)             // hash type
	putU32(uint32(len(payload)))     // uncompressed size (v3)
	buf = append(buf, payload...)
	return buf
}

func newHandle(t *testing.T) *control.Handle {
	t.Helper()
	reg := control.NewRegistry()
	h, err := reg.Start(control.KindDownload)
	require.NoError(t, err)
	return h
}

func TestAssembleFastPathCreditsOnMatchingHash(t *testing.T) {
	fs := afero.NewMemMapFs()
	content := []byte("already installed")
	sum := sha1.Sum(content)
	require.NoError(t, afero.WriteFile(fs, "/install/a.dat", content, 0o644))

	cache, err := chunkcache.New(4)
	require.NoError(t, err)

	a := New(Deps{FS: fs, InstallDir: "/install", Cache: cache})

	var credited uint64
	file := manifestcodec.FileManifest{FileName: "a.dat", Hash: sum, FileSize: uint64(len(content))}

	err = a.Assemble(context.Background(), newHandle(t), file,
		func(existingLen, fileSize uint64) uint64 { return fileSize },
		func(n uint64) { credited += n })

	require.NoError(t, err)
	assert.EqualValues(t, len(content), credited)
}

func TestAssembleDownloadsMissingChunkAndWritesFinalFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	cache, err := chunkcache.New(4)
	require.NoError(t, err)

	payload := []byte("HELLOWORLD")
	chunkBytes := buildPlainChunk(t, payload)

	ctrl := gomock.NewController(t)
	store := objectstore.NewMockClient(ctrl)
	store.EXPECT().Fetch(gomock.Any(), "bucket", gomock.Any()).Return(chunkBytes, nil)

	g := guid.GUID{1, 2, 3, 4}
	chunkInfo := manifestcodec.ChunkInfo{GUID: g}

	a := New(Deps{
		FS:         fs,
		Store:      store,
		Cache:      cache,
		Bucket:     "bucket",
		InstallDir: "/install",
		ChunksByID: map[guid.GUID]manifestcodec.ChunkInfo{g: chunkInfo},
	})

	fileHash := sha1.Sum(payload)
	file := manifestcodec.FileManifest{
		FileName: "a.dat",
		Hash:     fileHash,
		FileSize: uint64(len(payload)),
		ChunkParts: []manifestcodec.ChunkPart{
			{GUID: g, Offset: 0, Size: uint32(len(payload))},
		},
	}

	var credited uint64
	err = a.Assemble(context.Background(), newHandle(t), file,
		func(existingLen, fileSize uint64) uint64 { return fileSize },
		func(n uint64) { credited += n })
	require.NoError(t, err)
	assert.EqualValues(t, len(payload), credited)

	data, err := afero.ReadFile(fs, "/install/a.dat")
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestAssembleReusesBytesFromSourceFileWithoutFetching(t *testing.T) {
	fs := afero.NewMemMapFs()
	cache, err := chunkcache.New(4)
	require.NoError(t, err)

	payload := []byte("REUSEDBYTES")
	require.NoError(t, afero.WriteFile(fs, "/install/old.dat", payload, 0o644))

	ctrl := gomock.NewController(t)
	store := objectstore.NewMockClient(ctrl) // no EXPECT() calls: fetch must not happen

	g := guid.GUID{9, 9, 9, 9}
	idx := reuseindex.Index{
		{FileName: "new.dat", GUID: g, Offset: 0, Size: uint32(len(payload))}: {
			SourceFile:     "old.dat",
			AbsoluteOffset: 0,
		},
	}

	a := New(Deps{
		FS:         fs,
		Store:      store,
		Cache:      cache,
		Bucket:     "bucket",
		InstallDir: "/install",
		ChunksByID: map[guid.GUID]manifestcodec.ChunkInfo{},
		ReuseIndex: idx,
	})

	fileHash := sha1.Sum(payload)
	file := manifestcodec.FileManifest{
		FileName: "new.dat",
		Hash:     fileHash,
		FileSize: uint64(len(payload)),
		ChunkParts: []manifestcodec.ChunkPart{
			{GUID: g, Offset: 0, Size: uint32(len(payload))},
		},
	}

	var credited uint64
	err = a.Assemble(context.Background(), newHandle(t), file,
		func(existingLen, fileSize uint64) uint64 { return fileSize },
		func(n uint64) { credited += n })
	require.NoError(t, err)
	assert.EqualValues(t, len(payload), credited)
}

func TestAssembleFailsWithChunkMissingWhenGUIDUnknown(t *testing.T) {
	fs := afero.NewMemMapFs()
	cache, err := chunkcache.New(4)
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	store := objectstore.NewMockClient(ctrl)

	g := guid.GUID{1, 1, 1, 1}
	a := New(Deps{FS: fs, Store: store, Cache: cache, Bucket: "bucket", InstallDir: "/install", ChunksByID: map[guid.GUID]manifestcodec.ChunkInfo{}})

	file := manifestcodec.FileManifest{
		FileName:   "a.dat",
		ChunkParts: []manifestcodec.ChunkPart{{GUID: g, Offset: 0, Size: 4}},
	}

	err = a.Assemble(context.Background(), newHandle(t), file,
		func(existingLen, fileSize uint64) uint64 { return fileSize },
		func(n uint64) {})

	var missing ErrChunkMissing
	require.ErrorAs(t, err, &missing)
}
