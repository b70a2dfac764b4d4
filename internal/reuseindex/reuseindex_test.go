package reuseindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realitylauncher/splash/internal/guid"
	"github.com/realitylauncher/splash/internal/manifestcodec"
)

func TestBuildWithNilPreviousYieldsEmptyIndex(t *testing.T) {
	idx := Build(nil)
	require.NotNil(t, idx)
	_, ok := idx.Lookup("a.dat", guid.GUID{1, 2, 3, 4}, 0, 8)
	assert.False(t, ok)
}

func TestBuildComputesAbsoluteOffsetsAcrossParts(t *testing.T) {
	g1 := guid.GUID{1, 0, 0, 0}
	g2 := guid.GUID{2, 0, 0, 0}

	previous := &manifestcodec.ParsedManifest{
		FileManifestList: manifestcodec.FileManifestList{
			Elements: []manifestcodec.FileManifest{
				{
					FileName: "a.dat",
					ChunkParts: []manifestcodec.ChunkPart{
						{GUID: g1, Offset: 0, Size: 100},
						{GUID: g2, Offset: 0, Size: 50},
					},
				},
			},
		},
	}

	idx := Build(previous)

	loc, ok := idx.Lookup("a.dat", g1, 0, 100)
	require.True(t, ok)
	assert.Equal(t, "a.dat", loc.SourceFile)
	assert.EqualValues(t, 0, loc.AbsoluteOffset)

	loc2, ok := idx.Lookup("a.dat", g2, 0, 50)
	require.True(t, ok)
	assert.EqualValues(t, 100, loc2.AbsoluteOffset)
}

func TestLookupRestrictedToSameFileName(t *testing.T) {
	g1 := guid.GUID{1, 0, 0, 0}
	previous := &manifestcodec.ParsedManifest{
		FileManifestList: manifestcodec.FileManifestList{
			Elements: []manifestcodec.FileManifest{
				{
					FileName: "a.dat",
					ChunkParts: []manifestcodec.ChunkPart{
						{GUID: g1, Offset: 0, Size: 100},
					},
				},
			},
		},
	}

	idx := Build(previous)

	_, ok := idx.Lookup("b.dat", g1, 0, 100)
	assert.False(t, ok)
}
