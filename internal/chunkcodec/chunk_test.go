package chunkcodec

import (
	"bytes"
	"compress/zlib"
	"crypto/sha1"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realitylauncher/splash/internal/guid"
)

// buildChunk assembles a v3, optionally-compressed chunk exactly as
// spec.md §4.2 describes it, for use as test fixtures.
func buildChunk(t *testing.T, payload []byte, g guid.GUID, compress bool) []byte {
	t.Helper()

	var body bytes.Buffer
	storedAs := byte(0)
	if compress {
		storedAs = 0x01
		w := zlib.NewWriter(&body)
		_, err := w.Write(payload)
		require.NoError(t, err)
		require.NoError(t, w.Close())
	} else {
		body.Write(payload)
	}

	sum := sha1.Sum(payload)

	var header bytes.Buffer
	binary.Write(&header, binary.LittleEndian, magic)
	binary.Write(&header, binary.LittleEndian, uint32(3)) // version
	headerSize := uint32(4 + 4 + 4 + 4 + 16 + 8 + 1 + 20 + 1 + 4)
	binary.Write(&header, binary.LittleEndian, headerSize)
	binary.Write(&header, binary.LittleEndian, uint32(body.Len()))
	for _, w := range g {
		binary.Write(&header, binary.LittleEndian, w)
	}
	binary.Write(&header, binary.LittleEndian, uint64(0xDEADBEEF)) // rolling hash
	header.WriteByte(storedAs)
	header.Write(sum[:])
	header.WriteByte(3) // hash_type
	binary.Write(&header, binary.LittleEndian, uint32(len(payload)))

	require.EqualValues(t, headerSize, header.Len())

	out := append(header.Bytes(), body.Bytes()...)
	return out
}

func TestDecodeRoundTripCompressed(t *testing.T) {
	payload := []byte("HELLO WORLD, this is a chunk payload used in a round trip test.")
	g := guid.GUID{1, 2, 3, 4}
	data := buildChunk(t, payload, g, true)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, payload, decoded)
}

func TestDecodeRoundTripPlain(t *testing.T) {
	payload := []byte("plaintext chunk")
	g := guid.GUID{9, 9, 9, 9}
	data := buildChunk(t, payload, g, false)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, payload, decoded)
}

func TestDecodeRejectsInvalidMagic(t *testing.T) {
	data := make([]byte, 64)
	_, err := Decode(data)
	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, KindInvalidMagic, ce.Kind)
}

func TestDecodeRejectsVersion1AsMissingHashInfo(t *testing.T) {
	// spec.md §9: version 1 is accepted at the magic check but rejected
	// later, at use, as MissingHashInfo — not earlier.
	var header bytes.Buffer
	binary.Write(&header, binary.LittleEndian, magic)
	binary.Write(&header, binary.LittleEndian, uint32(1))
	binary.Write(&header, binary.LittleEndian, uint32(4+4+4+4+16+8+1))
	binary.Write(&header, binary.LittleEndian, uint32(0))
	for i := 0; i < 4; i++ {
		binary.Write(&header, binary.LittleEndian, uint32(0))
	}
	binary.Write(&header, binary.LittleEndian, uint64(0))
	header.WriteByte(0)

	_, err := Decode(header.Bytes())
	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, KindMissingHashInfo, ce.Kind)
}

func TestDecodeRejectsUnknownVersion(t *testing.T) {
	var header bytes.Buffer
	binary.Write(&header, binary.LittleEndian, magic)
	binary.Write(&header, binary.LittleEndian, uint32(7))
	_, err := Decode(header.Bytes())
	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, KindUnknownVersion, ce.Kind)
	assert.EqualValues(t, 7, ce.Version)
}

func TestDecodeFlippedByteFailsHashCheck(t *testing.T) {
	payload := []byte("deterministic payload for corruption test")
	g := guid.GUID{5, 5, 5, 5}
	data := buildChunk(t, payload, g, false)

	// Flip a byte in the payload region, after the header.
	headerSize := uint32(4 + 4 + 4 + 4 + 16 + 8 + 1 + 20 + 1 + 4)
	data[headerSize] ^= 0xFF

	_, err := Decode(data)
	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, KindHashCheckFailed, ce.Kind)
}

func TestDecodeRejectsEncryptedStorage(t *testing.T) {
	payload := []byte("irrelevant")
	g := guid.GUID{1, 1, 1, 1}
	data := buildChunk(t, payload, g, false)
	headerStoredAsOffset := int64(4 + 4 + 4 + 4 + 16 + 8)
	data[headerStoredAsOffset] = 0x02

	_, err := Decode(data)
	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, KindUnsupportedStorage, ce.Kind)
}
