// Package chunkcodec decodes a single stored chunk: header, optional zlib
// payload, and SHA-1 integrity check (spec.md §4.2).
package chunkcodec

import (
	"bytes"
	"crypto/sha1"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/realitylauncher/splash/internal/binreader"
	"github.com/realitylauncher/splash/internal/guid"
)

const magic uint32 = 0xB1FE3AA2

const (
	storedPlain      = 0x00
	storedCompressed = 0x01
	storedEncrypted  = 0x02
)

// Header is the parsed chunk header (spec.md §4.2 table).
type Header struct {
	Version           uint32
	HeaderSize        uint32
	CompressedSize    uint32
	GUID              guid.GUID
	RollingHash       uint64
	StoredAs          uint8
	SHA1              [20]byte
	HasSHA1           bool // version >= 2
	HashType          uint8
	UncompressedSize  uint32
	HasUncompressed   bool // version >= 3
}

// ParseHeader reads and validates a chunk header from the start of r.
func ParseHeader(r *binreader.Reader) (Header, error) {
	var h Header

	m, err := r.U32()
	if err != nil {
		return h, err
	}
	if m != magic {
		return h, newErr(KindInvalidMagic)
	}

	h.Version, err = r.U32()
	if err != nil {
		return h, err
	}
	if h.Version < 1 || h.Version > 3 {
		return h, &Error{Kind: KindUnknownVersion, Version: h.Version}
	}

	h.HeaderSize, err = r.U32()
	if err != nil {
		return h, err
	}
	h.CompressedSize, err = r.U32()
	if err != nil {
		return h, err
	}
	h.GUID, err = r.GUID()
	if err != nil {
		return h, err
	}
	h.RollingHash, err = r.U64()
	if err != nil {
		return h, err
	}
	storedAs, err := r.U8()
	if err != nil {
		return h, err
	}
	h.StoredAs = storedAs

	if h.Version >= 2 {
		sha, err := r.Bytes(20)
		if err != nil {
			return h, err
		}
		copy(h.SHA1[:], sha)
		h.HasSHA1 = true

		h.HashType, err = r.U8()
		if err != nil {
			return h, err
		}
	}

	if h.Version >= 3 {
		h.UncompressedSize, err = r.U32()
		if err != nil {
			return h, err
		}
		h.HasUncompressed = true
	}

	return h, nil
}

// Decode parses the chunk header from data and returns the decoded payload,
// applying the decoding rules of spec.md §4.2 in order.
func Decode(data []byte) ([]byte, error) {
	r := binreader.New(bytes.NewReader(data))
	h, err := ParseHeader(r)
	if err != nil {
		return nil, err
	}

	totalSize := uint64(h.HeaderSize) + uint64(h.CompressedSize)
	if totalSize > uint64(len(data)) {
		return nil, newErr(KindIncorrectFileSize)
	}

	if h.StoredAs&storedEncrypted != 0 {
		return nil, newErr(KindUnsupportedStorage)
	}

	if !h.HasSHA1 {
		return nil, newErr(KindMissingHashInfo)
	}

	payload := data[h.HeaderSize:totalSize]

	var decoded []byte
	if h.StoredAs&storedCompressed != 0 {
		zr, err := zlib.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, &Error{Kind: KindDecompressFailure, Detail: err.Error()}
		}
		decoded, err = io.ReadAll(zr)
		zr.Close()
		if err != nil {
			return nil, &Error{Kind: KindDecompressFailure, Detail: err.Error()}
		}
		if h.HasUncompressed && uint32(len(decoded)) != h.UncompressedSize {
			return nil, &Error{Kind: KindDecompressFailure, Detail: "inflated length does not match declared uncompressed_size"}
		}
	} else {
		decoded = payload
	}

	sum := sha1.Sum(decoded)
	if !bytes.Equal(sum[:], h.SHA1[:]) {
		return nil, newErr(KindHashCheckFailed)
	}

	return decoded, nil
}
