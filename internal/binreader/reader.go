// Package binreader implements the little-endian primitives the manifest
// and chunk codecs are built on: fixed-width integers, the tagged
// variable-length string format, and the "seek to declared sub-block end"
// tolerance for forward compatibility (spec.md §4.1).
package binreader

import (
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/realitylauncher/splash/internal/guid"
)

// Reader wraps an io.ReadSeeker with the primitives the binary formats need.
// It never buffers beyond what a single read requires, so callers can wrap
// any io.ReadSeeker — a bytes.Reader over an in-memory manifest, or a file.
type Reader struct {
	r io.ReadSeeker
}

// New wraps r.
func New(r io.ReadSeeker) *Reader {
	return &Reader{r: r}
}

// Pos returns the current stream offset.
func (r *Reader) Pos() (int64, error) {
	return r.r.Seek(0, io.SeekCurrent)
}

// SeekTo seeks to an absolute offset.
func (r *Reader) SeekTo(off int64) error {
	_, err := r.r.Seek(off, io.SeekStart)
	return err
}

// SeekForward advances by n bytes (n may be negative to rewind).
func (r *Reader) SeekForward(n int64) error {
	_, err := r.r.Seek(n, io.SeekCurrent)
	return err
}

func (r *Reader) readFull(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// U8 reads one byte.
func (r *Reader) U8() (uint8, error) {
	b, err := r.readFull(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// U32 reads a little-endian uint32.
func (r *Reader) U32() (uint32, error) {
	b, err := r.readFull(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// I32 reads a little-endian int32.
func (r *Reader) I32() (int32, error) {
	v, err := r.U32()
	return int32(v), err
}

// U64 reads a little-endian uint64.
func (r *Reader) U64() (uint64, error) {
	b, err := r.readFull(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// I64 reads a little-endian int64.
func (r *Reader) I64() (int64, error) {
	v, err := r.U64()
	return int64(v), err
}

// Bytes reads n raw bytes.
func (r *Reader) Bytes(n int) ([]byte, error) {
	return r.readFull(n)
}

// GUID reads a 128-bit chunk identifier as four little-endian u32 words.
func (r *Reader) GUID() (guid.GUID, error) {
	var g guid.GUID
	for i := range g {
		w, err := r.U32()
		if err != nil {
			return guid.GUID{}, err
		}
		g[i] = w
	}
	return g, nil
}

var utf16LE = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// TaggedString reads the tagged length-prefixed string format (spec.md
// §4.1):
//
//   - length n == 0:  empty string.
//   - length n  > 0:  UTF-8, n-1 bytes followed by one NUL byte (discarded).
//   - length n  < 0:  UTF-16LE, -n-1 code units followed by two NUL bytes
//     (i.e. 2*(-n)-2 payload bytes, then 2 bytes discarded).
func (r *Reader) TaggedString() (string, error) {
	n, err := r.I32()
	if err != nil {
		return "", err
	}

	switch {
	case n == 0:
		return "", nil
	case n > 0:
		buf, err := r.readFull(int(n) - 1)
		if err != nil {
			return "", err
		}
		if err := r.SeekForward(1); err != nil { // discard trailing NUL
			return "", err
		}
		return string(buf), nil
	default:
		payloadLen := 2*(-int(n)) - 2
		buf, err := r.readFull(payloadLen)
		if err != nil {
			return "", err
		}
		if err := r.SeekForward(2); err != nil { // discard trailing NUL×2
			return "", err
		}
		decoded, _, err := transform.Bytes(utf16LE.NewDecoder(), buf)
		if err != nil {
			// Malformed surrogates are tolerated lossily per spec.md §4.1.
			return string(buf), nil
		}
		return string(decoded), nil
	}
}

// SubBlock reads the common `{size u32, ...}` sub-block framing header and
// returns the starting offset (before the size field) and the declared
// total size, so the caller can seek to start+size once it has parsed every
// field it understands — tolerating unknown trailing fields from a newer
// format version.
type SubBlock struct {
	Start int64
	Size  uint32
}

// BeginSubBlock records the start offset and reads the size field.
func (r *Reader) BeginSubBlock() (SubBlock, error) {
	start, err := r.Pos()
	if err != nil {
		return SubBlock{}, err
	}
	size, err := r.U32()
	if err != nil {
		return SubBlock{}, err
	}
	return SubBlock{Start: start, Size: size}, nil
}

// EndSubBlock seeks forward to sb.Start+sb.Size, the position right after
// the sub-block, skipping any bytes left unread by parsing recognised
// fields. It returns an error if parsing already read past that position.
func (r *Reader) EndSubBlock(sb SubBlock) error {
	pos, err := r.Pos()
	if err != nil {
		return err
	}
	end := sb.Start + int64(sb.Size)
	if pos > end {
		return fmt.Errorf("binreader: sub-block starting at %d overran its declared size %d (read to %d)", sb.Start, sb.Size, pos)
	}
	return r.SeekTo(end)
}
