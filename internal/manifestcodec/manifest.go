package manifestcodec

import (
	"bytes"
	"crypto/sha1"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/sirupsen/logrus"

	"github.com/realitylauncher/splash/internal/binreader"
)

const envelopeMagic uint32 = 0x44BEC00C

const envelopeCompressedFlag = 0x01

// Parse decodes a full manifest byte buffer: the envelope (spec.md §4.3),
// then the four body sub-blocks in order.
func Parse(data []byte) (*ParsedManifest, error) {
	log := logrus.WithField("component", "manifestcodec")

	r := binreader.New(bytes.NewReader(data))

	m, err := r.U32()
	if err != nil {
		return nil, err
	}
	if m != envelopeMagic {
		return nil, newErr(KindInvalidMagic)
	}

	if _, err := r.U32(); err != nil { // header_size, unused beyond framing
		return nil, err
	}
	sizeUncompressed, err := r.U32()
	if err != nil {
		return nil, err
	}
	sizeCompressed, err := r.U32()
	if err != nil {
		return nil, err
	}
	sha, err := r.Bytes(20)
	if err != nil {
		return nil, err
	}
	storedAs, err := r.U8()
	if err != nil {
		return nil, err
	}
	version, err := r.U32()
	if err != nil {
		return nil, err
	}

	body, err := r.Bytes(int(sizeCompressed))
	if err != nil {
		return nil, err
	}

	compressed := storedAs&envelopeCompressedFlag != 0

	var decoded []byte
	if compressed {
		zr, err := zlib.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, &Error{Kind: KindUnsupportedFormat, Detail: err.Error()}
		}
		decoded, err = io.ReadAll(zr)
		zr.Close()
		if err != nil {
			return nil, &Error{Kind: KindUnsupportedFormat, Detail: err.Error()}
		}

		sum := sha1.Sum(decoded)
		if !bytes.Equal(sum[:], sha) {
			return nil, newErr(KindHashMismatch)
		}
	} else {
		decoded = body
	}

	if uint32(len(decoded)) != sizeUncompressed {
		return nil, newErr(KindSizeMismatch)
	}

	log.WithFields(logrus.Fields{
		"version":    version,
		"compressed": compressed,
		"size":       sizeUncompressed,
	}).Debug("manifest envelope verified")

	br := binreader.New(bytes.NewReader(decoded))

	meta, err := readMeta(br)
	if err != nil {
		return nil, err
	}
	chunkDataList, err := readChunkDataList(br)
	if err != nil {
		return nil, err
	}
	fileManifestList, err := readFileManifestList(br)
	if err != nil {
		return nil, err
	}
	customFields, err := readCustomFields(br)
	if err != nil {
		return nil, err
	}

	return &ParsedManifest{
		Version:          version,
		Compressed:       compressed,
		Meta:             meta,
		ChunkDataList:    chunkDataList,
		FileManifestList: fileManifestList,
		CustomFields:     customFields,
	}, nil
}
