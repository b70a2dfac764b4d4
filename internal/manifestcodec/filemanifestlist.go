package manifestcodec

import "github.com/realitylauncher/splash/internal/binreader"

// readFileManifestList parses the FileManifestList sub-block (spec.md §4.3
// item 3), also column-major: filenames, symlink targets, SHA-1s, flags,
// per-file tag lists, per-file chunk-part lists, then version-gated
// optional MD5/MIME/SHA-256 columns.
func readFileManifestList(r *binreader.Reader) (FileManifestList, error) {
	var list FileManifestList

	sb, err := r.BeginSubBlock()
	if err != nil {
		return list, err
	}

	version, err := r.U8()
	if err != nil {
		return list, err
	}
	list.Version = version

	count, err := r.U32()
	if err != nil {
		return list, err
	}
	list.Elements = make([]FileManifest, count)

	for i := range list.Elements {
		name, err := r.TaggedString()
		if err != nil {
			return list, err
		}
		list.Elements[i].FileName = name
	}

	for i := range list.Elements {
		target, err := r.TaggedString()
		if err != nil {
			return list, err
		}
		list.Elements[i].SymlinkTarget = target
	}

	for i := range list.Elements {
		sha, err := r.Bytes(20)
		if err != nil {
			return list, err
		}
		copy(list.Elements[i].Hash[:], sha)
	}

	for i := range list.Elements {
		flags, err := r.U8()
		if err != nil {
			return list, err
		}
		list.Elements[i].Flags = flags
	}

	for i := range list.Elements {
		tagCount, err := r.U32()
		if err != nil {
			return list, err
		}
		tags := make([]string, 0, tagCount)
		for j := uint32(0); j < tagCount; j++ {
			tag, err := r.TaggedString()
			if err != nil {
				return list, err
			}
			tags = append(tags, tag)
		}
		list.Elements[i].InstallTags = tags
	}

	for i := range list.Elements {
		partCount, err := r.U32()
		if err != nil {
			return list, err
		}

		parts := make([]ChunkPart, 0, partCount)
		var fileOffset uint32
		for j := uint32(0); j < partCount; j++ {
			// The per-part declared_size is read and discarded per
			// spec.md §4.3 item 3 — the authoritative size is the size
			// field read below.
			if _, err := r.U32(); err != nil {
				return list, err
			}

			g, err := r.GUID()
			if err != nil {
				return list, err
			}
			offset, err := r.U32()
			if err != nil {
				return list, err
			}
			size, err := r.U32()
			if err != nil {
				return list, err
			}

			parts = append(parts, ChunkPart{
				GUID:       g,
				Offset:     offset,
				Size:       size,
				FileOffset: fileOffset,
			})
			fileOffset += size
		}
		list.Elements[i].ChunkParts = parts
	}

	if version >= 1 {
		for i := range list.Elements {
			hasMD5, err := r.U32()
			if err != nil {
				return list, err
			}
			if hasMD5 != 0 {
				md5, err := r.Bytes(16)
				if err != nil {
					return list, err
				}
				copy(list.Elements[i].MD5[:], md5)
				list.Elements[i].HasMD5 = true
			}
		}

		for i := range list.Elements {
			mime, err := r.TaggedString()
			if err != nil {
				return list, err
			}
			list.Elements[i].MimeType = mime
			list.Elements[i].HasMimeType = true
		}
	}

	if version >= 2 {
		for i := range list.Elements {
			sha256, err := r.Bytes(32)
			if err != nil {
				return list, err
			}
			copy(list.Elements[i].SHA256[:], sha256)
			list.Elements[i].HasSHA256 = true
		}
	}

	for i := range list.Elements {
		var total uint64
		for _, p := range list.Elements[i].ChunkParts {
			total += uint64(p.Size)
		}
		list.Elements[i].FileSize = total
	}

	if err := r.EndSubBlock(sb); err != nil {
		return list, err
	}

	return list, nil
}
