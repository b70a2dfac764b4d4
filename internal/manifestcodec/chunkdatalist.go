package manifestcodec

import "github.com/realitylauncher/splash/internal/binreader"

// readChunkDataList parses the ChunkDataList sub-block (spec.md §4.3 item
// 2). Fields are stored in parallel arrays — all GUIDs, then all rolling
// hashes, then all SHA-1s, then all group numbers, then all window sizes,
// then all file sizes — so the list is allocated up front and filled
// column by column.
func readChunkDataList(r *binreader.Reader) (ChunkDataList, error) {
	var list ChunkDataList

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

	list.Elements = make([]ChunkInfo, count)

	for i := range list.Elements {
		g, err := r.GUID()
		if err != nil {
			return list, err
		}
		list.Elements[i].GUID = g
	}

	for i := range list.Elements {
		h, err := r.U64()
		if err != nil {
			return list, err
		}
		list.Elements[i].RollingHash = h
	}

	for i := range list.Elements {
		sha, err := r.Bytes(20)
		if err != nil {
			return list, err
		}
		copy(list.Elements[i].SHA1[:], sha)
	}

	for i := range list.Elements {
		g, err := r.U8()
		if err != nil {
			return list, err
		}
		list.Elements[i].GroupNum = g
	}

	for i := range list.Elements {
		ws, err := r.U32()
		if err != nil {
			return list, err
		}
		list.Elements[i].WindowSize = ws
	}

	for i := range list.Elements {
		fs, err := r.I64()
		if err != nil {
			return list, err
		}
		list.Elements[i].FileSize = fs
	}

	if err := r.EndSubBlock(sb); err != nil {
		return list, err
	}

	return list, nil
}
