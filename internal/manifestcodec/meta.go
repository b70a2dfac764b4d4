package manifestcodec

import "github.com/realitylauncher/splash/internal/binreader"

// readMeta parses the ManifestMeta sub-block (spec.md §4.3 item 1).
func readMeta(r *binreader.Reader) (Meta, error) {
	var m Meta

	sb, err := r.BeginSubBlock()
	if err != nil {
		return m, err
	}

	dataVersion, err := r.U8()
	if err != nil {
		return m, err
	}

	if m.FeatureLevel, err = r.U32(); err != nil {
		return m, err
	}
	isFileData, err := r.U8()
	if err != nil {
		return m, err
	}
	m.IsFileData = isFileData != 0

	if m.AppID, err = r.U32(); err != nil {
		return m, err
	}
	if m.AppName, err = r.TaggedString(); err != nil {
		return m, err
	}
	if m.BuildVersion, err = r.TaggedString(); err != nil {
		return m, err
	}
	if m.LaunchExe, err = r.TaggedString(); err != nil {
		return m, err
	}
	if m.LaunchCommand, err = r.TaggedString(); err != nil {
		return m, err
	}

	prereqCount, err := r.U32()
	if err != nil {
		return m, err
	}
	m.PrereqIDs = make([]string, 0, prereqCount)
	for i := uint32(0); i < prereqCount; i++ {
		id, err := r.TaggedString()
		if err != nil {
			return m, err
		}
		m.PrereqIDs = append(m.PrereqIDs, id)
	}

	if m.PrereqName, err = r.TaggedString(); err != nil {
		return m, err
	}
	if m.PrereqPath, err = r.TaggedString(); err != nil {
		return m, err
	}
	if m.PrereqArgs, err = r.TaggedString(); err != nil {
		return m, err
	}

	if dataVersion >= 1 {
		if m.BuildID, err = r.TaggedString(); err != nil {
			return m, err
		}
	}

	if dataVersion >= 2 {
		if m.UninstallActionPath, err = r.TaggedString(); err != nil {
			return m, err
		}
		if m.UninstallActionArgs, err = r.TaggedString(); err != nil {
			return m, err
		}
	}

	if err := r.EndSubBlock(sb); err != nil {
		return m, err
	}

	return m, nil
}
