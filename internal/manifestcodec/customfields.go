package manifestcodec

import "github.com/realitylauncher/splash/internal/binreader"

// readCustomFields parses the CustomFields sub-block (spec.md §4.3 item 4):
// count keys, then count values, paired by index.
func readCustomFields(r *binreader.Reader) (CustomFields, error) {
	var cf CustomFields

	sb, err := r.BeginSubBlock()
	if err != nil {
		return cf, err
	}

	version, err := r.U8()
	if err != nil {
		return cf, err
	}
	cf.Version = version

	count, err := r.U32()
	if err != nil {
		return cf, err
	}

	keys := make([]string, count)
	for i := range keys {
		k, err := r.TaggedString()
		if err != nil {
			return cf, err
		}
		keys[i] = k
	}

	values := make([]string, count)
	for i := range values {
		v, err := r.TaggedString()
		if err != nil {
			return cf, err
		}
		values[i] = v
	}

	cf.Fields = make(map[string]string, count)
	for i, k := range keys {
		cf.Fields[k] = values[i]
	}

	if err := r.EndSubBlock(sb); err != nil {
		return cf, err
	}

	return cf, nil
}
