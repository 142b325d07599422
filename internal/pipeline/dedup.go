package pipeline

// DedupIndex answers "is this posting already tracked?" against the snapshot
// taken when the run started. It is never refreshed mid-run.
type DedupIndex struct {
	keys map[string]struct{}
}

func NewDedupIndex(keys []string) *DedupIndex {
	m := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		m[k] = struct{}{}
	}
	return &DedupIndex{keys: m}
}

func (d *DedupIndex) Exists(key string) bool {
	_, ok := d.keys[key]
	return ok
}

func (d *DedupIndex) Len() int { return len(d.keys) }
