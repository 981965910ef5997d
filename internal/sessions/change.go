package sessions

// ChangeKind is the platform-neutral shape of a filesystem change.
type ChangeKind int

const (
	ChangeCreated ChangeKind = iota + 1
	ChangeModified
	ChangeRemoved
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeCreated:
		return "created"
	case ChangeModified:
		return "modified"
	case ChangeRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Change is one entry of the canonical change feed.
type Change struct {
	Path string
	Kind ChangeKind
}

// changeSource delivers batches of changes for a single directory. Both
// channels are closed once the source has shut down.
type changeSource interface {
	Batches() <-chan []Change
	Errors() <-chan error
	Close() error
}

// batchBuilder collapses repeated changes to the same path into one entry,
// keeping the position of the first arrival.
type batchBuilder struct {
	order []string
	kinds map[string]ChangeKind
}

func (b *batchBuilder) add(c Change) {
	if b.kinds == nil {
		b.kinds = make(map[string]ChangeKind)
	}
	prev, seen := b.kinds[c.Path]
	if !seen {
		b.order = append(b.order, c.Path)
		b.kinds[c.Path] = c.Kind
		return
	}
	// A write right after a create is still a create.
	if prev == ChangeCreated && c.Kind == ChangeModified {
		return
	}
	b.kinds[c.Path] = c.Kind
}

func (b *batchBuilder) empty() bool {
	return len(b.order) == 0
}

// flush returns the pending batch and resets the builder.
func (b *batchBuilder) flush() []Change {
	if b.empty() {
		return nil
	}
	batch := make([]Change, 0, len(b.order))
	for _, path := range b.order {
		batch = append(batch, Change{Path: path, Kind: b.kinds[path]})
	}
	b.order = nil
	b.kinds = nil
	return batch
}
