package scanner

// SizeGroups maps a file size to every record of that size. Sizes keeps the
// order in which each size was first seen.
type SizeGroups struct {
	Sizes   []int64
	Members map[int64][]FileRecord
}

// GroupBySize partitions records by exact size, preserving discovery order.
// Sizes with a single member cannot hold duplicates and are dropped.
func GroupBySize(records []FileRecord) *SizeGroups {
	all := &SizeGroups{Members: make(map[int64][]FileRecord)}
	for _, record := range records {
		if _, ok := all.Members[record.Size]; !ok {
			all.Sizes = append(all.Sizes, record.Size)
		}
		all.Members[record.Size] = append(all.Members[record.Size], record)
	}

	groups := &SizeGroups{Members: make(map[int64][]FileRecord)}
	for _, size := range all.Sizes {
		if len(all.Members[size]) < 2 {
			continue
		}
		groups.Sizes = append(groups.Sizes, size)
		groups.Members[size] = all.Members[size]
	}
	return groups
}

// Len returns the number of size groups
func (g *SizeGroups) Len() int {
	return len(g.Sizes)
}

// Candidates returns the number of records still in play
func (g *SizeGroups) Candidates() int {
	n := 0
	for _, size := range g.Sizes {
		n += len(g.Members[size])
	}
	return n
}

// Records flattens the groups in size order, then discovery order
func (g *SizeGroups) Records() []FileRecord {
	out := make([]FileRecord, 0, g.Candidates())
	for _, size := range g.Sizes {
		out = append(out, g.Members[size]...)
	}
	return out
}
