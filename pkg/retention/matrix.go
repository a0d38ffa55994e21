package retention

// PresenceMatrix is an entity × period table where a cell is 1 iff the
// entity had at least one qualifying event in that period. Entities that
// never appear in a period read as 0 for it.
type PresenceMatrix struct {
	periods  []Period
	entities []string
	index    map[string]int
	cells    [][]uint8
}

// NewPresenceMatrix returns an empty matrix with one column per period.
// periods must already be in chronological order.
func NewPresenceMatrix(periods []Period) *PresenceMatrix {
	return &PresenceMatrix{
		periods: periods,
		index:   make(map[string]int),
	}
}

func (m *PresenceMatrix) row(entity string) int {
	if i, ok := m.index[entity]; ok {
		return i
	}
	i := len(m.entities)
	m.index[entity] = i
	m.entities = append(m.entities, entity)
	m.cells = append(m.cells, make([]uint8, len(m.periods)))
	return i
}

// Mark records that entity was present in the period at column. Marking the
// same cell twice is a no-op.
func (m *PresenceMatrix) Mark(entity string, column int) {
	m.cells[m.row(entity)][column] = 1
}

// Cell returns the 0/1 presence of entity in the period at column.
func (m *PresenceMatrix) Cell(entity string, column int) int {
	i, ok := m.index[entity]
	if !ok {
		return 0
	}
	return int(m.cells[i][column])
}

// Entities returns the row labels in first-seen order.
func (m *PresenceMatrix) Entities() []string {
	return m.entities
}

// Total is the number of entities present in the period at column.
func (m *PresenceMatrix) Total(column int) int {
	n := 0
	for _, row := range m.cells {
		n += int(row[column])
	}
	return n
}

// FrequencyMatrix counts distinct posts per entity and period. It is used to
// enumerate entities with their activity, never for rate math.
type FrequencyMatrix struct {
	periods []Period
	counts  map[string][]int
	seen    map[frequencyKey]struct{}
}

type frequencyKey struct {
	entity string
	column int
	post   string
}

func NewFrequencyMatrix(periods []Period) *FrequencyMatrix {
	return &FrequencyMatrix{
		periods: periods,
		counts:  make(map[string][]int),
		seen:    make(map[frequencyKey]struct{}),
	}
}

// Add counts one post for entity in the period at column. A post id already
// counted for the same cell is ignored; events without a post id always
// count.
func (m *FrequencyMatrix) Add(entity string, column int, postID string) {
	row, ok := m.counts[entity]
	if !ok {
		row = make([]int, len(m.periods))
		m.counts[entity] = row
	}
	if postID != "" {
		k := frequencyKey{entity: entity, column: column, post: postID}
		if _, dup := m.seen[k]; dup {
			return
		}
		m.seen[k] = struct{}{}
	}
	row[column]++
}

// Row returns the per-period counts of entity, or nil if it has none.
func (m *FrequencyMatrix) Row(entity string) []int {
	return m.counts[entity]
}
