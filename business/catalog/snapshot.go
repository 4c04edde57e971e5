package catalog

import (
	"cmp"
	"fmt"
	"math"
	"myStyleFit/domain"
	"slices"
	"time"
)

// Snapshot is an immutable view of the product catalog. It is built once per
// load and shared read-only by every request until the next refresh.
type Snapshot struct {
	records []domain.ProductRecord
	index   map[int]int // position -> offset into records
	unit    [][]float32 // unit-normalized embedding per record, nil when absent

	dim      int
	dropped  []int
	loadedAt time.Time
}

// NewSnapshot copies records into a new snapshot sorted by position.
// The first embedding seen fixes the catalog dimensionality; records whose
// vector has another length keep their keyword eligibility but lose the
// embedding.
func NewSnapshot(records []domain.ProductRecord) (*Snapshot, error) {
	recs := make([]domain.ProductRecord, len(records))
	copy(recs, records)
	slices.SortFunc(recs, func(a, b domain.ProductRecord) int {
		return cmp.Compare(a.Position, b.Position)
	})

	s := &Snapshot{
		records:  recs,
		index:    make(map[int]int, len(recs)),
		unit:     make([][]float32, len(recs)),
		loadedAt: time.Now(),
	}

	for i := range s.records {
		rec := &s.records[i]
		if _, dup := s.index[rec.Position]; dup {
			return nil, fmt.Errorf("duplicate product position %d", rec.Position)
		}
		s.index[rec.Position] = i

		if rec.Tags != nil {
			rec.Tags = slices.Clone(rec.Tags)
		}
		if !rec.HasEmbedding() {
			rec.Embedding = nil
			continue
		}

		if s.dim == 0 {
			s.dim = len(rec.Embedding)
		}
		if len(rec.Embedding) != s.dim {
			s.dropped = append(s.dropped, rec.Position)
			rec.Embedding = nil
			continue
		}

		rec.Embedding = slices.Clone(rec.Embedding)
		s.unit[i] = unitVector(rec.Embedding)
	}

	return s, nil
}

func (s *Snapshot) Len() int {
	return len(s.records)
}

// Record returns the record at offset i (0 <= i < Len()).
func (s *Snapshot) Record(i int) *domain.ProductRecord {
	return &s.records[i]
}

// Lookup finds a record by catalog position.
func (s *Snapshot) Lookup(position int) (*domain.ProductRecord, bool) {
	i, ok := s.index[position]
	if !ok {
		return nil, false
	}
	return &s.records[i], true
}

// Offset maps a catalog position to its record offset.
func (s *Snapshot) Offset(position int) (int, bool) {
	i, ok := s.index[position]
	return i, ok
}

// UnitEmbedding is the L2-normalized embedding of the record at offset i,
// or nil when the record has none. A zero vector stays zero.
func (s *Snapshot) UnitEmbedding(i int) []float32 {
	return s.unit[i]
}

// Dim is the catalog embedding dimensionality, 0 when no record has one.
func (s *Snapshot) Dim() int {
	return s.dim
}

// DroppedEmbeddings lists positions whose embedding had the wrong length.
func (s *Snapshot) DroppedEmbeddings() []int {
	return slices.Clone(s.dropped)
}

func (s *Snapshot) LoadedAt() time.Time {
	return s.loadedAt
}

func unitVector(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}

	out := make([]float32, len(v))
	norm := math.Sqrt(sum)
	if norm == 0 {
		return out
	}

	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
