package projection

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// GroupRef identifies a group. The service emits numeric cluster ids; hand
// written snapshots often use strings. Both decode to the same value and the
// zero GroupRef means "absent".
type GroupRef struct {
	id    string
	valid bool
}

// Ref returns a GroupRef for id.
func Ref(id string) GroupRef { return GroupRef{id: id, valid: true} }

// IntRef returns a GroupRef for a numeric id.
func IntRef(id int) GroupRef { return Ref(strconv.Itoa(id)) }

// Valid reports whether the reference is set.
func (g GroupRef) Valid() bool { return g.valid }

func (g GroupRef) String() string { return g.id }

// IsZero lets encoding/json omit absent references.
func (g GroupRef) IsZero() bool { return !g.valid }

// MarshalJSON writes numeric ids as numbers and everything else as strings.
func (g GroupRef) MarshalJSON() ([]byte, error) {
	if !g.valid {
		return []byte("null"), nil
	}
	if _, err := strconv.Atoi(g.id); err == nil {
		return []byte(g.id), nil
	}
	return json.Marshal(g.id)
}

// UnmarshalJSON accepts a number, a string or null.
func (g *GroupRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*g = GroupRef{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*g = Ref(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*g = Ref(n.String())
	return nil
}

// Index resolves point group references against the snapshot's centers.
type Index struct {
	centers []Center
	byKey   map[string]int
	byLabel map[string]int
	byPoint map[int]int // point id -> center index, absent for ungrouped
	orphans []int
}

// Index builds the lookup tables for s. It is safe to call on a nil snapshot.
func (s *Snapshot) Index() *Index {
	idx := &Index{
		byKey:   make(map[string]int),
		byLabel: make(map[string]int),
		byPoint: make(map[int]int),
	}
	if s == nil {
		return idx
	}
	idx.centers = s.Centers
	for i, c := range s.Centers {
		if _, dup := idx.byKey[c.Key()]; !dup {
			idx.byKey[c.Key()] = i
		}
		if c.Label != "" {
			if _, dup := idx.byLabel[c.Label]; !dup {
				idx.byLabel[c.Label] = i
			}
		}
	}
	for _, p := range s.Points {
		if !p.Grouped() {
			continue
		}
		if ci, ok := idx.lookup(p); ok {
			idx.byPoint[p.ID] = ci
		} else {
			idx.orphans = append(idx.orphans, p.ID)
		}
	}
	return idx
}

func (idx *Index) lookup(p Point) (int, bool) {
	if p.Group.Valid() {
		ci, ok := idx.byKey[p.Group.String()]
		return ci, ok
	}
	ci, ok := idx.byLabel[p.Label]
	return ci, ok
}

// Group returns the center a point belongs to.
func (idx *Index) Group(pointID int) (Center, bool) {
	ci, ok := idx.byPoint[pointID]
	if !ok {
		return Center{}, false
	}
	return idx.centers[ci], true
}

// Center returns the center with the given key.
func (idx *Index) Center(key string) (Center, bool) {
	ci, ok := idx.byKey[key]
	if !ok {
		return Center{}, false
	}
	return idx.centers[ci], true
}

// Orphans returns the ids of points whose group matches no center, in
// snapshot order.
func (idx *Index) Orphans() []int { return idx.orphans }

// Members counts the resolved points of the group with the given key.
func (idx *Index) Members(key string) int {
	ci, ok := idx.byKey[key]
	if !ok {
		return 0
	}
	n := 0
	for _, c := range idx.byPoint {
		if c == ci {
			n++
		}
	}
	return n
}
