package ast

// DatomSet indexes datoms by entity id for O(1) lookup plus O(k) scan
// over the small number of attributes per entity, as required by the
// datom-graph VM.
type DatomSet struct {
	byEntity map[int64][]Datom
	root     int64
	hasRoot  bool
}

// NewDatomSet builds an index over datoms. It does not itself validate
// closure or type-uniqueness invariants; use Validate for that.
func NewDatomSet(datoms []Datom) *DatomSet {
	ds := &DatomSet{byEntity: make(map[int64][]Datom, len(datoms))}
	for _, d := range datoms {
		ds.byEntity[d.E] = append(ds.byEntity[d.E], d)
	}
	return ds
}

// Datoms returns every datom asserted about entity e.
func (ds *DatomSet) Datoms(e int64) []Datom {
	return ds.byEntity[e]
}

// Entities returns every entity id with at least one datom.
func (ds *DatomSet) Entities() []int64 {
	ids := make([]int64, 0, len(ds.byEntity))
	for id := range ds.byEntity {
		ids = append(ids, id)
	}
	return ids
}

// All returns every datom in the set.
func (ds *DatomSet) All() []Datom {
	all := make([]Datom, 0)
	for _, ds := range ds.byEntity {
		all = append(all, ds...)
	}
	return all
}

// Get returns the single value asserted for (e, a), or ok=false.
func (ds *DatomSet) Get(e int64, a Attr) (interface{}, bool) {
	for _, d := range ds.byEntity[e] {
		if d.A == a && !d.IsDerived() {
			return d.V, true
		}
	}
	return nil, false
}

// TypeOf returns the yin/type of entity e.
func (ds *DatomSet) TypeOf(e int64) (NodeType, bool) {
	v, ok := ds.Get(e, AttrType)
	if !ok {
		return "", false
	}
	nt, ok := v.(NodeType)
	return nt, ok
}

// Add merges additional datoms into the set (used by transport import).
func (ds *DatomSet) Add(datoms ...Datom) {
	for _, d := range datoms {
		ds.byEntity[d.E] = append(ds.byEntity[d.E], d)
	}
}

// Root finds the single entity referenced by no other entity. Returns
// an error if zero or more than one candidate exists.
func (ds *DatomSet) Root() (int64, error) {
	referenced := make(map[int64]bool)
	for _, datoms := range ds.byEntity {
		for _, d := range datoms {
			if d.IsDerived() {
				continue
			}
			if !IsRef(d.A) && !IsCardinalityMany(d.A) {
				continue
			}
			if id, ok := Ref(d.V); ok {
				referenced[id] = true
			}
			if ids, ok := RefVec(d.V); ok {
				for _, id := range ids {
					referenced[id] = true
				}
			}
		}
	}
	var roots []int64
	for e := range ds.byEntity {
		if !referenced[e] {
			roots = append(roots, e)
		}
	}
	if len(roots) != 1 {
		return 0, malformed(0, "expected exactly one root entity, found %d", len(roots))
	}
	return roots[0], nil
}

// Validate checks closure under reference and that every non-derived
// entity carries exactly one yin/type datom.
func (ds *DatomSet) Validate() error {
	for e, datoms := range ds.byEntity {
		typeCount := 0
		for _, d := range datoms {
			if d.A == AttrType && !d.IsDerived() {
				typeCount++
			}
			checkRef := func(id int64) error {
				if _, ok := ds.byEntity[id]; !ok {
					return malformed(e, "reference to entity %d with no datoms", id)
				}
				return nil
			}
			if id, ok := Ref(d.V); ok && IsRef(d.A) {
				if err := checkRef(id); err != nil {
					return err
				}
			}
			if ids, ok := RefVec(d.V); ok {
				for _, id := range ids {
					if err := checkRef(id); err != nil {
						return err
					}
				}
			}
		}
		if typeCount != 1 {
			return malformed(e, "expected exactly one yin/type datom, found %d", typeCount)
		}
	}
	return nil
}
