package rdfgraph

// store holds one graph's own statements with per-position indexes.
// It is never mutated after Builder.Build returns.
type store struct {
	triples []Triple
	byS     map[Term][]int
	byP     map[Term][]int
	byO     map[Term][]int
}

func newStore() *store {
	return &store{
		byS: make(map[Term][]int),
		byP: make(map[Term][]int),
		byO: make(map[Term][]int),
	}
}

func (s *store) add(t Triple) {
	i := len(s.triples)
	s.triples = append(s.triples, t)
	s.byS[t.S] = append(s.byS[t.S], i)
	s.byP[t.P] = append(s.byP[t.P], i)
	s.byO[t.O] = append(s.byO[t.O], i)
}

// each calls fn for every statement matching the bound positions in insertion
// order. It returns false when fn stopped the iteration.
func (s *store) each(subj, pred, obj *Term, fn func(Triple) bool) bool {
	var candidates []int
	indexed := false

	pick := func(idx map[Term][]int, t *Term) {
		if t == nil {
			return
		}
		list := idx[*t]
		if !indexed || len(list) < len(candidates) {
			candidates = list
			indexed = true
		}
	}
	pick(s.byS, subj)
	pick(s.byP, pred)
	pick(s.byO, obj)

	if !indexed {
		for _, t := range s.triples {
			if !fn(t) {
				return false
			}
		}
		return true
	}

	for _, i := range candidates {
		t := s.triples[i]
		if subj != nil && t.S != *subj {
			continue
		}
		if pred != nil && t.P != *pred {
			continue
		}
		if obj != nil && t.O != *obj {
			continue
		}
		if !fn(t) {
			return false
		}
	}
	return true
}
