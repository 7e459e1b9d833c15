package directory

// bimap is a one-to-one bidirectional index. Both directions are kept in
// lockstep by the single put/delete pair of operations; callers provide
// their own locking.
type bimap[L, R comparable] struct {
	fwd map[L]R
	rev map[R]L
}

func newBimap[L, R comparable]() *bimap[L, R] {
	return &bimap[L, R]{
		fwd: make(map[L]R),
		rev: make(map[R]L),
	}
}

func (b *bimap[L, R]) put(l L, r R) {
	b.fwd[l] = r
	b.rev[r] = l
}

func (b *bimap[L, R]) deleteLeft(l L) {
	r, ok := b.fwd[l]
	if !ok {
		return
	}
	delete(b.fwd, l)
	delete(b.rev, r)
}

func (b *bimap[L, R]) right(l L) (R, bool) {
	r, ok := b.fwd[l]
	return r, ok
}

func (b *bimap[L, R]) left(r R) (L, bool) {
	l, ok := b.rev[r]
	return l, ok
}

func (b *bimap[L, R]) lefts() []L {
	out := make([]L, 0, len(b.fwd))
	for l := range b.fwd {
		out = append(out, l)
	}
	return out
}

// pairIndex is a many-to-many bidirectional index. A left key exists iff it
// has at least one pair, and likewise for right keys; empty sets are removed
// rather than kept around.
type pairIndex[L, R comparable] struct {
	fwd map[L]map[R]struct{}
	rev map[R]map[L]struct{}
}

func newPairIndex[L, R comparable]() *pairIndex[L, R] {
	return &pairIndex[L, R]{
		fwd: make(map[L]map[R]struct{}),
		rev: make(map[R]map[L]struct{}),
	}
}

// add records the pair (l, r). It returns false if the pair was already
// present.
func (p *pairIndex[L, R]) add(l L, r R) bool {
	if p.contains(l, r) {
		return false
	}
	if p.fwd[l] == nil {
		p.fwd[l] = make(map[R]struct{})
	}
	if p.rev[r] == nil {
		p.rev[r] = make(map[L]struct{})
	}
	p.fwd[l][r] = struct{}{}
	p.rev[r][l] = struct{}{}
	return true
}

// remove deletes the pair (l, r). It returns false if the pair was not
// present.
func (p *pairIndex[L, R]) remove(l L, r R) bool {
	if !p.contains(l, r) {
		return false
	}
	delete(p.fwd[l], r)
	if len(p.fwd[l]) == 0 {
		delete(p.fwd, l)
	}
	delete(p.rev[r], l)
	if len(p.rev[r]) == 0 {
		delete(p.rev, r)
	}
	return true
}

func (p *pairIndex[L, R]) contains(l L, r R) bool {
	_, ok := p.fwd[l][r]
	return ok
}

func (p *pairIndex[L, R]) hasLeft(l L) bool {
	return len(p.fwd[l]) > 0
}

func (p *pairIndex[L, R]) rightsOf(l L) []R {
	out := make([]R, 0, len(p.fwd[l]))
	for r := range p.fwd[l] {
		out = append(out, r)
	}
	return out
}

func (p *pairIndex[L, R]) leftsOf(r R) []L {
	out := make([]L, 0, len(p.rev[r]))
	for l := range p.rev[r] {
		out = append(out, l)
	}
	return out
}

// dropRight removes every pair involving r and returns the left keys it was
// paired with.
func (p *pairIndex[L, R]) dropRight(r R) []L {
	lefts := p.leftsOf(r)
	for _, l := range lefts {
		p.remove(l, r)
	}
	return lefts
}
