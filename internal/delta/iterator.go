package delta

import "math"

// iterator walks an op slice allowing partial consumption of a single op,
// splitting text inserts on rune boundaries.
type iterator struct {
	ops    []Op
	index  int
	offset int // characters already consumed from ops[index]
}

func newIterator(ops []Op) *iterator {
	return &iterator{ops: ops}
}

func (it *iterator) hasNext() bool {
	return it.index < len(it.ops)
}

func (it *iterator) peekLength() int {
	if !it.hasNext() {
		return math.MaxInt
	}
	return it.ops[it.index].Length() - it.offset
}

func (it *iterator) peekIsInsert() bool {
	return it.hasNext() && it.ops[it.index].Insert != nil
}

func (it *iterator) peekIsDelete() bool {
	return it.hasNext() && it.ops[it.index].Delete > 0
}

// next consumes up to n characters of the current op and returns them as
// an op. n < 0 consumes the rest of the current op. Calling next on an
// exhausted iterator returns an infinite plain retain, which keeps compose
// loops simple.
func (it *iterator) next(n int) Op {
	if !it.hasNext() {
		return Op{Retain: math.MaxInt}
	}
	cur := it.ops[it.index]
	remaining := cur.Length() - it.offset
	if n < 0 || n >= remaining {
		n = remaining
		it.index++
		defer func() { it.offset = 0 }()
	} else {
		defer func(o int) { it.offset = o + n }(it.offset)
	}

	switch {
	case cur.Delete > 0:
		return Op{Delete: n}
	case cur.Retain > 0:
		return Op{Retain: n, Attributes: cur.Attributes}
	default:
		if s, ok := cur.Insert.(string); ok {
			runes := []rune(s)
			return Op{Insert: string(runes[it.offset : it.offset+n]), Attributes: cur.Attributes}
		}
		// Embeds have length one and are never split.
		return Op{Insert: cur.Insert, Attributes: cur.Attributes}
	}
}
