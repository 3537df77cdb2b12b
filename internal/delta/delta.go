// Package delta implements the ordered content-operation sequences that
// encode rich-text document state and changes to it. A delta is a list of
// insert, retain and delete operations; a document is a delta made of
// inserts only. Composing a document with a change delta yields the new
// document. The model deliberately stops short of operational
// transformation: concurrent changes are applied last-applier-wins.
package delta

import (
	"reflect"
	"unicode/utf8"
)

// Attributes carries formatting key/value pairs. A nil value for a key
// means "remove this format" when composed onto an existing document.
type Attributes map[string]any

// Op is a single content operation. Exactly one of Insert, Retain or
// Delete is set. Insert holds a string for text or a map for an embed.
type Op struct {
	Insert     any        `json:"insert,omitempty"`
	Retain     int        `json:"retain,omitempty"`
	Delete     int        `json:"delete,omitempty"`
	Attributes Attributes `json:"attributes,omitempty"`
}

// Length returns the op's length in characters. Embeds count as one.
func (o Op) Length() int {
	switch {
	case o.Delete > 0:
		return o.Delete
	case o.Retain > 0:
		return o.Retain
	default:
		if s, ok := o.Insert.(string); ok {
			return utf8.RuneCountInString(s)
		}
		return 1
	}
}

// Delta is an ordered sequence of content operations.
type Delta struct {
	Ops []Op `json:"ops"`
}

// New returns an empty delta.
func New() *Delta {
	return &Delta{}
}

// Insert appends a text insert.
func (d *Delta) Insert(text string, attrs Attributes) *Delta {
	if text == "" {
		return d
	}
	d.push(Op{Insert: text, Attributes: attrs})
	return d
}

// InsertEmbed appends a non-text insert (image, divider, ...).
func (d *Delta) InsertEmbed(embed map[string]any, attrs Attributes) *Delta {
	d.push(Op{Insert: embed, Attributes: attrs})
	return d
}

// Retain appends a retain, optionally reformatting the retained span.
func (d *Delta) Retain(n int, attrs Attributes) *Delta {
	if n <= 0 {
		return d
	}
	d.push(Op{Retain: n, Attributes: attrs})
	return d
}

// Delete appends a delete.
func (d *Delta) Delete(n int) *Delta {
	if n <= 0 {
		return d
	}
	d.push(Op{Delete: n})
	return d
}

// Length returns the total length of all operations.
func (d *Delta) Length() int {
	n := 0
	for _, op := range d.Ops {
		n += op.Length()
	}
	return n
}

// PlainText returns the concatenated text inserts. Embeds contribute
// nothing; retains and deletes are ignored, so this is only meaningful on
// document deltas.
func (d *Delta) PlainText() string {
	var out []byte
	for _, op := range d.Ops {
		if s, ok := op.Insert.(string); ok {
			out = append(out, s...)
		}
	}
	return string(out)
}

// Clone returns a copy that shares no op slice with the original.
// Attribute maps are shallow-copied; ops never mutate them in place.
func (d *Delta) Clone() *Delta {
	out := &Delta{Ops: make([]Op, len(d.Ops))}
	copy(out.Ops, d.Ops)
	return out
}

// push appends an op, merging it into the previous op when both are
// deletes, both are inserts of text with equal attributes, or both are
// retains with equal attributes.
func (d *Delta) push(op Op) {
	if len(d.Ops) > 0 {
		last := &d.Ops[len(d.Ops)-1]
		switch {
		case op.Delete > 0 && last.Delete > 0:
			last.Delete += op.Delete
			return
		case op.Retain > 0 && last.Retain > 0 && sameAttributes(last.Attributes, op.Attributes):
			last.Retain += op.Retain
			return
		default:
			s, ok := op.Insert.(string)
			ls, lok := last.Insert.(string)
			if ok && lok && sameAttributes(last.Attributes, op.Attributes) {
				last.Insert = ls + s
				return
			}
		}
	}
	d.Ops = append(d.Ops, op)
}

// chop drops a trailing plain retain, which carries no information.
func (d *Delta) chop() *Delta {
	if n := len(d.Ops); n > 0 {
		last := d.Ops[n-1]
		if last.Retain > 0 && last.Attributes == nil {
			d.Ops = d.Ops[:n-1]
		}
	}
	return d
}

// Compose returns a delta equivalent to applying d and then other. When d
// is a document (inserts only), the result is the new document.
func (d *Delta) Compose(other *Delta) *Delta {
	a := newIterator(d.Ops)
	b := newIterator(other.Ops)
	out := New()

	for a.hasNext() || b.hasNext() {
		if b.peekIsInsert() {
			out.push(b.next(-1))
			continue
		}
		if a.peekIsDelete() {
			out.push(a.next(-1))
			continue
		}
		n := minInt(a.peekLength(), b.peekLength())
		aOp := a.next(n)
		bOp := b.next(n)
		switch {
		case bOp.Retain > 0:
			op := Op{Attributes: composeAttributes(aOp.Attributes, bOp.Attributes, aOp.Retain > 0)}
			if aOp.Retain > 0 {
				op.Retain = n
			} else {
				op.Insert = aOp.Insert
			}
			out.push(op)
		case bOp.Delete > 0 && aOp.Retain > 0:
			out.push(bOp)
			// bOp delete over aOp insert: both vanish.
		}
	}
	return out.chop()
}

// composeAttributes merges b over a. Nil values survive only when the base
// op is a retain (they instruct the document to clear a format); on an
// insert they are dropped.
func composeAttributes(a, b Attributes, keepNil bool) Attributes {
	out := Attributes{}
	for k, v := range b {
		out[k] = v
	}
	for k, v := range a {
		if _, exists := b[k]; !exists {
			out[k] = v
		}
	}
	if !keepNil {
		for k, v := range out {
			if v == nil {
				delete(out, k)
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func sameAttributes(a, b Attributes) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
