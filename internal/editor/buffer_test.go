package editor

import (
	"testing"

	"inkwell/internal/delta"
)

func TestBuffer_UpdateContentsDoesNotEmitUserChange(t *testing.T) {
	b := NewBuffer()

	var userChanges, apiChanges int
	off := b.OnContentChange(func(change *delta.Delta, source Source) {
		switch source {
		case SourceUser:
			userChanges++
		case SourceAPI:
			apiChanges++
		}
	})
	defer off()

	b.UpdateContents(delta.New().Insert("remote", nil))

	if userChanges != 0 {
		t.Errorf("remote apply emitted %d user changes, want 0", userChanges)
	}
	if apiChanges != 1 {
		t.Errorf("remote apply emitted %d api changes, want 1", apiChanges)
	}
	if got := b.GetContents().PlainText(); got != "remote" {
		t.Errorf("contents = %q, want %q", got, "remote")
	}
}

func TestBuffer_ApplyUserEmitsUserChange(t *testing.T) {
	b := NewBuffer()

	var got Source
	var change *delta.Delta
	off := b.OnContentChange(func(c *delta.Delta, source Source) {
		got = source
		change = c
	})
	defer off()

	b.ApplyUser(delta.New().Insert("hi", nil))

	if got != SourceUser {
		t.Errorf("source = %q, want %q", got, SourceUser)
	}
	if change == nil || change.PlainText() != "hi" {
		t.Errorf("change = %+v, want insert of %q", change, "hi")
	}
}

func TestBuffer_EditsCompose(t *testing.T) {
	b := NewBuffer()
	b.ApplyUser(delta.New().Insert("hello", nil))
	b.ApplyUser(delta.New().Retain(5, nil).Insert(" world", nil))
	b.UpdateContents(delta.New().Retain(5, nil).Delete(6))

	if got := b.GetContents().PlainText(); got != "hello" {
		t.Errorf("contents = %q, want %q", got, "hello")
	}
	if got := b.Length(); got != 5 {
		t.Errorf("Length() = %d, want 5", got)
	}
}

func TestBuffer_SetContentsReplacesDocument(t *testing.T) {
	b := NewBuffer()
	b.ApplyUser(delta.New().Insert("old", nil))
	b.SetContents(delta.New().Insert("new", nil))

	if got := b.GetContents().PlainText(); got != "new" {
		t.Errorf("contents = %q, want %q", got, "new")
	}
}

func TestBuffer_OffIsIdempotent(t *testing.T) {
	b := NewBuffer()

	calls := 0
	off := b.OnContentChange(func(*delta.Delta, Source) { calls++ })
	off()
	off() // double unsubscribe must be safe
	off()

	b.ApplyUser(delta.New().Insert("x", nil))
	if calls != 0 {
		t.Errorf("unsubscribed handler was called %d times", calls)
	}
}

func TestBuffer_SelectionChange(t *testing.T) {
	b := NewBuffer()
	b.ApplyUser(delta.New().Insert("abc", nil))

	var newR, oldR *Range
	off := b.OnSelectionChange(func(r, old *Range, source Source) {
		if source != SourceUser {
			t.Errorf("selection source = %q, want user", source)
		}
		newR, oldR = r, old
	})
	defer off()

	b.Select(&Range{Index: 1})
	if newR == nil || newR.Index != 1 || oldR != nil {
		t.Errorf("first select: new=%+v old=%+v", newR, oldR)
	}

	b.Select(&Range{Index: 2})
	if oldR == nil || oldR.Index != 1 {
		t.Errorf("second select should carry previous range, got %+v", oldR)
	}
}

func TestMapCursors(t *testing.T) {
	m := NewMapCursors()
	m.CreateCursor("u1", "ada", "#ff0000")

	if !m.MoveCursor("u1", &Range{Index: 3}) {
		t.Error("MoveCursor on existing key reported false")
	}
	if m.MoveCursor("ghost", &Range{Index: 0}) {
		t.Error("MoveCursor on unknown key reported true")
	}

	c := m.Get("u1")
	if c == nil || c.Range == nil || c.Range.Index != 3 || c.Label != "ada" {
		t.Errorf("cursor = %+v", c)
	}

	m.RemoveCursor("u1")
	if m.Get("u1") != nil {
		t.Error("cursor survived removal")
	}
}
