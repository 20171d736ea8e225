package gallery

import "testing"

func TestCursor_Cyclic(t *testing.T) {
	c := NewCursor([]string{"a.png", "b.png", "c.png"})
	if name, _ := c.Current(); name != "a.png" {
		t.Fatalf("current = %q", name)
	}
	if name, _ := c.Prev(); name != "c.png" {
		t.Errorf("prev from first = %q, want c.png", name)
	}
	if name, _ := c.Next(); name != "a.png" {
		t.Errorf("next from last = %q, want a.png", name)
	}
	c.Next()
	if c.Index() != 1 {
		t.Errorf("index = %d, want 1", c.Index())
	}
}

func TestCursor_Empty(t *testing.T) {
	var c Cursor
	if _, ok := c.Current(); ok {
		t.Error("empty cursor has no current")
	}
	if _, ok := c.Next(); ok {
		t.Error("empty cursor cannot advance")
	}
	if _, ok := c.Prev(); ok {
		t.Error("empty cursor cannot go back")
	}
	if _, ok := c.NextUntagged(); ok {
		t.Error("empty cursor has nothing untagged")
	}
}

func TestCursor_NextUntagged(t *testing.T) {
	files := []string{
		"a - [x] - 1000.png",
		"b.png",
		"c - [y] - 1000.png",
		"d.png",
	}
	c := NewCursor(files)

	i, ok := c.NextUntagged()
	if !ok || i != 1 {
		t.Errorf("from 0: (%d, %v), want (1, true)", i, ok)
	}

	// The current file is included in the scan.
	c.Seek("b.png")
	if i, _ := c.NextUntagged(); i != 1 {
		t.Errorf("from b.png: %d, want 1", i)
	}

	c.Seek("c - [y] - 1000.png")
	if i, _ := c.NextUntagged(); i != 3 {
		t.Errorf("from c: %d, want 3", i)
	}

	// Wraps around.
	c2 := NewCursor([]string{"a.png", "b - [x] - 1000.png"})
	c2.Seek("b - [x] - 1000.png")
	if i, ok := c2.NextUntagged(); !ok || i != 0 {
		t.Errorf("wrap: (%d, %v), want (0, true)", i, ok)
	}
}

func TestCursor_AllConformant(t *testing.T) {
	c := NewCursor([]string{"a - [x] - 1000.png", "b - [] - 1000.png"})
	if _, ok := c.NextUntagged(); ok {
		t.Error("expected no untagged file")
	}
}

func TestCursor_SeekMissing(t *testing.T) {
	c := NewCursor([]string{"a.png"})
	if c.Seek("zzz.png") {
		t.Error("Seek should fail for unknown name")
	}
	if c.Index() != 0 {
		t.Errorf("index moved to %d", c.Index())
	}
}
