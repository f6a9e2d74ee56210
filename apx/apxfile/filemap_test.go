package apxfile_test

import (
	"testing"

	"github.com/sabouaram/apx/apx/apxfile"
	"github.com/sabouaram/apx/apx/command"
)

func newFile(name string, size uint32) *apxfile.File {
	return apxfile.New(command.FileInfo{Name: name, Size: size}, false)
}

func TestAutoInsertAlignsToPortDataBoundary(t *testing.T) {
	m := apxfile.NewFileMap()
	a := newFile("a", 10)
	if err := m.AutoInsert(a, true, false); err != nil {
		t.Fatalf("insert a: %v", err)
	}
	if a.Address != apxfile.PortDataRegionStart {
		t.Fatalf("expected first file at region start, got %#x", a.Address)
	}

	b := newFile("b", 5)
	if err := m.AutoInsert(b, true, false); err != nil {
		t.Fatalf("insert b: %v", err)
	}
	if b.Address != apxfile.PortDataBoundary {
		t.Fatalf("expected b aligned to boundary 0x400, got %#x", b.Address)
	}
}

func TestAutoInsertDefinitionRegion(t *testing.T) {
	m := apxfile.NewFileMap()
	f := newFile("node.apx", 352)
	if err := m.AutoInsert(f, false, true); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if f.Address != apxfile.DefinitionRegionStart {
		t.Fatalf("expected definition region start, got %#x", f.Address)
	}
}

func TestFindByAddressWithinRange(t *testing.T) {
	m := apxfile.NewFileMap()
	f := newFile("x", 16)
	_ = m.AutoInsert(f, true, false)

	if got := m.FindByAddress(f.Address + 4); got != f {
		t.Fatalf("expected to find f, got %v", got)
	}
	if got := m.FindByAddress(f.Address + f.Size); got != nil {
		t.Fatalf("expected nil past the file's range, got %v", got)
	}
}

func TestFilesStayDisjointAndAscending(t *testing.T) {
	m := apxfile.NewFileMap()
	names := []string{"a", "b", "c"}
	for _, n := range names {
		f := newFile(n, 20)
		if err := m.AutoInsert(f, false, false); err != nil {
			t.Fatalf("insert %s: %v", n, err)
		}
	}

	var prevEnd uint32
	count := 0
	m.Walk(func(f *apxfile.File) bool {
		if f.Address < prevEnd {
			t.Fatalf("file %s overlaps previous file (addr %#x < prevEnd %#x)", f.Name, f.Address, prevEnd)
		}
		prevEnd = f.Address + f.Size
		count++
		return true
	})
	if count != len(names) {
		t.Fatalf("expected %d files, walked %d", len(names), count)
	}
}

func TestInsertRejectsDuplicateName(t *testing.T) {
	m := apxfile.NewFileMap()
	a := newFile("dup", 10)
	b := newFile("dup", 10)
	if err := m.AutoInsert(a, true, false); err != nil {
		t.Fatalf("insert a: %v", err)
	}
	if err := m.AutoInsert(b, true, false); err == nil {
		t.Fatalf("expected duplicate-name error")
	}
}

func TestRemove(t *testing.T) {
	m := apxfile.NewFileMap()
	a := newFile("a", 10)
	_ = m.AutoInsert(a, true, false)
	m.Remove(a)
	if m.Len() != 0 {
		t.Fatalf("expected empty map after remove")
	}
}
