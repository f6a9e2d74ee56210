package reassemble_test

import (
	"bytes"
	"testing"

	"github.com/sabouaram/apx/apx/apxfile"
	"github.com/sabouaram/apx/apx/command"
	"github.com/sabouaram/apx/apx/reassemble"
)

type capturingHandler struct {
	offset uint32
	data   []byte
	writes int
}

func (h *capturingHandler) OnOpen(f *apxfile.File)  {}
func (h *capturingHandler) OnClose(f *apxfile.File) {}
func (h *capturingHandler) OnWrite(f *apxfile.File, offset uint32, data []byte) {
	h.offset = offset
	h.data = append([]byte(nil), data...)
	h.writes++
}

func openRemoteFile(m *apxfile.FileMap, addr, size uint32) (*apxfile.File, *capturingHandler) {
	f := apxfile.New(command.FileInfo{Address: addr, Size: size, Name: "f"}, true)
	_ = m.Insert(f)
	h := &capturingHandler{}
	f.SetHandler(h)
	f.Open()
	return f, h
}

func TestSingleFragmentFastPath(t *testing.T) {
	remote := apxfile.NewFileMap()
	_, h := openRemoteFile(remote, 0x1000, 16)

	r := reassemble.New(0)
	r.Feed(remote, 0x1004, []byte{1, 2, 3, 4}, false)

	if h.writes != 1 || h.offset != 4 || !bytes.Equal(h.data, []byte{1, 2, 3, 4}) {
		t.Fatalf("unexpected write: %+v", h)
	}
}

func TestFragmentedWriteReassembles(t *testing.T) {
	remote := apxfile.NewFileMap()
	_, h := openRemoteFile(remote, 0x2000, 352)

	r := reassemble.New(1024)
	full := make([]byte, 0, 352)
	for i := 0; i < 352; i++ {
		full = append(full, byte(i))
	}

	r.Feed(remote, 0x2000, full[0:198], true)
	r.Feed(remote, 0x2000+198, full[198:198+124], true)
	r.Feed(remote, 0x2000+198+124, full[198+124:], false)

	if h.writes != 1 {
		t.Fatalf("expected exactly one delivered write, got %d", h.writes)
	}
	if h.offset != 0 || !bytes.Equal(h.data, full) {
		t.Fatalf("reassembled bytes mismatch")
	}
}

func TestOffsetMismatchDropsWrite(t *testing.T) {
	remote := apxfile.NewFileMap()
	_, h := openRemoteFile(remote, 0x3000, 64)

	r := reassemble.New(64)
	r.Feed(remote, 0x3000, []byte{1, 2, 3, 4}, true)
	// Wrong next address: should be 0x3004.
	r.Feed(remote, 0x3010, []byte{5, 6}, false)

	if h.writes != 0 {
		t.Fatalf("expected no delivered write after offset mismatch, got %d", h.writes)
	}
}

func TestOversizeFirstFragmentDropped(t *testing.T) {
	remote := apxfile.NewFileMap()
	_, h := openRemoteFile(remote, 0x4000, 256)

	r := reassemble.New(8)
	r.Feed(remote, 0x4000, make([]byte, 16), true)
	r.Feed(remote, 0x4010, []byte{1}, false)

	if h.writes != 0 {
		t.Fatalf("expected drop on oversize fragment, got %d writes", h.writes)
	}
}

func TestUnknownAddressDroppedSilently(t *testing.T) {
	remote := apxfile.NewFileMap()
	r := reassemble.New(0)
	// No file registered at this address; must not panic.
	r.Feed(remote, 0x9999, []byte{1}, false)
}

func TestWriteToUnopenedFileDropped(t *testing.T) {
	remote := apxfile.NewFileMap()
	f := apxfile.New(command.FileInfo{Address: 0x5000, Size: 16, Name: "closed"}, true)
	_ = remote.Insert(f)
	h := &capturingHandler{}
	f.SetHandler(h)
	// Not opened.

	r := reassemble.New(0)
	r.Feed(remote, 0x5000, []byte{1, 2}, false)

	if h.writes != 0 {
		t.Fatalf("expected no write delivered to an unopened file")
	}
}
