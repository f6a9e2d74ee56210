/*
MIT License

Copyright (c) 2025 Nicolas JUHEL

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

// Package filemanager owns one connection's local and remote file maps, its
// inbound reassembler and its outbound scheduler, and is the single place
// that turns a raw inbound byte stream into file events and turns file
// lifecycle calls into queued outbound messages (spec §4, §5, §6).
package filemanager

import (
	"sync/atomic"

	"github.com/sabouaram/apx/apx/address"
	"github.com/sabouaram/apx/apx/apxfile"
	"github.com/sabouaram/apx/apx/command"
	"github.com/sabouaram/apx/apx/frame"
	"github.com/sabouaram/apx/apx/reassemble"
	"github.com/sabouaram/apx/apx/schedule"
	"github.com/sabouaram/apx/apxerrors"
	"github.com/sabouaram/apx/apxlog"
)

// errCodeDataCap bounds how much of a recovered error's message is carried
// in the outbound Error command's payload.
const errCodeDataCap = 128

// Observer is notified of file lifecycle events the manager recovers from
// the wire. A nil Observer is valid; notifications are simply dropped.
type Observer interface {
	// OnFileCreated fires when a remote PublishFile command registers a
	// new file in the remote map.
	OnFileCreated(f *apxfile.File)

	// OnFileOpened fires when a remote OpenFile command marks a local
	// file open for write.
	OnFileOpened(f *apxfile.File)

	// OnFileClosed fires when a remote CloseFile command marks a local
	// file closed.
	OnFileClosed(f *apxfile.File)

	// OnProtocolError fires whenever MessageReceived recovers a parse
	// error; the manager always logs and continues, never panics (spec
	// §7 policy), but the caller may want to surface it too (e.g. a
	// metrics counter).
	OnProtocolError(err error)
}

// Manager is the per-connection file-plane component.
type Manager struct {
	Local  *apxfile.FileMap
	Remote *apxfile.FileMap

	reassembler *reassemble.Reassembler
	scheduler   *schedule.Scheduler

	observer Observer
	log      apxlog.Logger

	// inbuf accumulates inbound bytes across MessageReceived calls until a
	// full frame is available (spec §4.1: the transport may deliver less
	// than one complete message at a time).
	inbuf []byte

	// ready is set once the connection's greeting handshake has completed
	// (SetReady, called by transport.ConnectionBase). A parse error
	// recovered before that point has no peer able to make sense of an
	// Error command yet, so it is only logged/observed; once ready, it is
	// also reported to the peer (spec §3/§5(3)).
	ready atomic.Bool
}

// New returns a Manager with fresh local/remote maps, a reassembler sized
// to reassemble.DefaultCapacity, and an empty send scheduler.
func New(observer Observer, log apxlog.Logger) *Manager {
	if log == nil {
		log = apxlog.New(nil)
	}
	return &Manager{
		Local:       apxfile.NewFileMap(),
		Remote:      apxfile.NewFileMap(),
		reassembler: reassemble.New(reassemble.DefaultCapacity),
		scheduler:   schedule.New(),
		observer:    observer,
		log:         log,
	}
}

// Scheduler exposes the outbound scheduler so the owning connection can
// drive Run() against its transmit handler.
func (m *Manager) Scheduler() *schedule.Scheduler {
	return m.scheduler
}

// SetReady marks whether the owning connection's greeting handshake has
// completed. Until it has, protocolError only logs and notifies the
// observer; once ready, it also queues an Error command to the peer.
func (m *Manager) SetReady(ready bool) {
	m.ready.Store(ready)
}

// CreateLocalFile allocates address space for f in the local map — in the
// port-data region if isPortData, the definition region if isDefinition,
// else the user region — and inserts it.
func (m *Manager) CreateLocalFile(f *apxfile.File, isPortData, isDefinition bool) error {
	return m.Local.AutoInsert(f, isPortData, isDefinition)
}

// PublishLocalFile queues a PublishFile command announcing f to the peer.
func (m *Manager) PublishLocalFile(f *apxfile.File) {
	buf := make([]byte, command.FileInfoHeaderLen+len(f.Name)+1)
	n := command.EncodePublishFile(buf, command.FileInfo{
		Address:    f.Address,
		Size:       f.Size,
		FileType:   f.FileType,
		DigestType: f.DigestType,
		Digest:     f.Digest,
		Name:       f.Name,
	})
	m.scheduler.Enqueue(schedule.Msg{Kind: schedule.PublishFileInfo, Data: buf[:n]})
}

// SendOpenFileRequest queues an OpenFile command for the remote file f.
func (m *Manager) SendOpenFileRequest(f *apxfile.File) {
	m.scheduler.Enqueue(schedule.Msg{Kind: schedule.OpenFile, Address: f.Address})
}

// SendCloseFileRequest queues a CloseFile command for the remote file f.
func (m *Manager) SendCloseFileRequest(f *apxfile.File) {
	m.scheduler.Enqueue(schedule.Msg{Kind: schedule.CloseFile, Address: f.Address})
}

// SendLocalData queues a write-notify of data starting at offset within the
// local file f, reading live bytes from provider at send time so repeated
// or coalesced sends never observe a stale snapshot.
func (m *Manager) SendLocalData(f *apxfile.File, offset uint32, data []byte, provider schedule.DataProvider) {
	m.scheduler.Enqueue(schedule.Msg{
		Kind:     schedule.WriteNotify,
		Address:  f.Address + offset,
		Length:   uint32(len(data)),
		Data:     data,
		Provider: provider,
	})
}

// MessageReceived appends raw inbound bytes to the manager's buffer and
// processes every complete message now available, dispatching commands or
// feeding the reassembler. Parse errors are recovered and logged (spec §7);
// MessageReceived never returns an error to the caller.
func (m *Manager) MessageReceived(data []byte) {
	m.inbuf = append(m.inbuf, data...)

	for {
		size, hdrLen, err := frame.Decode(m.inbuf)
		if err != nil {
			return
		}
		total := hdrLen + size
		if len(m.inbuf) < total {
			return
		}

		body := m.inbuf[hdrLen:total]
		m.inbuf = m.inbuf[total:]

		if err := m.handleBody(body); err != nil {
			m.protocolError(err)
		}
	}
}

func (m *Manager) protocolError(err error) {
	m.log.Warning("apx: dropping malformed message", apxlog.Fields{"error": err.Error()})
	if m.observer != nil {
		m.observer.OnProtocolError(err)
	}
	if m.ready.Load() {
		m.sendError(err)
	}
}

// sendError queues an Error command reporting err to the peer, carrying its
// apxerrors code (or UnknownError for a plain error) and a truncated copy
// of its message as the payload.
func (m *Manager) sendError(err error) {
	code := apxerrors.UnknownError
	if ae := apxerrors.Get(err); ae != nil {
		code = ae.Code()
	}

	msg := err.Error()
	if len(msg) > errCodeDataCap {
		msg = msg[:errCodeDataCap]
	}

	m.scheduler.Enqueue(schedule.Msg{Kind: schedule.Error, Code: uint32(code.Uint16()), Data: []byte(msg)})
}

func (m *Manager) handleBody(body []byte) error {
	hdr, hdrLen, err := address.Decode(body)
	if err != nil {
		return err
	}
	payload := body[hdrLen:]

	if hdr.Address == address.RMFCmdStartAddr {
		return m.handleCommand(payload)
	}

	m.reassembler.Feed(m.Remote, hdr.Address, payload, hdr.More)
	return nil
}

func (m *Manager) handleCommand(payload []byte) error {
	t, n, err := command.DecodeHeader(payload)
	if err != nil {
		return err
	}
	body := payload[n:]

	if !command.IsKnown(t) {
		return command.ErrUnsupported()
	}

	switch t {
	case command.PublishFile:
		return m.onPublishFile(body)
	case command.OpenFile:
		return m.onOpenFile(body)
	case command.CloseFile:
		return m.onCloseFile(body)
	case command.Ack, command.HeartbeatRequest, command.HeartbeatResponse,
		command.PingRequest, command.PingResponse:
		// No file-plane effect; these are accepted and otherwise ignored.
		return nil
	case command.Error:
		code, _, derr := command.DecodeError(body)
		if derr != nil {
			return derr
		}
		m.log.Warning("apx: peer reported protocol error", apxlog.Fields{"code": code})
		return nil
	default:
		return nil
	}
}

func (m *Manager) onPublishFile(body []byte) error {
	info, err := command.DecodePublishFile(body)
	if err != nil {
		return err
	}
	f := apxfile.New(info, true)
	if err := m.Remote.Insert(f); err != nil {
		return err
	}
	if m.observer != nil {
		m.observer.OnFileCreated(f)
	}
	return nil
}

func (m *Manager) onOpenFile(body []byte) error {
	addr, err := command.DecodeAddress(body)
	if err != nil {
		return err
	}
	f := m.Local.FindByAddress(addr)
	if f == nil {
		return apxerrors.New(apxerrors.FileNotOpen, "filemanager: OpenFile for unknown local address")
	}
	f.Open()
	if m.observer != nil {
		m.observer.OnFileOpened(f)
	}
	return nil
}

func (m *Manager) onCloseFile(body []byte) error {
	addr, err := command.DecodeAddress(body)
	if err != nil {
		return err
	}
	f := m.Local.FindByAddress(addr)
	if f == nil {
		return apxerrors.New(apxerrors.FileNotOpen, "filemanager: CloseFile for unknown local address")
	}
	f.Close()
	if m.observer != nil {
		m.observer.OnFileClosed(f)
	}
	return nil
}
