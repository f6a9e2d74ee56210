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

// Package schedule implements the outbound send scheduler: a queue of
// pending messages drained by repeated run() calls, carrying fragmentation
// state across calls when the transport buffer is temporarily full.
package schedule

import (
	"github.com/sabouaram/apx/apx/address"
	"github.com/sabouaram/apx/apx/command"
)

// Kind discriminates the queued message types.
type Kind int

const (
	PublishFileInfo Kind = iota
	OpenFile
	CloseFile
	WriteNotify
	SendFile
	DirectWrite
	Ack
	Error
	HeartbeatRequest
	HeartbeatResponse
	PingRequest
	PingResponse
)

// FragmentationThreshold bounds WriteNotify coalescing (spec §5, §4.7).
const FragmentationThreshold = 128

// MinBufferThreshold is the minimum transport-buffer availability the
// scheduler requires before it resumes a pending write.
const MinBufferThreshold = 16

// MaxCmdBufSize bounds the pending-command scratch buffer (spec §5).
const MaxCmdBufSize = 256

// DataProvider re-reads the live bytes for a WriteNotify/SendFile message
// at send time, so coalesced or re-tried sends always observe the most
// recent NodeData contents rather than a stale snapshot taken at enqueue
// time.
type DataProvider func(offset, length uint32) []byte

// Msg is one queued outbound unit of work.
type Msg struct {
	Kind     Kind
	Address  uint32
	Length   uint32
	Code     uint32
	Data     []byte
	Provider DataProvider
}

// TransmitHandler is the transport boundary (spec §6): the embedding
// transport reports available send-buffer space, hands out a reservation
// to write into, and commits previously reserved bytes.
type TransmitHandler interface {
	SendAvail() int
	SendBuffer(n int) ([]byte, error)
	Send(n int) error
}

type pendingWrite struct {
	address   uint32
	headerLen int
	data      []byte
	offset    int
}

// Scheduler is the per-connection send scheduler.
type Scheduler struct {
	queue []Msg

	latestNotify *Msg

	pending    *pendingWrite
	pendingCmd []byte
}

// New returns an empty Scheduler.
func New() *Scheduler {
	return &Scheduler{}
}

// Enqueue appends m to the queue, applying WriteNotify coalescing when m is
// a WriteNotify that is contiguous with the currently queued-latest one.
func (s *Scheduler) Enqueue(m Msg) {
	if m.Kind != WriteNotify {
		s.flushLatestNotify()
		s.queue = append(s.queue, m)
		return
	}

	if s.latestNotify != nil &&
		m.Address == s.latestNotify.Address+s.latestNotify.Length &&
		s.latestNotify.Length+m.Length <= FragmentationThreshold {
		s.latestNotify.Length += m.Length
		return
	}

	s.flushLatestNotify()
	cp := m
	s.latestNotify = &cp
}

func (s *Scheduler) flushLatestNotify() {
	if s.latestNotify != nil {
		s.queue = append(s.queue, *s.latestNotify)
		s.latestNotify = nil
	}
}

// Pending reports whether the scheduler currently has a pending write or
// pending command carried across Run calls.
func (s *Scheduler) Pending() bool {
	return s.pending != nil || len(s.pendingCmd) > 0
}

// QueueLen returns the number of fully-queued messages, not counting the
// coalescing slot or a pending write/command.
func (s *Scheduler) QueueLen() int {
	return len(s.queue)
}

// Run drains as much of the scheduler's work as the transmit handler's
// buffer allows, resuming a pending write or pending command first.
func (s *Scheduler) Run(th TransmitHandler) error {
	if s.pending != nil {
		done, err := s.resumePendingWrite(th)
		if err != nil || !done {
			return err
		}
	}

	if len(s.pendingCmd) > 0 {
		done, err := s.flushPendingCommand(th)
		if err != nil || !done {
			return err
		}
	}

	for len(s.queue) > 0 {
		m := s.queue[0]
		s.queue = s.queue[1:]

		if err := s.dispatch(th, m); err != nil {
			return err
		}
		if s.pending != nil || len(s.pendingCmd) > 0 {
			return nil
		}
	}

	s.flushLatestNotify()
	if s.pending == nil && len(s.pendingCmd) == 0 && len(s.queue) > 0 {
		return s.Run(th)
	}
	return nil
}

func (s *Scheduler) dispatch(th TransmitHandler, m Msg) error {
	switch m.Kind {
	case PublishFileInfo, OpenFile, CloseFile, Ack, Error, HeartbeatRequest, HeartbeatResponse, PingRequest, PingResponse:
		return s.sendCommand(th, m)
	case WriteNotify, SendFile, DirectWrite:
		return s.sendData(th, m)
	default:
		return nil
	}
}

func (s *Scheduler) sendCommand(th TransmitHandler, m Msg) error {
	buf := make([]byte, command.FileInfoHeaderLen+256)
	var cmdType command.Type
	var n int

	switch m.Kind {
	case PublishFileInfo:
		cmdType = command.PublishFile
		n = copy(buf[4:], m.Data)
	case OpenFile:
		cmdType = command.OpenFile
		n = command.EncodeAddress(buf[4:], m.Address)
	case CloseFile:
		cmdType = command.CloseFile
		n = command.EncodeAddress(buf[4:], m.Address)
	case Ack:
		cmdType = command.Ack
	case Error:
		cmdType = command.Error
		n = command.EncodeError(buf[4:], m.Code, m.Data)
	case HeartbeatRequest:
		cmdType = command.HeartbeatRequest
	case HeartbeatResponse:
		cmdType = command.HeartbeatResponse
	case PingRequest:
		cmdType = command.PingRequest
	case PingResponse:
		cmdType = command.PingResponse
	}
	command.EncodeHeader(buf, cmdType)
	body := buf[:4+n]

	full := s.frameCommand(body)
	return s.writeOrQueueCommand(th, full)
}

func (s *Scheduler) frameCommand(body []byte) []byte {
	hdr := make([]byte, address.HeaderLen(address.RMFCmdStartAddr))
	address.Encode(hdr, address.Header{Address: address.RMFCmdStartAddr})
	return append(hdr, body...)
}

func (s *Scheduler) writeOrQueueCommand(th TransmitHandler, full []byte) error {
	avail := th.SendAvail()
	if avail >= len(full) {
		buf, err := th.SendBuffer(len(full))
		if err != nil {
			return err
		}
		copy(buf, full)
		return th.Send(len(full))
	}

	if len(full) > MaxCmdBufSize {
		full = full[:MaxCmdBufSize]
	}
	s.pendingCmd = full
	return nil
}

func (s *Scheduler) flushPendingCommand(th TransmitHandler) (done bool, err error) {
	avail := th.SendAvail()
	if avail < len(s.pendingCmd) {
		return false, nil
	}
	buf, err := th.SendBuffer(len(s.pendingCmd))
	if err != nil {
		return false, err
	}
	copy(buf, s.pendingCmd)
	if err := th.Send(len(s.pendingCmd)); err != nil {
		return false, err
	}
	s.pendingCmd = nil
	return true, nil
}

func (s *Scheduler) sendData(th TransmitHandler, m Msg) error {
	data := m.Data
	if m.Provider != nil {
		data = m.Provider(m.Address, m.Length)
	}

	headerLen := address.HeaderLen(m.Address)
	avail := th.SendAvail()

	if avail < headerLen+len(data) {
		return s.beginPendingWrite(th, m.Address, headerLen, data, avail)
	}

	buf, err := th.SendBuffer(headerLen + len(data))
	if err != nil {
		return err
	}
	address.Encode(buf, address.Header{Address: m.Address, More: false})
	copy(buf[headerLen:], data)
	return th.Send(headerLen + len(data))
}

func (s *Scheduler) beginPendingWrite(th TransmitHandler, addr uint32, headerLen int, data []byte, avail int) error {
	if avail < headerLen {
		s.pending = &pendingWrite{address: addr, headerLen: headerLen, data: data, offset: 0}
		return nil
	}

	chunk := headerLen + (avail - headerLen)
	buf, err := th.SendBuffer(chunk)
	if err != nil {
		return err
	}
	payloadLen := chunk - headerLen
	address.Encode(buf, address.Header{Address: addr, More: true})
	copy(buf[headerLen:], data[:payloadLen])
	if err := th.Send(chunk); err != nil {
		return err
	}

	s.pending = &pendingWrite{address: addr + uint32(payloadLen), headerLen: headerLen, data: data[payloadLen:], offset: 0}
	return nil
}

func (s *Scheduler) resumePendingWrite(th TransmitHandler) (done bool, err error) {
	avail := th.SendAvail()
	if avail < MinBufferThreshold {
		return false, nil
	}

	p := s.pending
	remain := len(p.data) - p.offset
	more := true
	chunk := p.headerLen + remain
	if avail < chunk {
		chunk = avail
	}
	payloadLen := chunk - p.headerLen
	if payloadLen >= remain {
		payloadLen = remain
		more = false
	}
	if payloadLen < 0 {
		return false, nil
	}

	buf, err := th.SendBuffer(p.headerLen + payloadLen)
	if err != nil {
		return false, err
	}
	address.Encode(buf, address.Header{Address: p.address + uint32(p.offset), More: more})
	copy(buf[p.headerLen:], p.data[p.offset:p.offset+payloadLen])
	if err := th.Send(p.headerLen + payloadLen); err != nil {
		return false, err
	}

	p.offset += payloadLen
	if p.offset >= len(p.data) {
		s.pending = nil
		return true, nil
	}
	return false, nil
}
