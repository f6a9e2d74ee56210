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

// Package command encodes and decodes the in-band control commands carried
// at the fixed CMD_START address: file lifecycle (PublishFile, OpenFile,
// CloseFile), acknowledgement/error, and the heartbeat/ping pair.
package command

import (
	"encoding/binary"

	"github.com/sabouaram/apx/apxerrors"
)

type Type uint32

const (
	PublishFile Type = 1
	OpenFile    Type = 3
	CloseFile   Type = 4
	Ack         Type = 5
	Error       Type = 6
	HeartbeatRequest Type = 7
	HeartbeatResponse Type = 8
	PingRequest  Type = 9
	PingResponse Type = 10
)

// DigestType identifies the hashing scheme carried in a PublishFile command.
type DigestType uint16

const (
	DigestNone DigestType = iota
	DigestSHA1
	DigestSHA256
)

// FileType identifies the kind of file being published.
type FileType uint16

const (
	FileFixed FileType = iota
	FileDynamic8
	FileDynamic16
	FileDynamic32
	FileDevice
	FileStream
)

// FileInfoHeaderLen is the fixed-size portion of a PublishFile payload:
// address(4) + size(4) + file_type(2) + digest_type(2) + digest(32) +
// reserved(4) = 48 bytes, followed by the NUL-terminated name.
const FileInfoHeaderLen = 48

const digestLen = 32

// FileInfo is the decoded payload of a PublishFile command.
type FileInfo struct {
	Address    uint32
	Size       uint32
	FileType   FileType
	DigestType DigestType
	Digest     [digestLen]byte
	Name       string
}

var (
	errShortBody  = apxerrors.New(apxerrors.ParseError, "command: body too short")
	errNameNoNUL  = apxerrors.New(apxerrors.ParseError, "command: name is not NUL-terminated")
	errUnsupported = apxerrors.New(apxerrors.Unsupported, "command: unknown command type")
)

// EncodeHeader writes the 4-byte little-endian command type into buf.
func EncodeHeader(buf []byte, t Type) int {
	if len(buf) < 4 {
		return 0
	}
	binary.LittleEndian.PutUint32(buf, uint32(t))
	return 4
}

// DecodeHeader reads the command type from the front of buf.
func DecodeHeader(buf []byte) (Type, int, error) {
	if len(buf) < 4 {
		return 0, 0, errShortBody
	}
	return Type(binary.LittleEndian.Uint32(buf)), 4, nil
}

// EncodePublishFile serializes a PublishFile payload (without the command
// type header) into buf, returning the bytes written or 0 if buf is short.
func EncodePublishFile(buf []byte, f FileInfo) int {
	need := FileInfoHeaderLen + len(f.Name) + 1
	if len(buf) < need {
		return 0
	}
	binary.LittleEndian.PutUint32(buf[0:4], f.Address)
	binary.LittleEndian.PutUint32(buf[4:8], f.Size)
	binary.LittleEndian.PutUint16(buf[8:10], uint16(f.FileType))
	binary.LittleEndian.PutUint16(buf[10:12], uint16(f.DigestType))
	copy(buf[12:12+digestLen], f.Digest[:])
	// bytes [44:48] reserved, left zero.
	for i := 44; i < 48; i++ {
		buf[i] = 0
	}
	copy(buf[FileInfoHeaderLen:], f.Name)
	buf[FileInfoHeaderLen+len(f.Name)] = 0
	return need
}

// DecodePublishFile parses a PublishFile payload.
func DecodePublishFile(buf []byte) (FileInfo, error) {
	if len(buf) < FileInfoHeaderLen+1 {
		return FileInfo{}, errShortBody
	}
	var f FileInfo
	f.Address = binary.LittleEndian.Uint32(buf[0:4])
	f.Size = binary.LittleEndian.Uint32(buf[4:8])
	f.FileType = FileType(binary.LittleEndian.Uint16(buf[8:10]))
	f.DigestType = DigestType(binary.LittleEndian.Uint16(buf[10:12]))
	copy(f.Digest[:], buf[12:12+digestLen])

	nameBytes := buf[FileInfoHeaderLen:]
	nul := -1
	for i, b := range nameBytes {
		if b == 0 {
			nul = i
			break
		}
	}
	if nul < 0 {
		return FileInfo{}, errNameNoNUL
	}
	f.Name = string(nameBytes[:nul])
	return f, nil
}

// EncodeAddress serializes an OpenFile/CloseFile payload (a single address).
func EncodeAddress(buf []byte, addr uint32) int {
	if len(buf) < 4 {
		return 0
	}
	binary.LittleEndian.PutUint32(buf, addr)
	return 4
}

// DecodeAddress parses an OpenFile/CloseFile payload.
func DecodeAddress(buf []byte) (uint32, error) {
	if len(buf) < 4 {
		return 0, errShortBody
	}
	return binary.LittleEndian.Uint32(buf), nil
}

// EncodeError serializes an Error payload.
func EncodeError(buf []byte, code uint32, data []byte) int {
	need := 4 + len(data)
	if len(buf) < need {
		return 0
	}
	binary.LittleEndian.PutUint32(buf[0:4], code)
	copy(buf[4:], data)
	return need
}

// DecodeError parses an Error payload.
func DecodeError(buf []byte) (code uint32, data []byte, err error) {
	if len(buf) < 4 {
		return 0, nil, errShortBody
	}
	return binary.LittleEndian.Uint32(buf[0:4]), buf[4:], nil
}

// IsKnown reports whether t is one of the command types this codec knows
// how to decode a payload for.
func IsKnown(t Type) bool {
	switch t {
	case PublishFile, OpenFile, CloseFile, Ack, Error,
		HeartbeatRequest, HeartbeatResponse, PingRequest, PingResponse:
		return true
	default:
		return false
	}
}

// ErrUnsupported is returned by callers dispatching on a Type that IsKnown
// reports false for.
func ErrUnsupported() error { return errUnsupported }
