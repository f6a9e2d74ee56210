/*
MIT License

Copyright (c) 2022 Nicolas JUHEL

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

// Package netproto names the transport a connection base (spec §4.13) is
// bound to: the same process listens for TCP clients while a bench harness
// may reach it over a unix socket, so the transport itself is a small
// closed enum rather than a free-form string sprinkled across the config
// and dial code.
package netproto

import "strings"

type NetworkProtocol uint8

const (
	NetworkEmpty NetworkProtocol = iota
	NetworkUnix
	NetworkTCP
	NetworkTCP4
	NetworkTCP6
	NetworkUDP
	NetworkUDP4
	NetworkUDP6
	NetworkIP
	NetworkIP4
	NetworkIP6
	NetworkUnixGram
)

// Parse matches s case-insensitively against the known network strings,
// defaulting to NetworkEmpty.
func Parse(s string) NetworkProtocol {
	switch strings.ToLower(s) {
	case "unix":
		return NetworkUnix
	case "tcp":
		return NetworkTCP
	case "tcp4":
		return NetworkTCP4
	case "tcp6":
		return NetworkTCP6
	case "udp":
		return NetworkUDP
	case "udp4":
		return NetworkUDP4
	case "udp6":
		return NetworkUDP6
	case "ip":
		return NetworkIP
	case "ip4":
		return NetworkIP4
	case "ip6":
		return NetworkIP6
	case "unixgram":
		return NetworkUnixGram
	default:
		return NetworkEmpty
	}
}

func (n NetworkProtocol) String() string {
	switch n {
	case NetworkUnix:
		return "unix"
	case NetworkTCP:
		return "tcp"
	case NetworkTCP4:
		return "tcp4"
	case NetworkTCP6:
		return "tcp6"
	case NetworkUDP:
		return "udp"
	case NetworkUDP4:
		return "udp4"
	case NetworkUDP6:
		return "udp6"
	case NetworkIP:
		return "ip"
	case NetworkIP4:
		return "ip4"
	case NetworkIP6:
		return "ip6"
	case NetworkUnixGram:
		return "unixgram"
	default:
		return ""
	}
}

func (n NetworkProtocol) Int() int {
	if n.String() == "" {
		return 0
	}
	return int(n)
}

func (n NetworkProtocol) Int64() int64 {
	return int64(n.Int())
}

// IsPacket reports whether the protocol is datagram-oriented, meaning the
// connection base must preserve message boundaries instead of relying on
// the framing codec's length prefix to resynchronize after a short read.
func (n NetworkProtocol) IsPacket() bool {
	switch n {
	case NetworkUDP, NetworkUDP4, NetworkUDP6, NetworkUnixGram:
		return true
	default:
		return false
	}
}

func (n NetworkProtocol) MarshalJSON() ([]byte, error) {
	return []byte(`"` + n.String() + `"`), nil
}

func (n *NetworkProtocol) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	*n = Parse(s)
	return nil
}

func (n NetworkProtocol) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

func (n *NetworkProtocol) UnmarshalText(data []byte) error {
	*n = Parse(string(data))
	return nil
}
