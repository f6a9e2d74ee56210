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

// Package sockcfg holds the dial/listen configuration for a connection base
// (spec §4.13): which transport to bind, the address, optional TLS, and an
// idle timeout value. This package only decodes, defaults and validates
// these settings; it does not open, time out or drop connections itself.
package sockcfg

import (
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/sabouaram/apx/duration"
	"github.com/sabouaram/apx/netproto"
)

var ErrInvalidTLSConfig = errors.New("invalid TLS config")

var validate = validator.New()

// TLSConfig is the optional transport-security wrapper around a socket.
type TLSConfig struct {
	Enabled    bool
	Config     tls.Config
	ServerName string
}

func (t TLSConfig) validate() error {
	if !t.Enabled {
		return nil
	}
	if len(t.Config.Certificates) == 0 && t.Config.GetCertificate == nil && !t.Config.InsecureSkipVerify {
		return ErrInvalidTLSConfig
	}
	return nil
}

// Client describes the remote endpoint a client dials: network, address,
// optional TLS, and idle/connect timeouts.
type Client struct {
	Network        netproto.NetworkProtocol `validate:"required"`
	Address        string                   `validate:"required"`
	TLS            TLSConfig
	ConIdleTimeout duration.Duration
	ConnectTimeout duration.Duration
}

func (c Client) Validate() error {
	if err := validate.Struct(structTag{Network: c.Network.Int(), Address: c.Address}); err != nil {
		return err
	}
	if err := c.TLS.validate(); err != nil {
		return err
	}
	return validateAddress(c.Network, c.Address)
}

// applyDefaults fills zero-valued timeouts with the package defaults,
// expressed through the same duration constructors a config file's
// "30s"/"5m" strings parse into, rather than bare time.Duration literals.
func (c *Client) applyDefaults() {
	if c.ConIdleTimeout == 0 {
		c.ConIdleTimeout = duration.ParseDuration(DefaultIdleTimeout)
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = duration.Seconds(int64(DefaultConnectTimeout / time.Second))
	}
}

// LoadClient decodes a JSON-encoded Client configuration, applying the
// package's idle/connect timeout defaults to any field the payload leaves
// at its zero value. Timeout fields may be given as duration strings (e.g.
// "5m30s", "2d"), decoded through Duration's UnmarshalJSON.
func LoadClient(data []byte) (Client, error) {
	var c Client
	if err := json.Unmarshal(data, &c); err != nil {
		return Client{}, err
	}
	c.applyDefaults()
	return c, nil
}

// String renders c for diagnostic logging, formatting its timeouts the way
// a config file would express them rather than as raw nanosecond counts.
func (c Client) String() string {
	return fmt.Sprintf("%s://%s idle=%s connect=%s", c.Network, c.Address, c.ConIdleTimeout, c.ConnectTimeout)
}

// Server describes the local endpoint a server listens on: network,
// address, optional TLS, and the idle timeout.
type Server struct {
	Network        netproto.NetworkProtocol `validate:"required"`
	Address        string                   `validate:"required"`
	TLS            struct {
		Enable bool
		Config tls.Config
	}
	ConIdleTimeout duration.Duration
}

func (s Server) Validate() error {
	if err := validate.Struct(structTag{Network: s.Network.Int(), Address: s.Address}); err != nil {
		return err
	}
	if s.TLS.Enable && len(s.TLS.Config.Certificates) == 0 && s.TLS.Config.GetCertificate == nil {
		return ErrInvalidTLSConfig
	}
	return validateAddress(s.Network, s.Address)
}

// applyDefaults fills a zero-valued ConIdleTimeout with the package default,
// expressed as five whole minutes rather than a bare time.Duration literal.
func (s *Server) applyDefaults() {
	if s.ConIdleTimeout == 0 {
		s.ConIdleTimeout = duration.Minutes(int64(DefaultIdleTimeout / time.Minute))
	}
}

// LoadServer decodes a JSON-encoded Server configuration, applying
// ConIdleTimeout's default when the payload leaves it at its zero value.
func LoadServer(data []byte) (Server, error) {
	var s Server
	if err := json.Unmarshal(data, &s); err != nil {
		return Server{}, err
	}
	s.applyDefaults()
	return s, nil
}

// String renders s for diagnostic logging, formatting its idle timeout the
// way a config file would express it rather than as a raw nanosecond count.
func (s Server) String() string {
	return fmt.Sprintf("%s://%s idle=%s", s.Network, s.Address, s.ConIdleTimeout)
}

type structTag struct {
	Network int    `validate:"required"`
	Address string `validate:"required"`
}

func validateAddress(n netproto.NetworkProtocol, addr string) error {
	if addr == "" {
		return nil
	}
	switch n {
	case netproto.NetworkTCP, netproto.NetworkTCP4, netproto.NetworkTCP6:
		_, err := net.ResolveTCPAddr(n.String(), addr)
		return err
	case netproto.NetworkUDP, netproto.NetworkUDP4, netproto.NetworkUDP6:
		_, err := net.ResolveUDPAddr(n.String(), addr)
		return err
	case netproto.NetworkUnix, netproto.NetworkUnixGram:
		return nil
	case netproto.NetworkIP, netproto.NetworkIP4, netproto.NetworkIP6:
		_, err := net.ResolveIPAddr(n.String(), addr)
		return err
	default:
		return fmt.Errorf("sockcfg: unsupported network %q", n.String())
	}
}

// DefaultIdleTimeout is applied by LoadClient and LoadServer when
// ConIdleTimeout is left at its zero value.
const DefaultIdleTimeout = 5 * time.Minute

// DefaultConnectTimeout is applied to a Client whose ConnectTimeout is left
// at its zero value.
const DefaultConnectTimeout = 30 * time.Second
