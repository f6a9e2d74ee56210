package netproto_test

import (
	"encoding/json"
	"testing"

	"github.com/sabouaram/apx/netproto"
)

func TestParseKnownProtocols(t *testing.T) {
	cases := map[string]netproto.NetworkProtocol{
		"tcp":      netproto.NetworkTCP,
		"TCP":      netproto.NetworkTCP,
		"tcp4":     netproto.NetworkTCP4,
		"tcp6":     netproto.NetworkTCP6,
		"udp":      netproto.NetworkUDP,
		"UnixGram": netproto.NetworkUnixGram,
		"ip6":      netproto.NetworkIP6,
		"bogus":    netproto.NetworkEmpty,
	}

	for in, want := range cases {
		if got := netproto.Parse(in); got != want {
			t.Fatalf("Parse(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestStringRoundTrip(t *testing.T) {
	for p := netproto.NetworkUnix; p <= netproto.NetworkUnixGram; p++ {
		if netproto.Parse(p.String()) != p {
			t.Fatalf("round trip broke for %v", p)
		}
	}
}

func TestIsPacket(t *testing.T) {
	if !netproto.NetworkUDP.IsPacket() {
		t.Fatalf("expected udp to be packet-oriented")
	}
	if netproto.NetworkTCP.IsPacket() {
		t.Fatalf("expected tcp to not be packet-oriented")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	type wrapper struct {
		P netproto.NetworkProtocol `json:"p"`
	}

	in := wrapper{P: netproto.NetworkUnixGram}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var out wrapper
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.P != in.P {
		t.Fatalf("got %v, want %v", out.P, in.P)
	}
}
