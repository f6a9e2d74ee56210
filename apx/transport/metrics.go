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

package transport

import "github.com/prometheus/client_golang/prometheus"

// connectionStateTotal and bytesSentTotal are the two counters a server
// embeds to watch connection churn and outbound volume across every
// ConnectionBase it runs. Registration is deferred to RegisterMetrics so a
// process that never calls it (e.g. a test binary) never touches the
// default registry.
var (
	connectionStateTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "apx",
		Subsystem: "transport",
		Name:      "connection_state_total",
		Help:      "Number of connection state transitions, labeled by the state entered.",
	}, []string{"state"})

	bytesSentTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "apx",
		Subsystem: "transport",
		Name:      "bytes_sent_total",
		Help:      "Total framed bytes committed through FramingTransmit.",
	})
)

// RegisterMetrics registers this package's counters with reg. Safe to call
// more than once with the same registry; an AlreadyRegisteredError is
// swallowed since every ConnectionBase shares the same package-level
// counters.
func RegisterMetrics(reg prometheus.Registerer) error {
	if err := reg.Register(connectionStateTotal); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			return err
		}
	}
	if err := reg.Register(bytesSentTotal); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			return err
		}
	}
	return nil
}
