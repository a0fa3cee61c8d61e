// Package metrics wires the stack's packet counters into
// github.com/prometheus/client_golang, following the collector-registration
// pattern used elsewhere in this retrieval pack's daemons (a struct of
// prometheus.Collector fields, registered once against a prometheus.Registerer
// at construction time).
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collectors groups every metric this stack exposes, per SPEC_FULL.md's
// DOMAIN STACK table.
type Collectors struct {
	ARPCacheSize         prometheus.Gauge
	ARPPendingSize       prometheus.Gauge
	IPDropsTotal         *prometheus.CounterVec
	UDPPortUnreachable   prometheus.Counter
	IPFragmentsSentTotal prometheus.Counter
}

// New builds the Collectors and registers them against reg. Passing a nil
// reg is valid and simply skips registration, so a Stack can be constructed
// in tests without a global registry side effect.
func New(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		ARPCacheSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "netlab",
			Subsystem: "arp",
			Name:      "cache_size",
			Help:      "Number of live entries in the ARP peer-MAC cache.",
		}),
		ARPPendingSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "netlab",
			Subsystem: "arp",
			Name:      "pending_size",
			Help:      "Number of outbound datagrams queued awaiting ARP resolution.",
		}),
		IPDropsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "netlab",
			Subsystem: "ip",
			Name:      "drops_total",
			Help:      "Inbound IPv4 datagrams dropped, labeled by reason.",
		}, []string{"reason"}),
		UDPPortUnreachable: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "netlab",
			Subsystem: "udp",
			Name:      "port_unreachable_total",
			Help:      "ICMP port-unreachable messages generated for datagrams on unopened ports.",
		}),
		IPFragmentsSentTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "netlab",
			Subsystem: "ip",
			Name:      "fragments_sent_total",
			Help:      "IPv4 fragments emitted while sending datagrams larger than one MTU.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			c.ARPCacheSize,
			c.ARPPendingSize,
			c.IPDropsTotal,
			c.UDPPortUnreachable,
			c.IPFragmentsSentTotal,
		)
	}
	return c
}
