// Package xdiscovery implements Discovery (C5) and the Load Balancer
// (C4): periodic endpoint listing published as immutable snapshots,
// and per-service endpoint selection over the latest snapshot.
package xdiscovery

// Endpoint is the driver-facing view of spec.md's Endpoint data model:
// immutable once published.
type Endpoint struct {
	FQDN     string
	Port     int
	SSL      bool
	Location string
	Services []string
}

func (e Endpoint) URI() string {
	scheme := "grpc"
	if e.SSL {
		scheme = "grpcs"
	}
	return scheme + "://" + e.FQDN + ":" + portString(e.Port)
}

func portString(p int) string {
	if p <= 0 {
		return "2136"
	}
	// small, allocation-free enough for the endpoint counts involved
	digits := [6]byte{}
	i := len(digits)
	for p > 0 {
		i--
		digits[i] = byte('0' + p%10)
		p /= 10
	}
	return string(digits[i:])
}

// Snapshot is the Discovery State (spec §3): an ordered view of
// endpoints grouped by service, plus the caller's own location.
// Replaced by whole-snapshot swap — never mutated in place.
type Snapshot struct {
	ByService    map[string][]Endpoint
	SelfLocation string
	seq          uint64
}

func newSnapshot(endpoints []Endpoint, selfLocation string, seq uint64) *Snapshot {
	byService := make(map[string][]Endpoint)
	for _, ep := range endpoints {
		for _, svc := range ep.Services {
			byService[svc] = append(byService[svc], ep)
		}
	}
	return &Snapshot{ByService: byService, SelfLocation: selfLocation, seq: seq}
}

// Empty reports whether the snapshot carries no endpoints for any service.
func (s *Snapshot) Empty() bool {
	return s == nil || len(s.ByService) == 0
}
