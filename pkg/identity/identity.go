// Package identity maps a caller's network origin to a teller station.
package identity

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
)

const (
	// HeaderForwardedFor is the proxy forwarding header consulted before the
	// connection address.
	HeaderForwardedFor = "X-Forwarded-For"

	// MinStation and MaxStation bound the station numbers a table may hold.
	MinStation = 1
	MaxStation = 5
)

// StationTable maps a normalized address to a station number.
type StationTable map[string]int

// DefaultStations is the counter layout shipped with the service. Station 5 has no
// fixed address and must be configured.
var DefaultStations = StationTable{
	"192.168.10.62":  1,
	"192.168.10.166": 2,
	"192.168.10.51":  3,
	"192.168.10.61":  4,
}

// Resolver derives a caller's origin and maps it to a station.
type Resolver struct {
	stations StationTable
}

// NewResolver creates a Resolver over a copy of the given table. Keys are
// normalized so that "::ffff:10.0.0.1" and "10.0.0.1" are the same entry.
func NewResolver(stations StationTable) *Resolver {
	table := make(StationTable, len(stations))
	for addr, station := range stations {
		table[Normalize(addr)] = station
	}
	return &Resolver{stations: table}
}

// Resolve returns the station bound to origin. Unknown or unparsable origins
// resolve to false; they are never an error because forwarded headers are
// untrusted input.
func (r *Resolver) Resolve(origin string) (int, bool) {
	addr := Normalize(origin)
	if addr == "" {
		return 0, false
	}
	station, ok := r.stations[addr]
	return station, ok
}

// Origin returns the caller's apparent address: the first hop of
// X-Forwarded-For when present, otherwise the connection address.
func Origin(r *http.Request) string {
	if xff := r.Header.Get(HeaderForwardedFor); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	return r.RemoteAddr
}

// Normalize strips ports, zones, brackets and the IPv6-mapped-IPv4 prefix.
// It returns "" when the value is not an IP address.
func Normalize(origin string) string {
	s := strings.TrimSpace(origin)
	if s == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(s); err == nil {
		s = host
	}
	s = strings.Trim(s, "[]")
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return ""
	}
	return addr.Unmap().WithZone("").String()
}

// ParseStationTable parses "addr=station,addr=station". Blank input yields an
// empty table.
func ParseStationTable(raw string) (StationTable, error) {
	table := StationTable{}
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		addr, num, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("invalid station entry %q: expected addr=station", entry)
		}
		normalized := Normalize(addr)
		if normalized == "" {
			return nil, fmt.Errorf("invalid station address %q", addr)
		}
		station, err := strconv.Atoi(strings.TrimSpace(num))
		if err != nil || station < MinStation || station > MaxStation {
			return nil, fmt.Errorf("invalid station number %q for %s", num, normalized)
		}
		table[normalized] = station
	}
	return table, nil
}
