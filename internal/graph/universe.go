package graph

import (
	"embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Zone is the PvP classification of a territory.
type Zone string

const (
	ZoneBlue   Zone = "blue"
	ZoneYellow Zone = "yellow"
	ZoneRed    Zone = "red"
	ZoneBlack  Zone = "black"
)

// Safe reports whether full-loot PvP is impossible in the zone.
func (z Zone) Safe() bool {
	return z == ZoneBlue || z == ZoneYellow
}

func parseZone(s string) (Zone, error) {
	switch z := Zone(strings.ToLower(strings.TrimSpace(s))); z {
	case ZoneBlue, ZoneYellow, ZoneRed, ZoneBlack:
		return z, nil
	}
	return "", fmt.Errorf("unknown zone %q", s)
}

// ZoneMap holds the road network between territories and each territory's zone.
type ZoneMap struct {
	// Adj maps territory -> neighbouring territories
	Adj map[string][]string
	// Zones maps territory -> zone colour
	Zones map[string]Zone
}

// NewZoneMap creates an empty ZoneMap with initialized maps.
func NewZoneMap() *ZoneMap {
	return &ZoneMap{
		Adj:   make(map[string][]string),
		Zones: make(map[string]Zone),
	}
}

// AddRoad adds a bidirectional connection.
func (m *ZoneMap) AddRoad(a, b string) {
	m.Adj[a] = append(m.Adj[a], b)
	m.Adj[b] = append(m.Adj[b], a)
}

// SetZone sets the zone colour of a territory.
func (m *ZoneMap) SetZone(territory string, zone Zone) {
	m.Zones[territory] = zone
}

// Zone returns the zone of a territory.
func (m *ZoneMap) Zone(territory string) (Zone, bool) {
	z, ok := m.Zones[territory]
	return z, ok
}

// Has reports whether the territory is on the map.
func (m *ZoneMap) Has(territory string) bool {
	_, ok := m.Zones[territory]
	return ok
}

// Territories returns all territory names, sorted.
func (m *ZoneMap) Territories() []string {
	out := make([]string, 0, len(m.Zones))
	for t := range m.Zones {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// CrossesDangerZone reports whether every route between from and to passes
// through red or black territory. Territories missing from the map never do.
func (m *ZoneMap) CrossesDangerZone(from, to string) bool {
	if m == nil || !m.Has(from) || !m.Has(to) {
		return false
	}
	return m.SafePath(from, to) < 0
}

type zoneFile struct {
	Territories []struct {
		Name string `yaml:"name"`
		Zone string `yaml:"zone"`
	} `yaml:"territories"`
	Roads [][]string `yaml:"roads"`
}

// ParseZoneMap decodes a YAML zone map. Every road endpoint must be a declared territory.
func ParseZoneMap(data []byte) (*ZoneMap, error) {
	var f zoneFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse zone map: %w", err)
	}
	m := NewZoneMap()
	for _, t := range f.Territories {
		if t.Name == "" {
			return nil, fmt.Errorf("zone map: territory without name")
		}
		z, err := parseZone(t.Zone)
		if err != nil {
			return nil, fmt.Errorf("zone map: territory %s: %w", t.Name, err)
		}
		m.SetZone(t.Name, z)
	}
	for _, r := range f.Roads {
		if len(r) != 2 {
			return nil, fmt.Errorf("zone map: road %v must have exactly two ends", r)
		}
		for _, end := range r {
			if !m.Has(end) {
				return nil, fmt.Errorf("zone map: road %s - %s references unknown territory %q", r[0], r[1], end)
			}
		}
		m.AddRoad(r[0], r[1])
	}
	return m, nil
}

// LoadZoneMap reads a YAML zone map from disk.
func LoadZoneMap(path string) (*ZoneMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseZoneMap(data)
}

//go:embed royal_continent.yaml
var builtin embed.FS

// DefaultRoyalContinent returns the built-in map of the royal cities, the
// yellow roads between them and the red approaches to Caerleon.
func DefaultRoyalContinent() *ZoneMap {
	data, err := builtin.ReadFile("royal_continent.yaml")
	if err != nil {
		panic(err)
	}
	m, err := ParseZoneMap(data)
	if err != nil {
		panic(err)
	}
	return m
}
