// Package frame defines the Common Frame Format (CFF) and its component
// types: normalized entities, propagation paths, and WKT geometry.
package frame

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Point is a WKT POINT (lon, lat, alt) — x=lon, y=lat, z=alt.
type Point struct {
	X, Y, Z float64
}

// Polyline is a WKT LINESTRING, ordered from aircraft to the ground
// station that heard it.
type Polyline struct {
	Points []Point
}

var pointPattern = regexp.MustCompile(
	`(?i)^POINT\s*\(\s*(-?[0-9]+(?:\.[0-9]*)?)\s+(-?[0-9]+(?:\.[0-9]*)?)\s+(-?[0-9]+(?:\.[0-9]*)?)\s*\)$`,
)

var coordPattern = regexp.MustCompile(
	`\s*(-?[0-9]+(?:\.[0-9]*)?)\s+(-?[0-9]+(?:\.[0-9]*)?)\s+(-?[0-9]+(?:\.[0-9]*)?)\s*`,
)

func (p Point) String() string {
	return fmt.Sprintf("POINT (%s %s %s)", trimFloat(p.X), trimFloat(p.Y), trimFloat(p.Z))
}

// MarshalJSON renders the point as a WKT string, matching the wire format
// consumers (swarm peers, Elasticsearch, the state DB) expect.
func (p Point) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(p.String())), nil
}

func (p *Point) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return err
	}
	pt, err := ParsePoint(s)
	if err != nil {
		return err
	}
	*p = pt
	return nil
}

// ParsePoint parses a "POINT (x y z)" WKT string.
func ParsePoint(s string) (Point, error) {
	m := pointPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Point{}, fmt.Errorf("frame: not a WKT POINT string: %q", s)
	}
	x, y, z, err := parseTriple(m[1], m[2], m[3])
	if err != nil {
		return Point{}, err
	}
	return Point{X: x, Y: y, Z: z}, nil
}

func (l Polyline) String() string {
	var coords = make([]string, len(l.Points))
	for i, p := range l.Points {
		coords[i] = fmt.Sprintf("%s %s %s", trimFloat(p.X), trimFloat(p.Y), trimFloat(p.Z))
	}
	return fmt.Sprintf("LINESTRING (%s)", strings.Join(coords, ", "))
}

func (l Polyline) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(l.String())), nil
}

func (l *Polyline) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return err
	}
	line, err := ParsePolyline(s)
	if err != nil {
		return err
	}
	*l = line
	return nil
}

var linePattern = regexp.MustCompile(`(?i)^LINESTRING\s*\(\s*(.+)\s*\)$`)

// ParsePolyline parses a "LINESTRING (x y z, x1 y1 z1, ...)" WKT string.
func ParsePolyline(s string) (Polyline, error) {
	m := linePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Polyline{}, fmt.Errorf("frame: not a WKT LINESTRING string: %q", s)
	}

	var points []Point
	for _, coord := range strings.Split(m[1], ",") {
		cm := coordPattern.FindStringSubmatch(coord)
		if cm == nil {
			return Polyline{}, fmt.Errorf("frame: bad coordinate in LINESTRING: %q", coord)
		}
		x, y, z, err := parseTriple(cm[1], cm[2], cm[3])
		if err != nil {
			return Polyline{}, err
		}
		points = append(points, Point{X: x, Y: y, Z: z})
	}

	return Polyline{Points: points}, nil
}

func parseTriple(xs, ys, zs string) (x, y, z float64, err error) {
	if x, err = strconv.ParseFloat(xs, 64); err != nil {
		return
	}
	if y, err = strconv.ParseFloat(ys, 64); err != nil {
		return
	}
	if z, err = strconv.ParseFloat(zs, 64); err != nil {
		return
	}
	return
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
