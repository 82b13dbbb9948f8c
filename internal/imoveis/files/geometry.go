package files

import (
	"strings"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
	"github.com/twpayne/go-geom/encoding/wkbhex"
	"github.com/twpayne/go-geom/encoding/wkt"
)

func geometryType(g geom.T) string {
	switch g.(type) {
	case *geom.Point:
		return "Point"
	case *geom.MultiPoint:
		return "MultiPoint"
	case *geom.LineString:
		return "LineString"
	case *geom.MultiLineString:
		return "MultiLineString"
	case *geom.Polygon:
		return "Polygon"
	case *geom.MultiPolygon:
		return "MultiPolygon"
	case *geom.GeometryCollection:
		return "GeometryCollection"
	default:
		return "Unknown"
	}
}

func (s *GeometryStats) add(g geom.T, err error) {
	if err != nil || g == nil {
		s.Invalid++
		return
	}
	if s.Types == nil {
		s.Types = make(map[string]int)
	}
	s.Rows++
	s.Types[geometryType(g)]++
}

// addWKB records a binary geometry as stored by GeoParquet.
func (s *GeometryStats) addWKB(b []byte) {
	s.add(wkb.Unmarshal(b))
}

// addText records a geometry exported as WKT or hex-encoded WKB.
// Blank cells are skipped.
func (s *GeometryStats) addText(cell string) {
	cell = strings.TrimSpace(cell)
	if cell == "" || cell == "NaN" {
		return
	}
	if g, err := wkt.Unmarshal(cell); err == nil {
		s.add(g, nil)
		return
	}
	s.add(wkbhex.Decode(cell))
}
