package cockpit

import (
	"fmt"
	"strconv"
	"strings"
)

// CityWide is the pseudo region covering the whole city.
const CityWide = "全市"

// Map view box size.
const (
	ViewWidth  = 500
	ViewHeight = 420
)

// SelectedFill is the fill of the selected region.
const SelectedFill = "#3B82F6"

// Point is a coordinate in the map view box
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// MapRegion is one clickable district polygon
type MapRegion struct {
	Name   string  `json:"name"`
	Label  string  `json:"label"`
	Path   string  `json:"path"`
	Anchor Point   `json:"anchor"`
	Color  string  `json:"color"`
	Points []Point `json:"-"`
}

var regionDefs = []struct {
	name, path, color string
	cx, cy            float64
}{
	{"寿光市", "M130,40 L230,50 L245,130 L210,165 L180,165 L100,140 L80,100 Z", "#5C6B7F", 160, 110},
	{"寒亭区", "M230,50 L310,40 L320,135 L285,150 L270,140 L245,130 Z", "#94A3B8", 280, 90},
	{"昌邑市", "M310,40 L410,30 L430,140 L360,160 L320,135 Z", "#60A5FA", 370, 90},
	{"潍城区", "M210,165 L245,160 L245,190 L215,190 Z", "#14B8A6", 230, 175},
	{"奎文区", "M245,160 L270,155 L285,150 L285,185 L260,190 L245,190 Z", "#CBD5E1", 265, 170},
	{"坊子区", "M285,150 L320,135 L360,160 L340,220 L290,260 L260,250 L260,190 L285,185 Z", "#C084FC", 310, 200},
	{"昌乐县", "M180,165 L210,165 L215,190 L260,250 L220,260 L130,220 L135,170 Z", "#86EFAC", 190, 220},
	{"青州市", "M20,130 L100,140 L135,170 L130,220 L80,260 L20,220 Z", "#7DD3FC", 75, 190},
	{"高密市", "M360,160 L430,140 L480,240 L400,280 L340,220 Z", "#4ADE80", 410, 220},
	{"临朐县", "M20,220 L80,260 L130,240 L150,290 L120,350 L40,300 Z", "#2DD4BF", 80, 290},
	{"安丘市", "M150,290 L130,240 L220,260 L290,260 L300,320 L220,350 Z", "#34D399", 220, 300},
	{"诸城市", "M340,220 L400,280 L440,360 L320,380 L300,320 L290,260 Z", "#38BDF8", 370, 320},
}

var mapRegions = buildRegions()

func buildRegions() []MapRegion {
	out := make([]MapRegion, len(regionDefs))
	for i, d := range regionDefs {
		pts, err := ParsePath(d.path)
		if err != nil {
			panic(fmt.Sprintf("region %s: %v", d.name, err))
		}
		out[i] = MapRegion{
			Name:   d.name,
			Label:  ShortName(d.name),
			Path:   d.path,
			Anchor: Point{d.cx, d.cy},
			Color:  d.color,
			Points: pts,
		}
	}
	return out
}

// Regions returns the twelve map districts in drawing order
func Regions() []MapRegion {
	return append([]MapRegion(nil), mapRegions...)
}

// Names returns 全市 followed by every district
func Names() []string {
	names := []string{CityWide}
	for _, r := range mapRegions {
		names = append(names, r.Name)
	}
	return names
}

// Valid reports whether name is 全市 or a map district
func Valid(name string) bool {
	if name == CityWide {
		return true
	}
	for _, r := range mapRegions {
		if r.Name == name {
			return true
		}
	}
	return false
}

// ShortName strips the 市/区/县 suffix characters for map labels.
func ShortName(name string) string {
	return strings.NewReplacer("市", "", "区", "", "县", "").Replace(name)
}

// RegionAt returns the district under a view box point.
func RegionAt(x, y float64) (string, bool) {
	for _, r := range mapRegions {
		if contains(r.Points, x, y) {
			return r.Name, true
		}
	}
	return "", false
}

// contains is the even-odd ray casting test.
func contains(poly []Point, x, y float64) bool {
	in := false
	j := len(poly) - 1
	for i := range poly {
		pi, pj := poly[i], poly[j]
		if (pi.Y > y) != (pj.Y > y) && x < (pj.X-pi.X)*(y-pi.Y)/(pj.Y-pi.Y)+pi.X {
			in = !in
		}
		j = i
	}
	return in
}

// ParsePath reads an absolute M/L/Z polygon path such as "M1,2 L3,4 Z".
func ParsePath(d string) ([]Point, error) {
	var pts []Point
	for _, tok := range strings.Fields(d) {
		switch {
		case tok == "Z" || tok == "z":
			continue
		case strings.HasPrefix(tok, "M"), strings.HasPrefix(tok, "L"):
			tok = tok[1:]
		default:
			return nil, fmt.Errorf("unsupported path command %q", tok)
		}

		xs, ys, ok := strings.Cut(tok, ",")
		if !ok {
			return nil, fmt.Errorf("bad coordinate %q", tok)
		}
		x, err := strconv.ParseFloat(xs, 64)
		if err != nil {
			return nil, err
		}
		y, err := strconv.ParseFloat(ys, 64)
		if err != nil {
			return nil, err
		}
		pts = append(pts, Point{x, y})
	}
	if len(pts) < 3 {
		return nil, fmt.Errorf("polygon needs at least 3 points, got %d", len(pts))
	}
	return pts, nil
}
