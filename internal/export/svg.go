// Package export renders trajectory files as standalone images.
package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/driftsim/internal/output"
	"github.com/san-kum/driftsim/internal/particle"
)

// FateColors strokes a track by the mortality code of its last record.
var FateColors = map[int]string{
	particle.Alive.Code():     "#7fdbff",
	particle.DeadOld.Code():   "#aaaaaa",
	particle.DeadOut.Code():   "#ffd700",
	particle.DeadBeach.Code(): "#ff6b6b",
	particle.DeadCold.Code():  "#4d79ff",
	particle.DeadHot.Code():   "#ff9f1a",
}

type bounds struct {
	minLon, maxLon, minLat, maxLat float64
}

func trackBounds(tracks []output.Track) (bounds, bool) {
	b := bounds{math.Inf(1), math.Inf(-1), math.Inf(1), math.Inf(-1)}
	found := false
	for _, tr := range tracks {
		for _, p := range tr.Points {
			b.minLon = math.Min(b.minLon, p.Lon)
			b.maxLon = math.Max(b.maxLon, p.Lon)
			b.minLat = math.Min(b.minLat, p.Lat)
			b.maxLat = math.Max(b.maxLat, p.Lat)
			found = true
		}
	}
	return b, found
}

// TracksToSVG draws every track as a polyline in an equirectangular
// projection scaled by the cosine of the mean latitude. The image is
// width pixels wide; its height follows the aspect of the tracks. A dot
// marks where each track starts.
func TracksToSVG(tracks []output.Track, width int) string {
	b, ok := trackBounds(tracks)
	if !ok {
		return ""
	}

	rangeLon := b.maxLon - b.minLon
	rangeLat := b.maxLat - b.minLat
	if rangeLon == 0 {
		rangeLon = 0.01
	}
	if rangeLat == 0 {
		rangeLat = 0.01
	}
	b.minLon -= rangeLon * 0.05
	b.maxLon += rangeLon * 0.05
	b.minLat -= rangeLat * 0.05
	b.maxLat += rangeLat * 0.05
	rangeLon = b.maxLon - b.minLon
	rangeLat = b.maxLat - b.minLat

	k := math.Cos((b.minLat + b.maxLat) / 2 * math.Pi / 180)
	height := int(math.Ceil(float64(width) * rangeLat / (rangeLon * k)))
	if height < 1 {
		height = 1
	}
	project := func(p output.TrackPoint) (float64, float64) {
		x := (p.Lon - b.minLon) / rangeLon * float64(width)
		y := float64(height) - (p.Lat-b.minLat)/rangeLat*float64(height)
		return x, y
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#001a33"/>
`, width, height, width, height))

	for _, tr := range tracks {
		if len(tr.Points) == 0 {
			continue
		}
		color, ok := FateColors[tr.Fate]
		if !ok {
			color = "#ffffff"
		}
		x0, y0 := project(tr.Points[0])
		if len(tr.Points) > 1 {
			sb.WriteString(fmt.Sprintf(`<path id="drifter-%d" fill="none" stroke="%s" stroke-width="1" stroke-opacity="0.8" d="M%.1f,%.1f`, tr.ID, color, x0, y0))
			for _, p := range tr.Points[1:] {
				x, y := project(p)
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
			}
			sb.WriteString("\"/>\n")
		}
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="1.5" fill="%s"/>
`, x0, y0, color))
	}

	sb.WriteString("</svg>")
	return sb.String()
}
