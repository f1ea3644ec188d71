package formatter

import (
	"strconv"
	"strings"
)

// BuildGPX serializes documents as a GPX 1.1 file: one track per segment,
// using the matched route geometry for transit and the trace for walking.
func (rb *responseBuilder) BuildGPX(docs []Document) []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	b.WriteString(`<gpx version="1.1" creator="gtfs-itinerary" xmlns="http://www.topografix.com/GPX/1/1">`)
	for _, doc := range docs {
		for i, s := range doc.Segments {
			writeSegmentGPX(&b, doc.TripID, i, s)
		}
	}
	b.WriteString("</gpx>")
	return []byte(b.String())
}

func writeSegmentGPX(b *strings.Builder, tripID string, i int, s SegmentDoc) {
	b.WriteString("<trk>")
	b.WriteString("<name>")
	b.WriteString(xmlEscape(tripID + " #" + strconv.Itoa(i)))
	b.WriteString("</name>")
	if s.RouteName != "" || s.Mode != "" {
		b.WriteString("<desc>")
		desc := s.Mode
		if s.RouteName != "" {
			desc += " " + s.RouteName
		}
		if s.Boarding != nil && s.Alighting != nil {
			desc += ": " + s.Boarding.Name + " - " + s.Alighting.Name
		}
		b.WriteString(xmlEscape(desc))
		b.WriteString("</desc>")
	}
	b.WriteString("<type>")
	b.WriteString(xmlEscape(s.Mode))
	b.WriteString("</type>")

	geom := s.RouteGeometry
	if len(geom) == 0 {
		geom = s.LegGeometry
	}
	b.WriteString("<trkseg>")
	for _, p := range geom {
		b.WriteString(`<trkpt lat="`)
		b.WriteString(strconv.FormatFloat(p[1], 'f', 6, 64))
		b.WriteString(`" lon="`)
		b.WriteString(strconv.FormatFloat(p[0], 'f', 6, 64))
		b.WriteString(`"/>`)
	}
	b.WriteString("</trkseg>")
	b.WriteString("</trk>")
}

func xmlEscape(s string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"\"", "&quot;",
		"'", "&apos;",
	)
	return replacer.Replace(s)
}
