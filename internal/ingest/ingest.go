// Package ingest implements the OSM ingester: it consumes an OSM XML 0.6
// byte stream and populates a fresh internal/graph.Graph with the highway
// subset needed for vehicle routing, classifying each way's highway tag
// and expanding it into one or two directed graph edges.
//
// Tag lookups use github.com/paulmach/osm's typed osm.Tags; node and way
// identifiers stay plain int64 values from the decoded XML.
package ingest

import (
	"encoding/xml"
	"io"
	"strconv"

	"github.com/paulmach/osm"

	"navcore/internal/geodesy"
	"navcore/internal/graph"
	"navcore/internal/model"
)

// osmDoc mirrors the minimal OSM XML 0.6 shape used for ingestion:
// <osm><node id lat lon/> ... <way id><nd ref/>...<tag k v/>...</way></osm>.
type osmDoc struct {
	XMLName xml.Name   `xml:"osm"`
	Nodes   []osmNode  `xml:"node"`
	Ways    []osmWay   `xml:"way"`
}

type osmNode struct {
	ID  int64   `xml:"id,attr"`
	Lat float64 `xml:"lat,attr"`
	Lon float64 `xml:"lon,attr"`
}

type osmWay struct {
	ID   int64    `xml:"id,attr"`
	Nds  []osmNd  `xml:"nd"`
	Tags []osmTag `xml:"tag"`
}

type osmNd struct {
	Ref int64 `xml:"ref,attr"`
}

type osmTag struct {
	K string `xml:"k,attr"`
	V string `xml:"v,attr"`
}

// rejectedHighways lists highway=* values not modeled for vehicle routing.
var rejectedHighways = map[string]bool{
	"footway": true, "cycleway": true, "path": true, "steps": true,
	"pedestrian": true, "bus_guideway": true, "escape": true,
	"raceway": true, "bridleway": true,
}

// classify classifies a highway tag value into a RoadKind and its
// default speed limit.
func classify(highway string) (model.RoadKind, float64) {
	switch highway {
	case "motorway", "trunk", "motorway_link", "trunk_link":
		return model.RoadHighway, 100
	case "primary", "secondary", "primary_link", "secondary_link":
		return model.RoadPrimary, 70
	case "tertiary", "unclassified", "tertiary_link":
		return model.RoadSecondary, 50
	case "residential", "living_street":
		return model.RoadResidential, 30
	case "service", "track":
		return model.RoadService, 20
	default:
		return model.RoadResidential, 30
	}
}

// ProgressFunc is called periodically during ingestion; it is not
// required to report exact counts.
type ProgressFunc func(waysProcessed, ways int)

// Ingest parses r as OSM XML and populates g. g is assumed fresh (the
// caller clears it first, per the façade's load_osm contract). It returns
// false when the input is not valid OSM XML or contains zero usable
// highway ways, leaving g's state as built so far (the façade is
// responsible for clearing g on failure if it wants an empty graph).
func Ingest(g *graph.Graph, r io.Reader, onProgress ProgressFunc) bool {
	var doc osmDoc
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return false
	}
	if len(doc.Nodes) == 0 || len(doc.Ways) == 0 {
		return false
	}

	nodeIDs := make(map[int64]model.NodeID, len(doc.Nodes))
	for _, n := range doc.Nodes {
		nodeIDs[n.ID] = g.AddNode(model.LatLon{Lat: n.Lat, Lon: n.Lon})
	}

	acceptedWays := 0
	for i, w := range doc.Ways {
		if ingestWay(g, w, nodeIDs) {
			acceptedWays++
		}
		if onProgress != nil {
			onProgress(i+1, len(doc.Ways))
		}
	}

	return acceptedWays > 0
}

func ingestWay(g *graph.Graph, w osmWay, nodeIDs map[int64]model.NodeID) bool {
	tags := toOSMTags(w.Tags)

	highway := tags.Find("highway")
	if highway == "" || rejectedHighways[highway] {
		return false
	}
	access := tags.Find("access")
	if access == "no" || access == "private" {
		return false
	}
	if len(w.Nds) < 2 {
		return false
	}

	kind, defaultSpeed := classify(highway)
	speed := defaultSpeed
	if ms := tags.Find("maxspeed"); ms != "" {
		if v, err := strconv.ParseFloat(ms, 64); err == nil {
			speed = v
		}
	}

	forward, backward := directionality(highway, tags.Find("oneway"))
	if !forward && !backward {
		return false
	}

	name := tags.Find("name")
	addedAny := false

	for i := 0; i < len(w.Nds)-1; i++ {
		fromOSM := w.Nds[i].Ref
		toOSM := w.Nds[i+1].Ref

		fromID, fromOK := nodeIDs[fromOSM]
		toID, toOK := nodeIDs[toOSM]
		if !fromOK || !toOK {
			continue
		}

		fromNode, _ := g.GetNode(fromID)
		toNode, _ := g.GetNode(toID)
		length := geodesy.Haversine(fromNode.Pos.Lat, fromNode.Pos.Lon, toNode.Pos.Lat, toNode.Pos.Lon)

		if forward {
			if _, err := g.AddEdge(fromID, toID, name, kind, speed, length, !backward); err == nil {
				addedAny = true
			}
		}
		if backward {
			if _, err := g.AddEdge(toID, fromID, name, kind, speed, length, !forward); err == nil {
				addedAny = true
			}
		}
	}

	return addedAny
}

// directionality returns (forward, backward): explicit oneway tags
// override, motorways are forced oneway, everything else is bidirectional.
func directionality(highway, oneway string) (forward, backward bool) {
	switch oneway {
	case "yes", "true", "1":
		return true, false
	}
	if highway == "motorway" || highway == "motorway_link" {
		return true, false
	}
	return true, true
}

func toOSMTags(tags []osmTag) osm.Tags {
	out := make(osm.Tags, 0, len(tags))
	for _, t := range tags {
		out = append(out, osm.Tag{Key: t.K, Value: t.V})
	}
	return out
}
