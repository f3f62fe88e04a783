package ingest

import (
	"strings"
	"testing"

	"navcore/internal/graph"
	"navcore/internal/model"
)

func TestIngestTwoWayResidential(t *testing.T) {
	doc := `<?xml version="1.0"?>
<osm version="0.6">
  <node id="1" lat="1.3000" lon="103.8000"/>
  <node id="2" lat="1.3010" lon="103.8000"/>
  <way id="10">
    <nd ref="1"/>
    <nd ref="2"/>
    <tag k="highway" v="residential"/>
  </way>
</osm>`

	g := graph.New()
	ok := Ingest(g, strings.NewReader(doc), nil)
	if !ok {
		t.Fatal("Ingest returned false, want true")
	}
	if g.NodeCount() != 2 {
		t.Fatalf("NodeCount = %d, want 2", g.NodeCount())
	}
	if g.EdgeCount() != 2 {
		t.Fatalf("EdgeCount = %d, want 2 (forward+reverse)", g.EdgeCount())
	}
	for _, e := range g.AllEdges() {
		if e.Kind != model.RoadResidential {
			t.Errorf("edge kind = %v, want Residential", e.Kind)
		}
		if e.SpeedLimitKph != 30 {
			t.Errorf("speed limit = %v, want 30", e.SpeedLimitKph)
		}
	}
}

func TestIngestOnewayMotorway(t *testing.T) {
	doc := `<?xml version="1.0"?>
<osm version="0.6">
  <node id="1" lat="1.3000" lon="103.8000"/>
  <node id="2" lat="1.3010" lon="103.8000"/>
  <way id="10">
    <nd ref="1"/>
    <nd ref="2"/>
    <tag k="highway" v="motorway"/>
  </way>
</osm>`

	g := graph.New()
	ok := Ingest(g, strings.NewReader(doc), nil)
	if !ok {
		t.Fatal("Ingest returned false, want true")
	}
	if g.EdgeCount() != 1 {
		t.Fatalf("EdgeCount = %d, want 1 (forward only)", g.EdgeCount())
	}
	e := g.AllEdges()[0]
	if e.Kind != model.RoadHighway {
		t.Errorf("kind = %v, want Highway", e.Kind)
	}
	if e.SpeedLimitKph != 100 {
		t.Errorf("speed = %v, want 100", e.SpeedLimitKph)
	}
	if !e.Oneway {
		t.Error("expected oneway = true")
	}
}

func TestIngestRejectsFootway(t *testing.T) {
	doc := `<?xml version="1.0"?>
<osm version="0.6">
  <node id="1" lat="1.3000" lon="103.8000"/>
  <node id="2" lat="1.3010" lon="103.8000"/>
  <way id="10">
    <nd ref="1"/>
    <nd ref="2"/>
    <tag k="highway" v="footway"/>
  </way>
</osm>`

	g := graph.New()
	ok := Ingest(g, strings.NewReader(doc), nil)
	if ok {
		t.Fatal("Ingest returned true, want false (zero usable highway ways)")
	}
	if g.EdgeCount() != 0 {
		t.Fatalf("EdgeCount = %d, want 0", g.EdgeCount())
	}
}

func TestIngestInvalidXML(t *testing.T) {
	g := graph.New()
	ok := Ingest(g, strings.NewReader("not xml at all {}"), nil)
	if ok {
		t.Fatal("Ingest returned true for invalid input, want false")
	}
}

func TestIngestSkipsMissingEndpoints(t *testing.T) {
	doc := `<?xml version="1.0"?>
<osm version="0.6">
  <node id="1" lat="1.3000" lon="103.8000"/>
  <way id="10">
    <nd ref="1"/>
    <nd ref="999"/>
    <tag k="highway" v="residential"/>
  </way>
</osm>`

	g := graph.New()
	ok := Ingest(g, strings.NewReader(doc), nil)
	if ok {
		t.Fatal("way with a missing endpoint should not count as usable")
	}
}

func TestIngestRespectsMaxspeedOverride(t *testing.T) {
	doc := `<?xml version="1.0"?>
<osm version="0.6">
  <node id="1" lat="1.3000" lon="103.8000"/>
  <node id="2" lat="1.3010" lon="103.8000"/>
  <way id="10">
    <nd ref="1"/>
    <nd ref="2"/>
    <tag k="highway" v="residential"/>
    <tag k="maxspeed" v="45"/>
  </way>
</osm>`

	g := graph.New()
	Ingest(g, strings.NewReader(doc), nil)
	for _, e := range g.AllEdges() {
		if e.SpeedLimitKph != 45 {
			t.Errorf("speed = %v, want 45 (explicit maxspeed)", e.SpeedLimitKph)
		}
	}
}

func TestIngestIdempotentNodeAndEdgeCounts(t *testing.T) {
	doc := `<?xml version="1.0"?>
<osm version="0.6">
  <node id="1" lat="1.3000" lon="103.8000"/>
  <node id="2" lat="1.3010" lon="103.8000"/>
  <node id="3" lat="1.3020" lon="103.8000"/>
  <way id="10">
    <nd ref="1"/>
    <nd ref="2"/>
    <nd ref="3"/>
    <tag k="highway" v="secondary"/>
  </way>
</osm>`

	g1 := graph.New()
	Ingest(g1, strings.NewReader(doc), nil)

	g2 := graph.New()
	Ingest(g2, strings.NewReader(doc), nil)

	if g1.NodeCount() != g2.NodeCount() || g1.EdgeCount() != g2.EdgeCount() {
		t.Fatalf("loading same OSM twice produced different counts: (%d,%d) vs (%d,%d)",
			g1.NodeCount(), g1.EdgeCount(), g2.NodeCount(), g2.EdgeCount())
	}
}
