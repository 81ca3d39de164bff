package telemetry

// Span attribute keys shared by the zone service and the editor transport.
const (
	AttrZoneID       = "zone.id"
	AttrZoneVertices = "zone.vertices"
	AttrOperation    = "zone.operation"
)
