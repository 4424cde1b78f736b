package telemetry

import "go.opentelemetry.io/otel/attribute"

// Span attribute keys shared by the refresh and query paths.
const (
	AttrFeedURL          = attribute.Key("feed.url")
	AttrFeedStateVectors = attribute.Key("feed.state_vectors")
	AttrFeedDuplicates   = attribute.Key("feed.duplicate_epochs")
	AttrGeoLat           = attribute.Key("geo.lat")
	AttrGeoLon           = attribute.Key("geo.lon")
)
