package domain

// GeoPoint represents a geographic coordinate in degrees.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Geodetic is a latitude/longitude in degrees plus altitude in km above a
// spherical Earth.
type Geodetic struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`
}

// Point drops the altitude.
func (g Geodetic) Point() GeoPoint {
	return GeoPoint{Lat: g.Latitude, Lon: g.Longitude}
}
