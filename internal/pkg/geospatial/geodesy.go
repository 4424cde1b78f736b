// Package geospatial derives physical quantities from raw state vectors.
//
// The geodetic conversion uses a spherical Earth, not WGS 84. Altitudes are
// therefore off by up to ~21 km depending on latitude; good enough for a
// ground-track display, not for precision work.
package geospatial

import (
	"math"

	"github.com/samirrijal/isstrack/internal/core/domain"
)

// EarthRadiusKm is the mean Earth radius used for altitude.
const EarthRadiusKm = 6371.0

// SpeedMagnitude returns the Euclidean norm of a velocity vector, in the
// same units as its components.
func SpeedMagnitude(vx, vy, vz float64) float64 {
	return math.Sqrt(vx*vx + vy*vy + vz*vz)
}

// CartesianToGeodetic converts an Earth-centred position in km to latitude
// and longitude in degrees and altitude in km. On the polar axis (x = y = 0)
// longitude is 0.
func CartesianToGeodetic(x, y, z float64) domain.Geodetic {
	lon := math.Atan2(y, x)
	lat := math.Atan2(z, math.Sqrt(x*x+y*y))
	alt := math.Sqrt(x*x+y*y+z*z) - EarthRadiusKm

	return domain.Geodetic{
		Latitude:  toDeg(lat),
		Longitude: toDeg(lon),
		Altitude:  alt,
	}
}

// VectorSpeed is SpeedMagnitude applied to a state vector's velocity.
func VectorSpeed(sv domain.StateVector) float64 {
	return SpeedMagnitude(sv.XDot, sv.YDot, sv.ZDot)
}

// VectorGeodetic is CartesianToGeodetic applied to a state vector's position.
func VectorGeodetic(sv domain.StateVector) domain.Geodetic {
	return CartesianToGeodetic(sv.X, sv.Y, sv.Z)
}

func toDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
