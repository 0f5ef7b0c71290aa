// Package lighting turns scene lights into the values a renderer uploads.
package lighting

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/scenegraph/pkg/math"
)

// SunDirection converts longitude/latitude angles in degrees to a unit
// vector pointing towards the sun. Longitude is rotation around the Y axis,
// latitude is elevation from the horizon.
func SunDirection(longitude, latitude float32) math.Vec3 {
	lon := longitude * math32.Pi / 180
	lat := latitude * math32.Pi / 180

	return math.Vec3{
		X: math32.Cos(lat) * math32.Sin(lon),
		Y: math32.Sin(lat),
		Z: math32.Cos(lat) * math32.Cos(lon),
	}
}

// LightTravel returns the direction sunlight travels, the negated sun
// direction.
func LightTravel(longitude, latitude float32) math.Vec3 {
	return SunDirection(longitude, latitude).Neg()
}
