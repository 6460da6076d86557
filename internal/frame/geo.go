package frame

import "github.com/golang/geo/s2"

// DistanceKM returns the great-circle distance between two WKT points in
// kilometers, using x=lon/y=lat as stored on Point. NewPropagationPath uses
// it to fill each hop's DistanceKM.
func DistanceKM(a, b Point) float64 {
	const earthRadiusKM = 6371.0088
	pa := s2.LatLngFromDegrees(a.Y, a.X)
	pb := s2.LatLngFromDegrees(b.Y, b.X)
	return pa.Distance(pb).Radians() * earthRadiusKM
}
