package domain

import "strconv"

// GeoLocation is a WGS84 coordinate pair.
type GeoLocation struct {
	Latitude  float64
	Longitude float64
}

// NewGeoLocation range-checks the coordinates.
func NewGeoLocation(latitude, longitude float64) (GeoLocation, error) {
	if latitude < -90 || latitude > 90 {
		return GeoLocation{}, malformed("latitude", formatFloat(latitude), "out of range [-90, 90]")
	}
	if longitude < -180 || longitude > 180 {
		return GeoLocation{}, malformed("longitude", formatFloat(longitude), "out of range [-180, 180]")
	}
	return GeoLocation{Latitude: latitude, Longitude: longitude}, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
