package domain

// GeoPosition is a position fix in decimal degrees.
type GeoPosition struct {
	Lat float64
	Lng float64
}

// Valid reports whether the coordinates are within range.
func (p GeoPosition) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}
