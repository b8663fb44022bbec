package journey

import "math"

const earthRadiusKm = 6371.0

// LngLat is a [lng, lat] coordinate pair, the order GeoJSON and the map use.
type LngLat [2]float64

func (c LngLat) Lng() float64 { return c[0] }
func (c LngLat) Lat() float64 { return c[1] }

// Distance is the great-circle distance between a and b in kilometres.
func Distance(a, b LngLat) float64 {
	lat1 := a.Lat() * math.Pi / 180
	lat2 := b.Lat() * math.Pi / 180
	dLat := (b.Lat() - a.Lat()) * math.Pi / 180
	dLng := (b.Lng() - a.Lng()) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Midpoint is the point the camera pans through between two places.
// It averages the coordinates, which is what the map eases through.
func Midpoint(a, b LngLat) LngLat {
	return LngLat{(a.Lng() + b.Lng()) / 2, (a.Lat() + b.Lat()) / 2}
}

type zoomStep struct {
	maxKm float64
	zoom  float64
}

// zoomOutTable maps hop distance to the zoom the camera backs out to.
// Rows must stay sorted by maxKm with non-increasing zoom.
var zoomOutTable = []zoomStep{
	{maxKm: 50, zoom: 8},
	{maxKm: 200, zoom: 6.5},
	{maxKm: 600, zoom: 5.5},
	{maxKm: 1500, zoom: 4.5},
	{maxKm: 4000, zoom: 3.5},
	{maxKm: 8000, zoom: 2.5},
	{maxKm: math.Inf(1), zoom: 1.8},
}

// ZoomOutLevel returns the zoom-out level for a hop of km kilometres.
// Closer pairs zoom out less.
func ZoomOutLevel(km float64) float64 {
	for _, s := range zoomOutTable {
		if km < s.maxKm {
			return s.zoom
		}
	}
	return zoomOutTable[len(zoomOutTable)-1].zoom
}

// pathLength is the great-circle length of a polyline in kilometres.
func pathLength(pts []LngLat) float64 {
	var total float64
	for i := 1; i < len(pts); i++ {
		total += Distance(pts[i-1], pts[i])
	}
	return total
}
