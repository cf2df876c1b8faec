// Package markers implements the marker locator (C4): fusing camera QR
// observations with proxy range pings into persistent labelled point
// markers, each an aggregated location estimate with a bounded confidence
// weight.
package markers

import (
	"wheelly/control/internal/geometry"
	"wheelly/control/internal/messages"
)

// WeightCeiling bounds how confident a marker's weight can become; chosen
// because an upper bound was never specified; callers that need one can
// wrap Locator with their own cap.
const WeightCeiling = 32

// LabelMarker is a persistent named landmark with an aggregated location
// estimate.
type LabelMarker struct {
	Label      string
	Location   geometry.Vec2
	Weight     float64
	MarkerTime int64
	CleanTime  int64
}

// Locator holds the current set of markers, keyed by label. The zero value
// is a usable empty locator.
type Locator struct {
	markers map[string]LabelMarker
}

// New returns an empty Locator.
func New() *Locator {
	return &Locator{markers: make(map[string]LabelMarker)}
}

// Markers returns a snapshot copy of the current marker set.
func (l *Locator) Markers() map[string]LabelMarker {
	out := make(map[string]LabelMarker, len(l.markers))
	for k, v := range l.markers {
		out[k] = v
	}
	return out
}

// Get returns the marker for label, if any.
func (l *Locator) Get(label string) (LabelMarker, bool) {
	m, ok := l.markers[label]
	return m, ok
}

// Observe folds one camera event and its correlated proxy reading into the
// marker set. A camera event whose QR code is
// UnknownQRCode is discarded. robotLocation/robotHeading position the
// observed point from the proxy direction and distance.
func (l *Locator) Observe(camera messages.Camera, proxy messages.Proxy, robotLocation geometry.Vec2, robotHeading geometry.Angle, maxRadarDistance float64) {
	if !camera.Recognised() {
		return
	}
	distance := proxy.Distance()
	if distance > maxRadarDistance {
		distance = maxRadarDistance
	}
	sensorDir := robotHeading.Add(geometry.FromDeg(proxy.SensorDirectionDeg))
	point := geometry.AddVec(robotLocation, geometry.ScaleVec(distance, sensorDir.Unit()))

	existing, ok := l.markers[camera.QRCode]
	if !ok {
		l.markers[camera.QRCode] = LabelMarker{
			Label:      camera.QRCode,
			Location:   point,
			Weight:     1,
			MarkerTime: proxy.SimTime,
		}
		return
	}
	location := weightedAverage(existing.Location, existing.Weight, point, 1)
	weight := existing.Weight + 1
	if weight > WeightCeiling {
		weight = WeightCeiling
	}
	l.markers[camera.QRCode] = LabelMarker{
		Label:      camera.QRCode,
		Location:   location,
		Weight:     weight,
		MarkerTime: proxy.SimTime,
		CleanTime:  existing.CleanTime,
	}
}

func weightedAverage(a geometry.Vec2, wa float64, b geometry.Vec2, wb float64) geometry.Vec2 {
	total := wa + wb
	if total == 0 {
		return a
	}
	return geometry.Vec2{
		X: (a.X*wa + b.X*wb) / total,
		Y: (a.Y*wa + b.Y*wb) / total,
	}
}

// Evict removes every marker whose MarkerTime is older than
// t-markerPersistence, the same eviction run by every camera event.
func (l *Locator) Evict(t int64, markerPersistence int64) {
	for label, m := range l.markers {
		if m.MarkerTime < t-markerPersistence {
			delete(l.markers, label)
		}
	}
}
