// Package worldmodel composes the radar map, the marker locator and the
// derived polar/grid views into the WorldModel the controller hands to the
// user's inference callback, and implements the update_status
// reconciliation state machine that decides when a camera observation is
// correlated with a proxy reading.
package worldmodel

import (
	"wheelly/control/internal/geometry"
	"wheelly/control/internal/markers"
	"wheelly/control/internal/messages"
	"wheelly/control/internal/radar"
	"wheelly/control/internal/radarmap"
)

// WorldModel is the composed, immutable snapshot handed to the user's
// inference callback.
type WorldModel struct {
	RobotStatus     messages.RobotStatus
	RadarMap        radarmap.RadarMap
	Markers         map[string]markers.LabelMarker
	PolarMap        []PolarCell
	GridMap         []radarmap.MapCell
	PrevCamera      *messages.Camera
	PrevProxy       *messages.Proxy
	WaitingForProxy bool
}

// PolarCell is one bucket of the polar derived view: direction (bucket
// centre angle) and the nearest hindered-cell distance in that bucket, or a
// non-positive distance when the bucket saw nothing.
type PolarCell struct {
	Direction geometry.Angle
	Distance  float64
}

// Model owns the evolving world state for one robot: the radar modeller,
// the marker locator, and the reconciliation bookkeeping.
type Model struct {
	topology  radarmap.GridTopology
	radarPar  radar.Params
	markerPersistence int64
	maxRadarDistance  float64

	radarMap  radarmap.RadarMap
	locator   *markers.Locator
	prevCamera *messages.Camera
	prevProxy  *messages.Proxy
	waitingForProxy bool
}

// New constructs a Model over an empty radar map.
func New(topology radarmap.GridTopology, radarPar radar.Params, markerPersistence int64, maxRadarDistance float64) *Model {
	return &Model{
		topology:          topology,
		radarPar:          radarPar,
		markerPersistence: markerPersistence,
		maxRadarDistance:  maxRadarDistance,
		radarMap:          radarmap.Empty(topology),
		locator:           markers.New(),
	}
}

// Latch integrates one status update into the working model. It runs for
// every message, never rate limited.
func (m *Model) Latch(status messages.RobotStatus) {
	mo := radar.Modeller{Params: m.radarPar}
	m.radarMap = mo.Update(m.radarMap, status)

	// With no stored proxy the previous one compares as the zero Proxy, so
	// a status that has not carried a proxy reading yet is not a change.
	var prevProxy messages.Proxy
	if m.prevProxy != nil {
		prevProxy = *m.prevProxy
	}
	cameraChanged := m.prevCamera == nil || !sameCamera(*m.prevCamera, status.Camera)
	proxyChanged := prevProxy != status.Proxy

	switch {
	case cameraChanged && !proxyChanged:
		m.storeCamera(status.Camera)
		m.waitingForProxy = true
	case cameraChanged && proxyChanged:
		m.storeCamera(status.Camera)
		m.storeProxy(status.Proxy)
		m.fuseMarker(status)
		m.waitingForProxy = false
	case !cameraChanged && proxyChanged && m.waitingForProxy:
		m.storeProxy(status.Proxy)
		m.fuseMarker(status)
		m.waitingForProxy = false
	case !cameraChanged && proxyChanged && !m.waitingForProxy:
		m.storeProxy(status.Proxy)
	}

	m.locator.Evict(status.SimulationTime, m.markerPersistence)
}

func sameCamera(a, b messages.Camera) bool {
	return a.SimTime == b.SimTime && a.QRCode == b.QRCode && a.WidthPx == b.WidthPx && a.HeightPx == b.HeightPx
}

func (m *Model) storeCamera(c messages.Camera) { cp := c; m.prevCamera = &cp }
func (m *Model) storeProxy(p messages.Proxy)   { cp := p; m.prevProxy = &cp }

func (m *Model) fuseMarker(status messages.RobotStatus) {
	if m.prevCamera == nil || m.prevProxy == nil {
		return
	}
	heading := geometry.FromDeg(status.Motion.DirectionDeg)
	location := geometry.Vec2{X: float64(status.Motion.XPulses), Y: float64(status.Motion.YPulses)}
	m.locator.Observe(*m.prevCamera, *m.prevProxy, location, heading, m.maxRadarDistance)
}

// Snapshot derives the polar/grid views and returns the composed
// WorldModel, run at most once per reaction_interval
// Inference).
func (m *Model) Snapshot(status messages.RobotStatus) WorldModel {
	return WorldModel{
		RobotStatus:     status,
		RadarMap:        m.radarMap,
		Markers:         m.locator.Markers(),
		PolarMap:        derivePolarMap(m.radarMap, status),
		GridMap:         append([]radarmap.MapCell(nil), m.radarMap.Cells...),
		PrevCamera:      m.prevCamera,
		PrevProxy:       m.prevProxy,
		WaitingForProxy: m.waitingForProxy,
	}
}

// derivePolarMap buckets every hindered cell into 360 one-degree direction
// buckets around the robot's current location, keeping the nearest
// distance seen in each bucket.
func derivePolarMap(rm radarmap.RadarMap, status messages.RobotStatus) []PolarCell {
	location := geometry.Vec2{X: float64(status.Motion.XPulses), Y: float64(status.Motion.YPulses)}
	buckets := make([]PolarCell, 360)
	for i := range buckets {
		buckets[i] = PolarCell{Direction: geometry.FromDeg(float64(i)), Distance: -1}
	}
	for _, c := range rm.Cells {
		if !c.Hindered() {
			continue
		}
		d := geometry.SubVec(c.Location, location)
		dist := geometry.NormVec(d)
		if dist == 0 {
			continue
		}
		deg := geometry.FromVec(d).ToIntDeg()
		idx := ((deg % 360) + 360) % 360
		if buckets[idx].Distance < 0 || dist < buckets[idx].Distance {
			buckets[idx].Distance = dist
		}
	}
	return buckets
}
