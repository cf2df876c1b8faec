// Package messages defines the value types exchanged between the robot (real
// or simulated) and the controller: the four timed message kinds, the clock
// sync tuple, and the RobotSpec the rest of the system treats as a shared
// physical-constants record. None of these types carry back-references;
// every message is a plain value.
package messages

import (
	"math"

	"wheelly/control/internal/geometry"
)

// RobotSpec is the authoritative physical-constants record; shorter
// 2-field/3-field variants seen in earlier iterations of the wire protocol
// are not supported here.
type RobotSpec struct {
	MaxRadarDistance     float64
	ContactRadius        float64
	SensorReceptiveAngle float64 // degrees, half-angle
	RobotRadius          float64
	RobotMass            float64
	HeadLocation         geometry.Vec2
	CameraOffset         geometry.Vec2
	LidarOffset          geometry.Vec2
	MaxPPS               float64
	WheelDiameter        float64 // metres
	PulsesPerRevolution  float64
}

// DistancePerPulse converts one encoder pulse into metres of travel:
// pi*wheel_diameter / pulses_per_revolution, the wheel's circumference
// divided evenly across one revolution's pulse count.
func (s RobotSpec) DistancePerPulse() float64 {
	if s.PulsesPerRevolution == 0 {
		return 1
	}
	return math.Pi * s.WheelDiameter / s.PulsesPerRevolution
}

// SupplyDecoder is the two-point linear decoder for the battery ADC:
// Values[i] reads as Voltages[i].
type SupplyDecoder struct {
	Values   [2]float64
	Voltages [2]float64
}

// Decode converts a raw ADC reading into a voltage via linear interpolation
// between the two configured points.
func (d SupplyDecoder) Decode(raw float64) float64 {
	if d.Values[1] == d.Values[0] {
		return d.Voltages[0]
	}
	slope := (d.Voltages[1] - d.Voltages[0]) / (d.Values[1] - d.Values[0])
	return d.Voltages[0] + slope*(raw-d.Values[0])
}

// Motion reports odometry and motor state.
type Motion struct {
	SimTime     int64
	XPulses     int64
	YPulses     int64
	DirectionDeg float64
	LeftPPS     float64
	RightPPS    float64
	IMUFailure  bool
	Halt        bool
	LeftTarget  float64
	RightTarget float64
	LeftPower   float64
	RightPower  float64
}

// Proxy is a ranged echo ping.
type Proxy struct {
	SimTime         int64
	SensorDirectionDeg float64
	EchoDelayUs     int64
	XPulses         int64
	YPulses         int64
	YawDeg          float64
}

// DistanceScale converts an echo delay (microseconds) into metres.
const DistanceScale = 340.29 / 2 / 1e6 // speed of sound (340.29 m/s) halved for the round trip, in metres per microsecond

// Distance returns the range implied by the echo delay.
func (p Proxy) Distance() float64 {
	return float64(p.EchoDelayUs) * DistanceScale
}

// Contacts reports bumper state. Sensors are "clear" when true, in both
// the wire protocol and the simulator.
type Contacts struct {
	SimTime         int64
	FrontSensor     bool
	RearSensor      bool
	CanMoveForward  bool
	CanMoveBackward bool
}

// FrontBlocked reports whether the front bumper is asserted (obstacle
// contact), i.e. the sensor is not clear.
func (c Contacts) FrontBlocked() bool { return !c.FrontSensor }

// RearBlocked reports whether the rear bumper is asserted.
func (c Contacts) RearBlocked() bool { return !c.RearSensor }

// UnknownQRCode is the sentinel camera payload meaning "nothing recognised".
const UnknownQRCode = "?"

// CameraPoint is one corner of a recognised QR code's bounding quadrilateral.
type CameraPoint struct{ X, Y float64 }

// Camera reports a QR-code recognition event.
type Camera struct {
	SimTime  int64
	QRCode   string
	WidthPx  int
	HeightPx int
	Points   []CameraPoint
}

// Recognised reports whether the event names an actual marker.
func (c Camera) Recognised() bool { return c.QRCode != "" && c.QRCode != UnknownQRCode }

// ClockSync is the four-timestamp tuple used to derive a ClockConverter:
// Originate/Destination are host clocks (request sent, reply seen),
// Receive/Transmit are remote clocks (request seen, reply sent).
type ClockSync struct {
	Originate   int64
	Receive     int64
	Transmit    int64
	Destination int64
}

// RobotStatus is the robot's latest known state, updated monotonically in
// SimulationTime: consecutive statuses for the same robot must never carry
// a decreasing SimulationTime.
type RobotStatus struct {
	RobotSpec      RobotSpec
	SimulationTime int64
	Motion         Motion
	Proxy          Proxy
	Contacts       Contacts
	Camera         Camera
	CameraProxy    Proxy
	SupplyDecoder  SupplyDecoder
}

