package radar

import (
	"wheelly/control/internal/geometry"
	"wheelly/control/internal/messages"
	"wheelly/control/internal/radarmap"
)

// Modeller wires a RadarMap through the C3 sensor-signal pipeline: proxy
// pings update echogenic/anechoic evidence, contacts imprint the bumper
// disc, and the map is cleaned on its own schedule.
type Modeller struct {
	Params Params
}

// Update folds one RobotStatus into m, in order:
// echo signal from the proxy message, contact imprint from the bumper
// flags, then the periodic clean.
func (mo Modeller) Update(m radarmap.RadarMap, status messages.RobotStatus) radarmap.RadarMap {
	t := status.SimulationTime
	spec := status.RobotSpec

	location := pulsesToLocation(status.Motion, spec.DistancePerPulse())
	heading := geometry.FromDeg(status.Motion.DirectionDeg)
	sensorDir := heading.Add(geometry.FromDeg(status.Proxy.SensorDirectionDeg))

	distance := status.Proxy.Distance()
	echo := distance > 0 && distance < spec.MaxRadarDistance

	ping := Ping{
		Q:        geometry.AddVec(location, spec.HeadLocation),
		Alpha:    sensorDir,
		Theta:    geometry.FromDeg(spec.SensorReceptiveAngle),
		Distance: distance,
		MaxRange: spec.MaxRadarDistance,
		Time:     t,
		Echo:     echo,
	}
	m = UpdateMap(m, ping, mo.Params)

	front := status.Contacts.FrontBlocked()
	rear := status.Contacts.RearBlocked()
	if front || rear {
		m = m.SetContactsAt(location, heading, front, rear, spec.ContactRadius, t)
	}

	return Clean(m, t, mo.Params)
}

// pulsesToLocation converts raw encoder pulse counts into metres, using
// distancePerPulse = pi*wheel_diameter/pulses_per_revolution (RobotSpec.
// DistancePerPulse). XPulses/YPulses arrive as raw integer pulse counts
// straight off the wire for the real driver and must never be treated as
// already being in metres.
func pulsesToLocation(mt messages.Motion, distancePerPulse float64) geometry.Vec2 {
	return geometry.Vec2{
		X: float64(mt.XPulses) * distancePerPulse,
		Y: float64(mt.YPulses) * distancePerPulse,
	}
}
