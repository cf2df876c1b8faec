// Package replay implements the C9 binary record codec: an exact
// little-endian, length-prefixed positional format for the replay header
// (robot spec + grid topology) followed by a stream of WorldModel and
// optional RobotCommand records, wrapped in a zstd-compressed file so the
// on-disk footprint stays small despite the format's deliberate verbosity.
package replay

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"wheelly/control/internal/geometry"
	"wheelly/control/internal/markers"
	"wheelly/control/internal/messages"
	"wheelly/control/internal/radarmap"
	"wheelly/control/internal/worldmodel"
)

// recordKind tags each record in the stream so the loader can distinguish
// a WorldModel snapshot from a RobotCommand without guessing from shape.
type recordKind byte

const (
	recordWorldModel  recordKind = 1
	recordRobotCommand recordKind = 2
)

// RobotCommand is the binary-logged counterpart of controller.Command: the
// fields the replay needs to reconstruct what was sent to the robot and
// when, independent of the controller package to avoid an import cycle.
type RobotCommand struct {
	SimTime   int64
	Kind      string
	Direction float64 // degrees
	Speed     float64
}

func writeBool(w io.Writer, v bool) error {
	b := byte(0)
	if v {
		b = 1
	}
	_, err := w.Write([]byte{b})
	return err
}

func readBool(r io.Reader) (bool, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

func writeInt32(w io.Writer, v int32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	_, err := w.Write(b[:])
	return err
}

func readInt32(r io.Reader) (int32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(b[:])), nil
}

func writeInt64(w io.Writer, v int64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	_, err := w.Write(b[:])
	return err
}

func readInt64(r io.Reader) (int64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

func writeFloat64(w io.Writer, v float64) error {
	return writeInt64(w, int64(math.Float64bits(v)))
}

func readFloat64(r io.Reader) (float64, error) {
	bits, err := readInt64(r)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(uint64(bits)), nil
}

func writeString(w io.Writer, s string) error {
	if err := writeInt32(w, int32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	n, err := readInt32(r)
	if err != nil {
		return "", err
	}
	if n < 0 {
		return "", fmt.Errorf("replay: negative string length %d", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func writeVec2(w io.Writer, v geometry.Vec2) error {
	if err := writeFloat64(w, v.X); err != nil {
		return err
	}
	return writeFloat64(w, v.Y)
}

func readVec2(r io.Reader) (geometry.Vec2, error) {
	x, err := readFloat64(r)
	if err != nil {
		return geometry.Vec2{}, err
	}
	y, err := readFloat64(r)
	if err != nil {
		return geometry.Vec2{}, err
	}
	return geometry.Vec2{X: x, Y: y}, nil
}

// writeRobotSpec encodes the first nine RobotSpec fields in declaration
// order, MaxRadarDistance through MaxPPS. WheelDiameter and
// PulsesPerRevolution are not written, so a loaded spec has them as zero.
func writeRobotSpec(w io.Writer, spec messages.RobotSpec) error {
	writers := []func() error{
		func() error { return writeFloat64(w, spec.MaxRadarDistance) },
		func() error { return writeFloat64(w, spec.ContactRadius) },
		func() error { return writeFloat64(w, spec.SensorReceptiveAngle) },
		func() error { return writeFloat64(w, spec.RobotRadius) },
		func() error { return writeFloat64(w, spec.RobotMass) },
		func() error { return writeVec2(w, spec.HeadLocation) },
		func() error { return writeVec2(w, spec.CameraOffset) },
		func() error { return writeVec2(w, spec.LidarOffset) },
		func() error { return writeFloat64(w, spec.MaxPPS) },
	}
	for _, fn := range writers {
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}

func readRobotSpec(r io.Reader) (messages.RobotSpec, error) {
	var spec messages.RobotSpec
	var err error
	if spec.MaxRadarDistance, err = readFloat64(r); err != nil {
		return spec, err
	}
	if spec.ContactRadius, err = readFloat64(r); err != nil {
		return spec, err
	}
	if spec.SensorReceptiveAngle, err = readFloat64(r); err != nil {
		return spec, err
	}
	if spec.RobotRadius, err = readFloat64(r); err != nil {
		return spec, err
	}
	if spec.RobotMass, err = readFloat64(r); err != nil {
		return spec, err
	}
	if spec.HeadLocation, err = readVec2(r); err != nil {
		return spec, err
	}
	if spec.CameraOffset, err = readVec2(r); err != nil {
		return spec, err
	}
	if spec.LidarOffset, err = readVec2(r); err != nil {
		return spec, err
	}
	if spec.MaxPPS, err = readFloat64(r); err != nil {
		return spec, err
	}
	return spec, nil
}

// writeTopology encodes a GridTopology: center, dimensions, cell size.
func writeTopology(w io.Writer, topo radarmap.GridTopology) error {
	if err := writeVec2(w, topo.Center); err != nil {
		return err
	}
	if err := writeInt32(w, int32(topo.Width)); err != nil {
		return err
	}
	if err := writeInt32(w, int32(topo.Height)); err != nil {
		return err
	}
	return writeFloat64(w, topo.GridSize)
}

func readTopology(r io.Reader) (radarmap.GridTopology, error) {
	var topo radarmap.GridTopology
	var err error
	if topo.Center, err = readVec2(r); err != nil {
		return topo, err
	}
	w, err := readInt32(r)
	if err != nil {
		return topo, err
	}
	h, err := readInt32(r)
	if err != nil {
		return topo, err
	}
	topo.Width, topo.Height = uint32(w), uint32(h)
	if topo.GridSize, err = readFloat64(r); err != nil {
		return topo, err
	}
	return topo, nil
}

// Header is the fixed preamble every replay file opens with: the robot's
// physical constants and the grid topology every WorldModel record was
// evaluated against, so a reader can allocate its own grid before seeing a
// single record.
type Header struct {
	RobotSpec messages.RobotSpec
	Topology  radarmap.GridTopology
}

func writeHeader(w io.Writer, h Header) error {
	if err := writeRobotSpec(w, h.RobotSpec); err != nil {
		return err
	}
	return writeTopology(w, h.Topology)
}

func readHeader(r io.Reader) (Header, error) {
	var h Header
	var err error
	if h.RobotSpec, err = readRobotSpec(r); err != nil {
		return h, err
	}
	if h.Topology, err = readTopology(r); err != nil {
		return h, err
	}
	return h, nil
}

// writeMotion/writeProxy/writeContacts/writeCamera encode the four message
// kinds field-for-field, in struct declaration order.

func writeMotion(w io.Writer, m messages.Motion) error {
	if err := writeInt64(w, m.SimTime); err != nil {
		return err
	}
	if err := writeInt64(w, m.XPulses); err != nil {
		return err
	}
	if err := writeInt64(w, m.YPulses); err != nil {
		return err
	}
	if err := writeFloat64(w, m.DirectionDeg); err != nil {
		return err
	}
	if err := writeFloat64(w, m.LeftPPS); err != nil {
		return err
	}
	if err := writeFloat64(w, m.RightPPS); err != nil {
		return err
	}
	if err := writeBool(w, m.IMUFailure); err != nil {
		return err
	}
	if err := writeBool(w, m.Halt); err != nil {
		return err
	}
	if err := writeFloat64(w, m.LeftTarget); err != nil {
		return err
	}
	if err := writeFloat64(w, m.RightTarget); err != nil {
		return err
	}
	if err := writeFloat64(w, m.LeftPower); err != nil {
		return err
	}
	return writeFloat64(w, m.RightPower)
}

func readMotion(r io.Reader) (messages.Motion, error) {
	var m messages.Motion
	var err error
	if m.SimTime, err = readInt64(r); err != nil {
		return m, err
	}
	if m.XPulses, err = readInt64(r); err != nil {
		return m, err
	}
	if m.YPulses, err = readInt64(r); err != nil {
		return m, err
	}
	if m.DirectionDeg, err = readFloat64(r); err != nil {
		return m, err
	}
	if m.LeftPPS, err = readFloat64(r); err != nil {
		return m, err
	}
	if m.RightPPS, err = readFloat64(r); err != nil {
		return m, err
	}
	if m.IMUFailure, err = readBool(r); err != nil {
		return m, err
	}
	if m.Halt, err = readBool(r); err != nil {
		return m, err
	}
	if m.LeftTarget, err = readFloat64(r); err != nil {
		return m, err
	}
	if m.RightTarget, err = readFloat64(r); err != nil {
		return m, err
	}
	if m.LeftPower, err = readFloat64(r); err != nil {
		return m, err
	}
	if m.RightPower, err = readFloat64(r); err != nil {
		return m, err
	}
	return m, nil
}

func writeProxy(w io.Writer, p messages.Proxy) error {
	if err := writeInt64(w, p.SimTime); err != nil {
		return err
	}
	if err := writeFloat64(w, p.SensorDirectionDeg); err != nil {
		return err
	}
	if err := writeInt64(w, p.EchoDelayUs); err != nil {
		return err
	}
	if err := writeInt64(w, p.XPulses); err != nil {
		return err
	}
	if err := writeInt64(w, p.YPulses); err != nil {
		return err
	}
	return writeFloat64(w, p.YawDeg)
}

func readProxy(r io.Reader) (messages.Proxy, error) {
	var p messages.Proxy
	var err error
	if p.SimTime, err = readInt64(r); err != nil {
		return p, err
	}
	if p.SensorDirectionDeg, err = readFloat64(r); err != nil {
		return p, err
	}
	if p.EchoDelayUs, err = readInt64(r); err != nil {
		return p, err
	}
	if p.XPulses, err = readInt64(r); err != nil {
		return p, err
	}
	if p.YPulses, err = readInt64(r); err != nil {
		return p, err
	}
	if p.YawDeg, err = readFloat64(r); err != nil {
		return p, err
	}
	return p, nil
}

func writeContacts(w io.Writer, c messages.Contacts) error {
	if err := writeInt64(w, c.SimTime); err != nil {
		return err
	}
	if err := writeBool(w, c.FrontSensor); err != nil {
		return err
	}
	if err := writeBool(w, c.RearSensor); err != nil {
		return err
	}
	if err := writeBool(w, c.CanMoveForward); err != nil {
		return err
	}
	return writeBool(w, c.CanMoveBackward)
}

func readContacts(r io.Reader) (messages.Contacts, error) {
	var c messages.Contacts
	var err error
	if c.SimTime, err = readInt64(r); err != nil {
		return c, err
	}
	if c.FrontSensor, err = readBool(r); err != nil {
		return c, err
	}
	if c.RearSensor, err = readBool(r); err != nil {
		return c, err
	}
	if c.CanMoveForward, err = readBool(r); err != nil {
		return c, err
	}
	if c.CanMoveBackward, err = readBool(r); err != nil {
		return c, err
	}
	return c, nil
}

func writeCamera(w io.Writer, c messages.Camera) error {
	if err := writeInt64(w, c.SimTime); err != nil {
		return err
	}
	if err := writeString(w, c.QRCode); err != nil {
		return err
	}
	if err := writeInt32(w, int32(c.WidthPx)); err != nil {
		return err
	}
	if err := writeInt32(w, int32(c.HeightPx)); err != nil {
		return err
	}
	if err := writeInt32(w, int32(len(c.Points))); err != nil {
		return err
	}
	for _, p := range c.Points {
		if err := writeFloat64(w, p.X); err != nil {
			return err
		}
		if err := writeFloat64(w, p.Y); err != nil {
			return err
		}
	}
	return nil
}

func readCamera(r io.Reader) (messages.Camera, error) {
	var c messages.Camera
	var err error
	if c.SimTime, err = readInt64(r); err != nil {
		return c, err
	}
	if c.QRCode, err = readString(r); err != nil {
		return c, err
	}
	w32, err := readInt32(r)
	if err != nil {
		return c, err
	}
	h32, err := readInt32(r)
	if err != nil {
		return c, err
	}
	c.WidthPx, c.HeightPx = int(w32), int(h32)
	n, err := readInt32(r)
	if err != nil {
		return c, err
	}
	if n < 0 {
		return c, fmt.Errorf("replay: negative point count %d", n)
	}
	c.Points = make([]messages.CameraPoint, n)
	for i := range c.Points {
		if c.Points[i].X, err = readFloat64(r); err != nil {
			return c, err
		}
		if c.Points[i].Y, err = readFloat64(r); err != nil {
			return c, err
		}
	}
	return c, nil
}

// writeWorldModel encodes the robot status plus the derived marker map; the
// radar grid and polar map are not persisted, so a loaded WorldModel has
// neither, keeping the binary format proportional to observed state
// rather than every derived view.
func writeWorldModel(w io.Writer, wm worldmodel.WorldModel) error {
	if err := writeInt64(w, wm.RobotStatus.SimulationTime); err != nil {
		return err
	}
	if err := writeMotion(w, wm.RobotStatus.Motion); err != nil {
		return err
	}
	if err := writeProxy(w, wm.RobotStatus.Proxy); err != nil {
		return err
	}
	if err := writeContacts(w, wm.RobotStatus.Contacts); err != nil {
		return err
	}
	if err := writeCamera(w, wm.RobotStatus.Camera); err != nil {
		return err
	}
	if err := writeInt32(w, int32(len(wm.Markers))); err != nil {
		return err
	}
	for label, marker := range wm.Markers {
		if err := writeString(w, label); err != nil {
			return err
		}
		if err := writeMarker(w, marker); err != nil {
			return err
		}
	}
	return nil
}

func readWorldModel(r io.Reader) (worldmodel.WorldModel, error) {
	var wm worldmodel.WorldModel
	var err error
	if wm.RobotStatus.SimulationTime, err = readInt64(r); err != nil {
		return wm, err
	}
	if wm.RobotStatus.Motion, err = readMotion(r); err != nil {
		return wm, err
	}
	if wm.RobotStatus.Proxy, err = readProxy(r); err != nil {
		return wm, err
	}
	if wm.RobotStatus.Contacts, err = readContacts(r); err != nil {
		return wm, err
	}
	if wm.RobotStatus.Camera, err = readCamera(r); err != nil {
		return wm, err
	}
	n, err := readInt32(r)
	if err != nil {
		return wm, err
	}
	if n < 0 {
		return wm, fmt.Errorf("replay: negative marker count %d", n)
	}
	wm.Markers = make(map[string]markers.LabelMarker, n)
	for i := int32(0); i < n; i++ {
		label, err := readString(r)
		if err != nil {
			return wm, err
		}
		marker, err := readMarker(r)
		if err != nil {
			return wm, err
		}
		wm.Markers[label] = marker
	}
	return wm, nil
}

func writeMarker(w io.Writer, m markers.LabelMarker) error {
	if err := writeString(w, m.Label); err != nil {
		return err
	}
	if err := writeVec2(w, m.Location); err != nil {
		return err
	}
	if err := writeFloat64(w, m.Weight); err != nil {
		return err
	}
	if err := writeInt64(w, m.MarkerTime); err != nil {
		return err
	}
	return writeInt64(w, m.CleanTime)
}

func readMarker(r io.Reader) (markers.LabelMarker, error) {
	var m markers.LabelMarker
	var err error
	if m.Label, err = readString(r); err != nil {
		return m, err
	}
	if m.Location, err = readVec2(r); err != nil {
		return m, err
	}
	if m.Weight, err = readFloat64(r); err != nil {
		return m, err
	}
	if m.MarkerTime, err = readInt64(r); err != nil {
		return m, err
	}
	if m.CleanTime, err = readInt64(r); err != nil {
		return m, err
	}
	return m, nil
}

func writeRobotCommand(w io.Writer, c RobotCommand) error {
	if err := writeInt64(w, c.SimTime); err != nil {
		return err
	}
	if err := writeString(w, c.Kind); err != nil {
		return err
	}
	if err := writeFloat64(w, c.Direction); err != nil {
		return err
	}
	return writeFloat64(w, c.Speed)
}

func readRobotCommand(r io.Reader) (RobotCommand, error) {
	var c RobotCommand
	var err error
	if c.SimTime, err = readInt64(r); err != nil {
		return c, err
	}
	if c.Kind, err = readString(r); err != nil {
		return c, err
	}
	if c.Direction, err = readFloat64(r); err != nil {
		return c, err
	}
	if c.Speed, err = readFloat64(r); err != nil {
		return c, err
	}
	return c, nil
}
