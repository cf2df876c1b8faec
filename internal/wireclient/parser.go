package wireclient

import (
	"fmt"
	"strconv"

	"wheelly/control/internal/messages"
)

// parseMotion decodes a `mt` line's 14 space-separated fields into a
// Motion message. move_dir and move_speed (fields 9-10) echo the last
// commanded move and have no home in messages.Motion; they are validated
// for field-count purposes only and otherwise discarded.
func parseMotion(fields []string) (messages.Motion, error) {
	if len(fields) != 14 {
		return messages.Motion{}, fmt.Errorf("mt: expected 14 fields, got %d", len(fields))
	}
	simTime, err := parseInt64(fields[0])
	if err != nil {
		return messages.Motion{}, err
	}
	xPulses, err := parseInt64(fields[1])
	if err != nil {
		return messages.Motion{}, err
	}
	yPulses, err := parseInt64(fields[2])
	if err != nil {
		return messages.Motion{}, err
	}
	yawDeg, err := parseFloat(fields[3])
	if err != nil {
		return messages.Motion{}, err
	}
	leftPPS, err := parseFloat(fields[4])
	if err != nil {
		return messages.Motion{}, err
	}
	rightPPS, err := parseFloat(fields[5])
	if err != nil {
		return messages.Motion{}, err
	}
	imuFailure, err := parseBool(fields[6])
	if err != nil {
		return messages.Motion{}, err
	}
	halt, err := parseBool(fields[7])
	if err != nil {
		return messages.Motion{}, err
	}
	leftTarget, err := parseFloat(fields[10])
	if err != nil {
		return messages.Motion{}, err
	}
	rightTarget, err := parseFloat(fields[11])
	if err != nil {
		return messages.Motion{}, err
	}
	leftPower, err := parseFloat(fields[12])
	if err != nil {
		return messages.Motion{}, err
	}
	rightPower, err := parseFloat(fields[13])
	if err != nil {
		return messages.Motion{}, err
	}
	return messages.Motion{
		SimTime:      simTime,
		XPulses:      xPulses,
		YPulses:      yPulses,
		DirectionDeg: yawDeg,
		LeftPPS:      leftPPS,
		RightPPS:     rightPPS,
		IMUFailure:   imuFailure,
		Halt:         halt,
		LeftTarget:   leftTarget,
		RightTarget:  rightTarget,
		LeftPower:    leftPower,
		RightPower:   rightPower,
	}, nil
}

// parseProxy decodes a `px` line's 6 fields.
func parseProxy(fields []string) (messages.Proxy, error) {
	if len(fields) != 6 {
		return messages.Proxy{}, fmt.Errorf("px: expected 6 fields, got %d", len(fields))
	}
	simTime, err := parseInt64(fields[0])
	if err != nil {
		return messages.Proxy{}, err
	}
	sensorDir, err := parseFloat(fields[1])
	if err != nil {
		return messages.Proxy{}, err
	}
	echoDelay, err := parseInt64(fields[2])
	if err != nil {
		return messages.Proxy{}, err
	}
	xPulses, err := parseInt64(fields[3])
	if err != nil {
		return messages.Proxy{}, err
	}
	yPulses, err := parseInt64(fields[4])
	if err != nil {
		return messages.Proxy{}, err
	}
	yawDeg, err := parseFloat(fields[5])
	if err != nil {
		return messages.Proxy{}, err
	}
	return messages.Proxy{
		SimTime:            simTime,
		SensorDirectionDeg: sensorDir,
		EchoDelayUs:        echoDelay,
		XPulses:            xPulses,
		YPulses:            yPulses,
		YawDeg:             yawDeg,
	}, nil
}

// parseContacts decodes a `ct` line's 5 fields.
func parseContacts(fields []string) (messages.Contacts, error) {
	if len(fields) != 5 {
		return messages.Contacts{}, fmt.Errorf("ct: expected 5 fields, got %d", len(fields))
	}
	simTime, err := parseInt64(fields[0])
	if err != nil {
		return messages.Contacts{}, err
	}
	front, err := parseBool(fields[1])
	if err != nil {
		return messages.Contacts{}, err
	}
	rear, err := parseBool(fields[2])
	if err != nil {
		return messages.Contacts{}, err
	}
	fwd, err := parseBool(fields[3])
	if err != nil {
		return messages.Contacts{}, err
	}
	back, err := parseBool(fields[4])
	if err != nil {
		return messages.Contacts{}, err
	}
	return messages.Contacts{
		SimTime:         simTime,
		FrontSensor:     front,
		RearSensor:      rear,
		CanMoveForward:  fwd,
		CanMoveBackward: back,
	}, nil
}

// parseCamera decodes a `ca` line's 4 fields: sim_ms, qr_code, width_px,
// height_px. The corner points the wire protocol sometimes appends are not
// part of this fixed schema; callers needing the quadrilateral corners
// must get them from a richer upstream feed.
func parseCamera(fields []string) (messages.Camera, error) {
	if len(fields) != 4 {
		return messages.Camera{}, fmt.Errorf("ca: expected 4 fields, got %d", len(fields))
	}
	simTime, err := parseInt64(fields[0])
	if err != nil {
		return messages.Camera{}, err
	}
	width, err := strconv.Atoi(fields[2])
	if err != nil {
		return messages.Camera{}, fmt.Errorf("ca: invalid width_px %q", fields[2])
	}
	height, err := strconv.Atoi(fields[3])
	if err != nil {
		return messages.Camera{}, fmt.Errorf("ca: invalid height_px %q", fields[3])
	}
	return messages.Camera{
		SimTime:  simTime,
		QRCode:   fields[1],
		WidthPx:  width,
		HeightPx: height,
	}, nil
}

// parseClockSync decodes a `ck <t0> <t_recv> <t_send>` reply line.
func parseClockSync(fields []string) (messages.ClockSync, error) {
	if len(fields) != 3 {
		return messages.ClockSync{}, fmt.Errorf("ck: expected 3 fields, got %d", len(fields))
	}
	originate, err := parseInt64(fields[0])
	if err != nil {
		return messages.ClockSync{}, err
	}
	receive, err := parseInt64(fields[1])
	if err != nil {
		return messages.ClockSync{}, err
	}
	transmit, err := parseInt64(fields[2])
	if err != nil {
		return messages.ClockSync{}, err
	}
	return messages.ClockSync{Originate: originate, Receive: receive, Transmit: transmit}, nil
}

func parseInt64(s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	return v, nil
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}

func parseBool(s string) (bool, error) {
	switch s {
	case "1", "true":
		return true, nil
	case "0", "false":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean %q", s)
	}
}
