package controller

import (
	"errors"

	"wheelly/control/internal/geometry"
)

// ErrSpeedOutOfRange is returned when a move command's speed falls outside
// the robot's configured [0, MaxPPS] envelope.
var ErrSpeedOutOfRange = errors.New("controller: move speed out of range")

// ErrScanNotFront is returned when a scan command points outside the front
// hemisphere, which the real sensor head cannot reach.
var ErrScanNotFront = errors.New("controller: scan direction not in front hemisphere")

// ValidateMove rejects a move command whose speed is negative or exceeds
// the robot's MaxPPS.
func ValidateMove(speed, maxPPS float64) error {
	if speed < 0 || speed > maxPPS {
		return ErrSpeedOutOfRange
	}
	return nil
}

// ValidateScan rejects a scan command aimed behind the robot: the sensor
// head physically cannot turn past +/-90 degrees from forward.
func ValidateScan(direction geometry.Angle) error {
	if !direction.IsFront(0) {
		return ErrScanNotFront
	}
	return nil
}
