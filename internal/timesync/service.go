// Package timesync derives a ClockConverter from a four-timestamp
// ClockSync exchange, mapping remote microcontroller
// timestamps onto the local simulation clock and back.
package timesync

import "wheelly/control/internal/messages"

// ClockConverter is a bijection between remote microcontroller time and
// local simulation time, derived from one ClockSync round trip: host sends
// `ck <originate>`, remote replies with `ck <originate> <receive> <transmit>`
// observed locally at <destination>.
//
// The conversion follows the standard NTP-style offset estimate: the
// one-way delay is half of the round trip minus the remote's own
// processing time, and the clock offset is receive - originate minus that
// delay, applied as a constant shift (no drift compensation — the
// controller re-syncs on every reconnect).
type ClockConverter struct {
	offsetMs int64
}

// NewClockConverter derives a converter from one sync sample.
func NewClockConverter(sync messages.ClockSync) ClockConverter {
	roundTrip := (sync.Destination - sync.Originate) - (sync.Transmit - sync.Receive)
	offset := sync.Receive - sync.Originate - roundTrip/2
	return ClockConverter{offsetMs: offset}
}

// FromRemote maps a remote timestamp onto the local simulation clock.
func (c ClockConverter) FromRemote(remoteMs int64) int64 {
	return remoteMs - c.offsetMs
}

// FromSimulation maps a local simulation timestamp onto the remote clock,
// the inverse of FromRemote.
func (c ClockConverter) FromSimulation(localMs int64) int64 {
	return localMs + c.offsetMs
}

// Identity returns a converter with zero offset, used before any sync
// sample has been observed.
func Identity() ClockConverter { return ClockConverter{} }
