package wireclient

import "testing"

func TestParseMotion(t *testing.T) {
	fields := trimFields("1000 5 -2 30.0 10.0 10.0 0 0 0 30.0 10.0 10.0 5.0 5.0")
	motion, err := parseMotion(fields)
	if err != nil {
		t.Fatalf("parseMotion: %v", err)
	}
	if motion.SimTime != 1000 || motion.XPulses != 5 || motion.YPulses != -2 {
		t.Fatalf("unexpected motion: %+v", motion)
	}
	if motion.DirectionDeg != 30.0 {
		t.Fatalf("expected DirectionDeg 30.0, got %v", motion.DirectionDeg)
	}
}

func TestParseMotionRejectsWrongFieldCount(t *testing.T) {
	if _, err := parseMotion(trimFields("1000 5 -2")); err == nil {
		t.Fatalf("expected error for short mt line")
	}
}

func TestParseProxy(t *testing.T) {
	proxy, err := parseProxy(trimFields("100 0 1700 0 0 0"))
	if err != nil {
		t.Fatalf("parseProxy: %v", err)
	}
	if proxy.EchoDelayUs != 1700 {
		t.Fatalf("expected echo delay 1700, got %d", proxy.EchoDelayUs)
	}
}

func TestParseContacts(t *testing.T) {
	contacts, err := parseContacts(trimFields("1000 0 1 1 0"))
	if err != nil {
		t.Fatalf("parseContacts: %v", err)
	}
	if contacts.FrontSensor || !contacts.RearSensor {
		t.Fatalf("unexpected contacts: %+v", contacts)
	}
	if !contacts.FrontBlocked() {
		t.Fatalf("expected front blocked since FrontSensor is false")
	}
}

func TestParseCameraRejectsMissingFields(t *testing.T) {
	if _, err := parseCamera(trimFields("100 A")); err == nil {
		t.Fatalf("expected error for short ca line")
	}
}

func TestParseClockSync(t *testing.T) {
	sync, err := parseClockSync(trimFields("1000 1500 1510"))
	if err != nil {
		t.Fatalf("parseClockSync: %v", err)
	}
	if sync.Originate != 1000 || sync.Receive != 1500 || sync.Transmit != 1510 {
		t.Fatalf("unexpected sync: %+v", sync)
	}
}
