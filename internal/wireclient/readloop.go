package wireclient

import (
	"bufio"
	"errors"
	"net"
	"strings"
	"time"

	"wheelly/control/internal/logging"
)

// readLoop owns one socket's blocking line reads: the only legal
// suspension points outside the controller's own sleeps are confined
// here. Every inbound line bumps the watchdog's activity clock
// regardless of whether it parses.
func (c *Client) readLoop(conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		c.bumpActivity()
		c.dispatchLine(line)
	}
}

func (c *Client) dispatchLine(line string) {
	switch {
	case strings.HasPrefix(line, "mt "):
		motion, err := parseMotion(trimFields(line[3:]))
		if err != nil {
			c.reportError(err)
			return
		}
		c.recordSimTime(motion.SimTime)
		c.motionStream.Publish(motion)
	case strings.HasPrefix(line, "px "):
		proxy, err := parseProxy(trimFields(line[3:]))
		if err != nil {
			c.reportError(err)
			return
		}
		c.recordSimTime(proxy.SimTime)
		c.proxyStream.Publish(proxy)
	case strings.HasPrefix(line, "ct "):
		contacts, err := parseContacts(trimFields(line[3:]))
		if err != nil {
			c.reportError(err)
			return
		}
		c.recordSimTime(contacts.SimTime)
		c.contactsStream.Publish(contacts)
	case strings.HasPrefix(line, "ca "):
		camera, err := parseCamera(trimFields(line[3:]))
		if err != nil {
			c.reportError(err)
			return
		}
		c.recordSimTime(camera.SimTime)
		c.cameraStream.Publish(camera)
	case strings.HasPrefix(line, "ck "):
		sync, err := parseClockSync(trimFields(line[3:]))
		if err != nil {
			c.reportError(err)
			return
		}
		select {
		case c.syncs <- sync:
		default:
		}
	case strings.HasPrefix(line, "// "):
		select {
		case c.echoes <- line[3:]:
		default:
		}
	default:
		c.reportError(errMalformed(line))
	}
}

func (c *Client) recordSimTime(remoteMs int64) {
	c.mu.Lock()
	c.simTimeMs = c.converter.FromRemote(remoteMs)
	c.mu.Unlock()
}

func (c *Client) reportError(err error) {
	c.logger.Warn("wireclient: malformed line", logging.Error(err))
	c.errStream.Publish(err)
}

type malformedLineError struct{ line string }

func (e malformedLineError) Error() string { return "wireclient: unrecognised line: " + e.line }

func errMalformed(line string) error { return malformedLineError{line: line} }

// watch implements the inactivity watchdog: when now - last_activity
// exceeds watchdog_timeout, it closes both sockets, forcing the
// controller's next operation to fail and trigger a reconnect.
func (c *Client) watch() {
	defer close(c.watchdogDone)
	interval := c.cfg.WatchdogInterval
	if interval <= 0 {
		interval = time.Second
	}
	timeout := c.cfg.WatchdogTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.watchdogStop:
			return
		case <-ticker.C:
			c.mu.Lock()
			unsafe := time.Since(c.lastActivity) >= timeout
			robotConn := c.robotConn
			cameraConn := c.cameraConn
			c.mu.Unlock()
			if !unsafe {
				continue
			}
			c.logger.Warn("wireclient: watchdog inactivity, closing sockets")
			if robotConn != nil {
				robotConn.Close()
			}
			if cameraConn != nil {
				cameraConn.Close()
			}
			c.errStream.Publish(errWatchdogUnsafe)
			return
		}
	}
}

var errWatchdogUnsafe = errors.New("wireclient: watchdog inactivity timeout")
