// Package wireclient implements the real-robot driver (C7): a
// line-oriented ASCII protocol over two TCP sockets (robot and camera),
// clock synchronisation, a configuration handshake, and an inactivity
// watchdog, exposing the same Robot contract the simulated robot (C6)
// implements so the controller (C8) never knows which one it is driving.
package wireclient

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"wheelly/control/internal/geometry"
	"wheelly/control/internal/logging"
	"wheelly/control/internal/messages"
	"wheelly/control/internal/streams"
	"wheelly/control/internal/timesync"
)

// Config carries the socket endpoints and handshake timings.
type Config struct {
	Host                    string
	Port                    int
	CameraHost              string
	CameraPort              int
	ConnectionRetryInterval time.Duration
	ReadTimeout             time.Duration
	ConfigureTimeout        time.Duration
	WatchdogInterval        time.Duration
	WatchdogTimeout         time.Duration
	ConfigCommands          []string
	Spec                    messages.RobotSpec
}

// Client drives the real robot over its two line-oriented sockets.
type Client struct {
	cfg        Config
	connID     string
	logger     *logging.Logger

	mu          sync.Mutex
	robotConn   net.Conn
	cameraConn  net.Conn
	robotWriter *bufio.Writer
	converter   timesync.ClockConverter
	halted      bool
	simTimeMs   int64
	lastActivity time.Time

	echoes chan string
	syncs  chan messages.ClockSync

	motionStream   *streams.Stream[messages.Motion]
	proxyStream    *streams.Stream[messages.Proxy]
	contactsStream *streams.Stream[messages.Contacts]
	cameraStream   *streams.Stream[messages.Camera]
	errStream      *streams.Stream[error]

	watchdogStop chan struct{}
	watchdogDone chan struct{}
}

// New constructs an unconnected Client.
func New(cfg Config, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.L()
	}
	return &Client{
		cfg:            cfg,
		logger:         logger.WithComponent("wireclient"),
		converter:      timesync.Identity(),
		echoes:         make(chan string, 8),
		syncs:          make(chan messages.ClockSync, 1),
		motionStream:   streams.New[messages.Motion](),
		proxyStream:    streams.New[messages.Proxy](),
		contactsStream: streams.New[messages.Contacts](),
		cameraStream:   streams.New[messages.Camera](),
		errStream:      streams.New[error](),
	}
}

// Connect dials both sockets, starts the reader and watchdog goroutines,
// and performs the clock-sync exchange.
func (c *Client) Connect() error {
	c.connID = uuid.NewString()
	robotAddr := net.JoinHostPort(c.cfg.Host, portString(c.cfg.Port))
	cameraAddr := net.JoinHostPort(c.cfg.CameraHost, portString(c.cfg.CameraPort))

	robotConn, err := net.Dial("tcp", robotAddr)
	if err != nil {
		return fmt.Errorf("dial robot %s: %w", robotAddr, err)
	}
	cameraConn, err := net.Dial("tcp", cameraAddr)
	if err != nil {
		robotConn.Close()
		return fmt.Errorf("dial camera %s: %w", cameraAddr, err)
	}
	c.logger.Info("wireclient: connected", logging.String("conn_id", c.connID), logging.String("robot_addr", robotAddr))

	c.mu.Lock()
	c.robotConn = robotConn
	c.cameraConn = cameraConn
	c.robotWriter = bufio.NewWriter(robotConn)
	c.lastActivity = time.Now()
	c.mu.Unlock()

	go c.readLoop(robotConn)
	go c.readLoop(cameraConn)

	c.watchdogStop = make(chan struct{})
	c.watchdogDone = make(chan struct{})
	go c.watch()

	return c.syncClock()
}

// syncClock sends `ck <t0>` and waits for the matching reply within
// configure_timeout, deriving a ClockConverter from the four timestamps.
func (c *Client) syncClock() error {
	originate := time.Now().UnixMilli()
	if err := c.writeLine(fmt.Sprintf("ck %d", originate)); err != nil {
		return err
	}
	timeout := c.cfg.ConfigureTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	select {
	case sync := <-c.syncs:
		if sync.Originate != originate {
			return fmt.Errorf("clock sync: unexpected originate %d, want %d", sync.Originate, originate)
		}
		sync.Destination = time.Now().UnixMilli()
		c.mu.Lock()
		c.converter = timesync.NewClockConverter(sync)
		c.mu.Unlock()
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("clock sync: no reply within %s", timeout)
	}
}

// Configure sends every configured setup command and waits for its `//
// <cmd>` echo within configure_timeout, aborting on the first miss.
func (c *Client) Configure() error {
	timeout := c.cfg.ConfigureTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	for _, cmd := range c.cfg.ConfigCommands {
		if err := c.writeLine(cmd); err != nil {
			return err
		}
		if err := c.awaitEcho(cmd, timeout); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) awaitEcho(cmd string, timeout time.Duration) error {
	deadline := time.After(timeout)
	for {
		select {
		case echoed := <-c.echoes:
			if echoed == cmd {
				return nil
			}
		case <-deadline:
			return fmt.Errorf("configure: no echo for %q within %s", cmd, timeout)
		}
	}
}

// Halt sends the halt command.
func (c *Client) Halt() {
	c.mu.Lock()
	c.halted = true
	c.mu.Unlock()
	_ = c.writeLine("ha")
}

// Move sends a move command.
func (c *Client) Move(direction geometry.Angle, speed float64) {
	c.mu.Lock()
	c.halted = false
	c.mu.Unlock()
	_ = c.writeLine(fmt.Sprintf("mv %d %d", direction.ToIntDeg(), int(speed)))
}

// Scan sends a scan command.
func (c *Client) Scan(direction geometry.Angle) {
	_ = c.writeLine(fmt.Sprintf("sc %d", direction.ToIntDeg()))
}

// IsHalt reports the last commanded halt state.
func (c *Client) IsHalt() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.halted
}

// SimulationTime returns the most recently observed remote time, mapped
// onto the local clock.
func (c *Client) SimulationTime() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.simTimeMs
}

// RobotSpec returns the configured physical-constants record.
func (c *Client) RobotSpec() messages.RobotSpec { return c.cfg.Spec }

// Close shuts down both sockets and stops the watchdog.
func (c *Client) Close() error {
	if c.watchdogStop != nil {
		close(c.watchdogStop)
		<-c.watchdogDone
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	var err error
	if c.robotConn != nil {
		if e := c.robotConn.Close(); e != nil {
			err = e
		}
	}
	if c.cameraConn != nil {
		if e := c.cameraConn.Close(); e != nil {
			err = e
		}
	}
	c.motionStream.Close()
	c.proxyStream.Close()
	c.contactsStream.Close()
	c.cameraStream.Close()
	c.errStream.Close()
	return err
}

// Motion exposes the motion message stream.
func (c *Client) Motion() <-chan messages.Motion { return c.motionStream.Subscribe(16) }

// Proxy exposes the proxy message stream.
func (c *Client) Proxy() <-chan messages.Proxy { return c.proxyStream.Subscribe(16) }

// Contacts exposes the contacts message stream.
func (c *Client) Contacts() <-chan messages.Contacts { return c.contactsStream.Subscribe(16) }

// Camera exposes the camera message stream.
func (c *Client) Camera() <-chan messages.Camera { return c.cameraStream.Subscribe(16) }

// Errors exposes the malformed-line and protocol error stream.
func (c *Client) Errors() <-chan error { return c.errStream.Subscribe(16) }

func (c *Client) writeLine(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.robotWriter == nil {
		return fmt.Errorf("wireclient: not connected")
	}
	if _, err := c.robotWriter.WriteString(line + "\n"); err != nil {
		return err
	}
	return c.robotWriter.Flush()
}

func (c *Client) bumpActivity() {
	c.mu.Lock()
	c.lastActivity = time.Now()
	c.mu.Unlock()
}

func portString(port int) string {
	return fmt.Sprintf("%d", port)
}

func trimFields(line string) []string {
	return strings.Fields(line)
}
