// Package controller implements the single-threaded robot controller
// state machine (C8): it owns the one Robot in use, throttles outbound
// commands, latches every inbound message into the world model, and
// dispatches the caller's inference callback on its own schedule.
package controller

import (
	"context"
	"errors"
	"sync"
	"time"

	"wheelly/control/internal/geometry"
	"wheelly/control/internal/logging"
	"wheelly/control/internal/messages"
	"wheelly/control/internal/streams"
	"wheelly/control/internal/worldmodel"
)

// State names the controller's position in the connection lifecycle.
type State string

const (
	StateConnecting             State = "connecting"
	StateConfiguring            State = "configuring"
	StateHandlingCommands       State = "handling_commands"
	StateWaitingCommandInterval State = "waiting_command_interval"
	StateClosing                State = "closing"
	StateWaitingRetry           State = "waiting_retry"
)

// Robot is the contract both the simulated robot and the real wire driver
// satisfy; the controller never knows which one it is talking to.
type Robot interface {
	Connect() error
	Configure() error
	Halt()
	Move(direction geometry.Angle, speed float64)
	Scan(direction geometry.Angle)
	IsHalt() bool
	SimulationTime() int64
	RobotSpec() messages.RobotSpec
	Close() error
	Motion() <-chan messages.Motion
	Proxy() <-chan messages.Proxy
	Contacts() <-chan messages.Contacts
	Camera() <-chan messages.Camera
}

// CommandKind names the two throttled outbound command kinds.
type CommandKind string

const (
	CommandMove CommandKind = "move"
	CommandScan CommandKind = "scan"
)

// Command is one pending outbound instruction. Only the latest command of
// each kind is kept: a single-slot, last-write-wins pending command per
// kind rather than a queue. Move and scan slots are independent — issuing
// a scan never discards a pending move, and vice versa.
type Command struct {
	Kind      CommandKind
	Direction geometry.Angle
	Speed     float64
}

// Config bundles the tuning constants the controller state machine needs.
// CommandInterval and RetryInterval are both divided by SimulationSpeed
// before use, so a faster-than-real-time simulation drives the robot and
// reconnects proportionally faster; SimulationSpeed <= 0 is treated as 1.
type Config struct {
	CommandInterval  time.Duration
	RetryInterval    time.Duration
	ReactionInterval time.Duration
	ConfigureTimeout time.Duration
	SimulationSpeed  float64
	WatchdogInterval time.Duration
}

func (cfg Config) simSpeed() float64 {
	if cfg.SimulationSpeed <= 0 {
		return 1
	}
	return cfg.SimulationSpeed
}

func (cfg Config) scaledCommandInterval() time.Duration {
	return time.Duration(float64(cfg.CommandInterval) / cfg.simSpeed())
}

func (cfg Config) scaledRetryInterval() time.Duration {
	return time.Duration(float64(cfg.RetryInterval) / cfg.simSpeed())
}

// InferenceFunc is the caller's decision callback, invoked at most once per
// ReactionInterval with the latest composed world model; it returns the
// next command to issue, or nil to leave the pending slot untouched.
type InferenceFunc func(worldmodel.WorldModel) *Command

// Controller drives one Robot through its connection lifecycle and command
// loop.
type Controller struct {
	cfg       Config
	robot     Robot
	logger    *logging.Logger
	throttle  *Throttle
	inference InferenceFunc

	mu          sync.Mutex
	state       State
	pendingMove *Command
	pendingScan *Command

	errors *streams.Stream[error]
	world  *worldmodel.Model

	snapshotMu sync.RWMutex
	snapshot   worldmodel.WorldModel
	hasSnapshot bool
}

// New constructs a Controller around robot, latching every message into
// world and passing snapshots of it to inference.
func New(cfg Config, robot Robot, logger *logging.Logger, world *worldmodel.Model, inference InferenceFunc) *Controller {
	return &Controller{
		cfg:       cfg,
		robot:     robot,
		logger:    logger.WithComponent("controller"),
		throttle:  NewThrottle(cfg.scaledCommandInterval()),
		inference: inference,
		state:     StateConnecting,
		errors:    streams.New[error](),
		world:     world,
	}
}

// Errors exposes the controller's error stream (one of its observable
// streams).
func (c *Controller) Errors() <-chan error { return c.errors.Subscribe(16) }

// State reports the controller's current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetCommand atomically replaces the pending command of cmd's kind,
// overwriting whatever of that same kind was queued before: the only
// write path external callers use to steer the robot. A scan never
// discards a pending move, and a move never discards a pending scan —
// each kind keeps its own single slot. Never blocks.
func (c *Controller) SetCommand(cmd Command) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch cmd.Kind {
	case CommandScan:
		c.pendingScan = &cmd
	default:
		c.pendingMove = &cmd
	}
}

// Run drives the controller state machine until ctx is cancelled,
// reconnecting after a transport failure.
func (c *Controller) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			c.setState(StateClosing)
			return ctx.Err()
		default:
		}

		if err := c.runOneConnection(ctx); err != nil {
			c.errors.Publish(err)
			if errors.Is(err, context.Canceled) {
				return err
			}
		}

		c.setState(StateWaitingRetry)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.cfg.scaledRetryInterval()):
		}
	}
}

// runOneConnection carries the robot through Connecting, Configuring and
// HandlingCommands once, returning when the robot's streams close or ctx
// is cancelled.
func (c *Controller) runOneConnection(ctx context.Context) error {
	c.setState(StateConnecting)
	if err := c.robot.Connect(); err != nil {
		return err
	}

	c.setState(StateConfiguring)
	configured := make(chan error, 1)
	go func() { configured <- c.robot.Configure() }()
	select {
	case err := <-configured:
		if err != nil {
			return err
		}
	case <-time.After(c.cfg.ConfigureTimeout):
		return errConfigureTimeout
	case <-ctx.Done():
		return ctx.Err()
	}

	c.setState(StateHandlingCommands)
	c.throttle.Reset()
	return c.handleCommandsLoop(ctx)
}

var errConfigureTimeout = errors.New("controller: configuration handshake timed out")

// handleCommandsLoop merges the robot's four message streams, latches each
// into the world model, runs inference at its own interval, and executes
// the pending commands when the command interval allows it. A watchdog
// ticker independently checks for inactivity: if no message has arrived
// within WatchdogInterval, the connection is considered dead (this is the
// only backstop the simulated robot has, since it has no socket to notice
// a hang on) and the loop returns so Run reconnects.
func (c *Controller) handleCommandsLoop(ctx context.Context) error {
	motion := c.robot.Motion()
	proxy := c.robot.Proxy()
	contacts := c.robot.Contacts()
	camera := c.robot.Camera()

	var status messages.RobotStatus
	status.RobotSpec = c.robot.RobotSpec()

	reactionTicker := time.NewTicker(maxDuration(c.cfg.ReactionInterval, time.Millisecond))
	defer reactionTicker.Stop()
	commandTicker := time.NewTicker(maxDuration(c.cfg.scaledCommandInterval(), time.Millisecond))
	defer commandTicker.Stop()
	watchdogInterval := maxDuration(c.cfg.WatchdogInterval, time.Millisecond)
	watchdogTicker := time.NewTicker(watchdogInterval)
	defer watchdogTicker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case m, ok := <-motion:
			if !ok {
				return errStreamClosed
			}
			lastTick = time.Now()
			status.Motion = m
			status.SimulationTime = m.SimTime
			c.world.Latch(status)

		case p, ok := <-proxy:
			if !ok {
				return errStreamClosed
			}
			lastTick = time.Now()
			status.Proxy = p
			status.SimulationTime = p.SimTime
			c.world.Latch(status)

		case ct, ok := <-contacts:
			if !ok {
				return errStreamClosed
			}
			lastTick = time.Now()
			status.Contacts = ct
			status.SimulationTime = ct.SimTime
			c.world.Latch(status)

		case cam, ok := <-camera:
			if !ok {
				return errStreamClosed
			}
			lastTick = time.Now()
			status.Camera = cam
			status.SimulationTime = cam.SimTime
			c.world.Latch(status)

		case <-reactionTicker.C:
			c.runInference(status)

		case <-commandTicker.C:
			c.setState(StateHandlingCommands)
			c.dispatchPending()
			c.setState(StateWaitingCommandInterval)

		case <-watchdogTicker.C:
			if time.Since(lastTick) >= watchdogInterval {
				c.setState(StateClosing)
				return errNoSignals
			}
		}
	}
}

var errStreamClosed = errors.New("controller: robot message stream closed")

// errNoSignals is returned when no message has arrived on any of the
// robot's four streams within the configured watchdog interval.
var errNoSignals = errors.New("controller: no signals from robot within watchdog interval")

func (c *Controller) runInference(status messages.RobotStatus) {
	snapshot := c.world.Snapshot(status)
	c.snapshotMu.Lock()
	c.snapshot = snapshot
	c.hasSnapshot = true
	c.snapshotMu.Unlock()

	if c.inference == nil {
		return
	}
	if cmd := c.inference(snapshot); cmd != nil {
		c.SetCommand(*cmd)
	}
}

// LatestSnapshot returns the most recently computed world model, for
// diagnostic consumers that poll rather than subscribe to a stream.
func (c *Controller) LatestSnapshot() (worldmodel.WorldModel, bool) {
	c.snapshotMu.RLock()
	defer c.snapshotMu.RUnlock()
	return c.snapshot, c.hasSnapshot
}

// dispatchPending executes the pending move and the pending scan, each
// independently, if the throttle for its kind allows it: a scan due this
// tick is never blocked by a move that isn't, and vice versa. Ranges are
// validated first; a validation failure is reported on the error stream
// rather than sending a malformed command.
func (c *Controller) dispatchPending() {
	c.dispatchOne(CommandMove)
	c.dispatchOne(CommandScan)
}

func (c *Controller) dispatchOne(kind CommandKind) {
	c.mu.Lock()
	var cmd *Command
	switch kind {
	case CommandScan:
		cmd = c.pendingScan
		c.pendingScan = nil
	default:
		cmd = c.pendingMove
		c.pendingMove = nil
	}
	c.mu.Unlock()

	if cmd == nil {
		return
	}

	if !c.throttle.Allow(string(cmd.Kind)) {
		c.mu.Lock()
		switch kind {
		case CommandScan:
			if c.pendingScan == nil {
				c.pendingScan = cmd
			}
		default:
			if c.pendingMove == nil {
				c.pendingMove = cmd
			}
		}
		c.mu.Unlock()
		return
	}

	switch cmd.Kind {
	case CommandMove:
		if err := ValidateMove(cmd.Speed, c.robot.RobotSpec().MaxPPS); err != nil {
			c.errors.Publish(err)
			return
		}
		c.robot.Move(cmd.Direction, cmd.Speed)
	case CommandScan:
		if err := ValidateScan(cmd.Direction); err != nil {
			c.errors.Publish(err)
			return
		}
		c.robot.Scan(cmd.Direction)
	}
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func maxDuration(d, floor time.Duration) time.Duration {
	if d <= 0 {
		return floor
	}
	return d
}
