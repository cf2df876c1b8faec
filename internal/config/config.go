// Package config loads Wheelly's runtime configuration from environment
// variables, following the same accumulated-"problems" validation pattern
// used throughout this codebase: every malformed override is collected and
// reported together rather than failing on the first one.
package config

import (
	"encoding/json"
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"wheelly/control/internal/geometry"
	"wheelly/control/internal/messages"
)

const (
	DefaultHost       = "127.0.0.1"
	DefaultPort       = 8080
	DefaultCameraPort = 8100

	DefaultConnectionRetryInterval = 3 * time.Second
	DefaultReadTimeout              = 3 * time.Second
	DefaultConfigureTimeout         = 5 * time.Second
	DefaultWatchdogInterval         = 1 * time.Second
	DefaultWatchdogTimeout          = 5 * time.Second
	DefaultInterval                 = 100 * time.Millisecond
	DefaultReactionInterval         = 300 * time.Millisecond
	DefaultCommandInterval          = 600 * time.Millisecond
	DefaultSimulationSpeed          = 1.0

	DefaultRadarWidth  = 51
	DefaultRadarHeight = 51
	DefaultRadarGrid   = 0.2

	DefaultRadarCleanInterval   = 30_000
	DefaultEchoPersistence      = 60_000
	DefaultContactPersistence   = 60_000
	DefaultDecay                = 10_000.0
	DefaultMarkerPersistence    = 10_000

	// DefaultLogLevel controls verbosity for wheelly logs.
	DefaultLogLevel = "info"
	// DefaultLogPath is where structured logs are written.
	DefaultLogPath = "wheelly.log"
	// DefaultLogMaxSizeMB caps the size of a single log file before rotation.
	DefaultLogMaxSizeMB = 100
	// DefaultLogMaxBackups limits retained rotated log files.
	DefaultLogMaxBackups = 10
	// DefaultLogMaxAgeDays controls how long rotated log files are kept on disk.
	DefaultLogMaxAgeDays = 7
	// DefaultLogCompress toggles gzip compression for rotated log files.
	DefaultLogCompress = true

	DefaultListenAddress = ":8090"
	DefaultRobotMode     = "simulated"

	DefaultSimMaxAngularSpeed   = 90.0
	DefaultSimSafeDistance      = 0.2
	DefaultSimObstacleSize      = 0.3
	DefaultSimStalemateInterval = 10_000
	DefaultSimErrSigma          = 0.05
	DefaultSimErrSensor         = 0.02
	DefaultSimMotionInterval    = 200
	DefaultSimProxyInterval     = 500
	DefaultSimCameraInterval    = 1000
	DefaultSimSeed              = 1
	DefaultSimArenaHalfSize     = 3.0

	DefaultReplayDirectory     = "replays"
	DefaultReplayMaxMatches    = 50
	DefaultReplaySweepInterval = time.Hour
)

//go:embed default_robot.json
var defaultRobotSpecJSON []byte

// WireConfig describes the two TCP endpoints and the handshake timing used
// to talk to the real robot.
type WireConfig struct {
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
}

// ControllerConfig carries the C8 scheduling tunables.
type ControllerConfig struct {
	Interval         time.Duration
	ReactionInterval time.Duration
	CommandInterval  time.Duration
	SimulationSpeed  float64
	WatchdogInterval time.Duration
}

// RadarConfig carries the grid topology plus the C3 modeller parameters.
type RadarConfig struct {
	Width              uint32
	Height             uint32
	GridSize           float64
	CleanInterval      int64
	EchoPersistence    int64
	ContactPersistence int64
	Decay              float64
	MarkerPersistence  int64
}

// LoggingConfig captures structured logging configuration options.
type LoggingConfig struct {
	Level      string
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// SimConfig carries the C6 rigid-body tuning constants, used only when
// Config.RobotMode is "simulated".
type SimConfig struct {
	MaxAngularSpeed   float64
	SafeDistance      float64
	ObstacleSize      float64
	StalemateInterval int64
	ErrSigma          float64
	ErrSensor         float64
	MotionInterval    int64
	ProxyInterval     int64
	CameraInterval    int64
	Seed              uint64
	ArenaHalfSize     float64
}

// ReplayConfig controls where replay records land and how long they are
// retained on disk.
type ReplayConfig struct {
	Directory      string
	MaxMatches     int
	MaxAge         time.Duration
	SweepInterval  time.Duration
}

// Config captures every runtime tunable the control plane exposes, plus the
// ambient options layered on top for the standalone binary (listen address,
// robot mode, simulation tuning, replay retention).
type Config struct {
	Wire         WireConfig
	Controller   ControllerConfig
	Radar        RadarConfig
	Robot        messages.RobotSpec
	Supply       messages.SupplyDecoder
	Logging      LoggingConfig
	Sim          SimConfig
	Replay       ReplayConfig
	AdminToken   string
	RobotMode    string
	ListenAddress string
}

func defaultRobotSpec() (messages.RobotSpec, error) {
	var spec messages.RobotSpec
	if err := json.Unmarshal(defaultRobotSpecJSON, &spec); err != nil {
		return messages.RobotSpec{}, fmt.Errorf("decode embedded default_robot.json: %w", err)
	}
	return spec, nil
}

// Load reads configuration from environment variables, applying the
// defaults above, and returning one joined error naming every problem
// found.
func Load() (*Config, error) {
	robot, err := defaultRobotSpec()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Wire: WireConfig{
			Host:                    getString("WHEELLY_HOST", DefaultHost),
			Port:                    DefaultPort,
			CameraHost:              getString("WHEELLY_CAMERA_HOST", DefaultHost),
			CameraPort:              DefaultCameraPort,
			ConnectionRetryInterval: DefaultConnectionRetryInterval,
			ReadTimeout:             DefaultReadTimeout,
			ConfigureTimeout:        DefaultConfigureTimeout,
			WatchdogInterval:        DefaultWatchdogInterval,
			WatchdogTimeout:         DefaultWatchdogTimeout,
			ConfigCommands:          parseList(os.Getenv("WHEELLY_CONFIG_COMMANDS")),
		},
		Controller: ControllerConfig{
			Interval:         DefaultInterval,
			ReactionInterval: DefaultReactionInterval,
			CommandInterval:  DefaultCommandInterval,
			SimulationSpeed:  DefaultSimulationSpeed,
			WatchdogInterval: DefaultWatchdogInterval,
		},
		Radar: RadarConfig{
			Width:              DefaultRadarWidth,
			Height:             DefaultRadarHeight,
			GridSize:           DefaultRadarGrid,
			CleanInterval:      DefaultRadarCleanInterval,
			EchoPersistence:    DefaultEchoPersistence,
			ContactPersistence: DefaultContactPersistence,
			Decay:              DefaultDecay,
			MarkerPersistence:  DefaultMarkerPersistence,
		},
		Robot:         robot,
		AdminToken:    strings.TrimSpace(os.Getenv("WHEELLY_ADMIN_TOKEN")),
		RobotMode:     getString("WHEELLY_ROBOT_MODE", DefaultRobotMode),
		ListenAddress: getString("WHEELLY_LISTEN_ADDRESS", DefaultListenAddress),
		Logging: LoggingConfig{
			Level:      getString("WHEELLY_LOG_LEVEL", DefaultLogLevel),
			Path:       getString("WHEELLY_LOG_PATH", DefaultLogPath),
			MaxSizeMB:  DefaultLogMaxSizeMB,
			MaxBackups: DefaultLogMaxBackups,
			MaxAgeDays: DefaultLogMaxAgeDays,
			Compress:   DefaultLogCompress,
		},
		Sim: SimConfig{
			MaxAngularSpeed:   DefaultSimMaxAngularSpeed,
			SafeDistance:      DefaultSimSafeDistance,
			ObstacleSize:      DefaultSimObstacleSize,
			StalemateInterval: DefaultSimStalemateInterval,
			ErrSigma:          DefaultSimErrSigma,
			ErrSensor:         DefaultSimErrSensor,
			MotionInterval:    DefaultSimMotionInterval,
			ProxyInterval:     DefaultSimProxyInterval,
			CameraInterval:    DefaultSimCameraInterval,
			Seed:              DefaultSimSeed,
			ArenaHalfSize:     DefaultSimArenaHalfSize,
		},
		Replay: ReplayConfig{
			Directory:     getString("WHEELLY_REPLAY_DIR", DefaultReplayDirectory),
			MaxMatches:    DefaultReplayMaxMatches,
			SweepInterval: DefaultReplaySweepInterval,
		},
	}

	var problems []string
	str := func(key string, dst *string) {
		if raw := strings.TrimSpace(os.Getenv(key)); raw != "" {
			*dst = raw
		}
	}
	intVal := func(key string, dst *int) {
		if raw := strings.TrimSpace(os.Getenv(key)); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil {
				problems = append(problems, fmt.Sprintf("%s must be an integer, got %q", key, raw))
				return
			}
			*dst = v
		}
	}
	uintVal := func(key string, dst *uint32) {
		if raw := strings.TrimSpace(os.Getenv(key)); raw != "" {
			v, err := strconv.ParseUint(raw, 10, 32)
			if err != nil {
				problems = append(problems, fmt.Sprintf("%s must be a non-negative integer, got %q", key, raw))
				return
			}
			*dst = uint32(v)
		}
	}
	int64Val := func(key string, dst *int64) {
		if raw := strings.TrimSpace(os.Getenv(key)); raw != "" {
			v, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				problems = append(problems, fmt.Sprintf("%s must be an integer, got %q", key, raw))
				return
			}
			*dst = v
		}
	}
	floatVal := func(key string, dst *float64) {
		if raw := strings.TrimSpace(os.Getenv(key)); raw != "" {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				problems = append(problems, fmt.Sprintf("%s must be a number, got %q", key, raw))
				return
			}
			*dst = v
		}
	}
	durMs := func(key string, dst *time.Duration) {
		if raw := strings.TrimSpace(os.Getenv(key)); raw != "" {
			v, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || v <= 0 {
				problems = append(problems, fmt.Sprintf("%s must be a positive integer (ms), got %q", key, raw))
				return
			}
			*dst = time.Duration(v) * time.Millisecond
		}
	}

	str("WHEELLY_HOST", &cfg.Wire.Host)
	intVal("WHEELLY_PORT", &cfg.Wire.Port)
	str("WHEELLY_CAMERA_HOST", &cfg.Wire.CameraHost)
	intVal("WHEELLY_CAMERA_PORT", &cfg.Wire.CameraPort)
	durMs("WHEELLY_CONNECTION_RETRY_INTERVAL", &cfg.Wire.ConnectionRetryInterval)
	durMs("WHEELLY_READ_TIMEOUT", &cfg.Wire.ReadTimeout)
	durMs("WHEELLY_CONFIGURE_TIMEOUT", &cfg.Wire.ConfigureTimeout)
	durMs("WHEELLY_WATCHDOG_INTERVAL", &cfg.Wire.WatchdogInterval)
	durMs("WHEELLY_WATCHDOG_TIMEOUT", &cfg.Wire.WatchdogTimeout)

	durMs("WHEELLY_INTERVAL", &cfg.Controller.Interval)
	durMs("WHEELLY_REACTION_INTERVAL", &cfg.Controller.ReactionInterval)
	durMs("WHEELLY_COMMAND_INTERVAL", &cfg.Controller.CommandInterval)
	floatVal("WHEELLY_SIMULATION_SPEED", &cfg.Controller.SimulationSpeed)
	durMs("WHEELLY_CONTROLLER_WATCHDOG_INTERVAL", &cfg.Controller.WatchdogInterval)

	uintVal("WHEELLY_RADAR_WIDTH", &cfg.Radar.Width)
	uintVal("WHEELLY_RADAR_HEIGHT", &cfg.Radar.Height)
	floatVal("WHEELLY_RADAR_GRID", &cfg.Radar.GridSize)
	int64Val("WHEELLY_RADAR_CLEAN_INTERVAL", &cfg.Radar.CleanInterval)
	int64Val("WHEELLY_ECHO_PERSISTENCE", &cfg.Radar.EchoPersistence)
	int64Val("WHEELLY_CONTACT_PERSISTENCE", &cfg.Radar.ContactPersistence)
	floatVal("WHEELLY_DECAY", &cfg.Radar.Decay)

	floatVal("WHEELLY_MAX_RADAR_DISTANCE", &cfg.Robot.MaxRadarDistance)
	floatVal("WHEELLY_CONTACT_RADIUS", &cfg.Robot.ContactRadius)
	floatVal("WHEELLY_SENSOR_RECEPTIVE_ANGLE", &cfg.Robot.SensorReceptiveAngle)
	floatVal("WHEELLY_WHEEL_DIAMETER", &cfg.Robot.WheelDiameter)
	floatVal("WHEELLY_PULSES_PER_REVOLUTION", &cfg.Robot.PulsesPerRevolution)

	if raw := strings.TrimSpace(os.Getenv("WHEELLY_SUPPLY_VALUES")); raw != "" {
		vals, err := parseFloatPair(raw)
		if err != nil {
			problems = append(problems, fmt.Sprintf("WHEELLY_SUPPLY_VALUES: %v", err))
		} else {
			cfg.Supply.Values = vals
		}
	}
	if raw := strings.TrimSpace(os.Getenv("WHEELLY_VOLTAGES")); raw != "" {
		vals, err := parseFloatPair(raw)
		if err != nil {
			problems = append(problems, fmt.Sprintf("WHEELLY_VOLTAGES: %v", err))
		} else {
			cfg.Supply.Voltages = vals
		}
	}

	str("WHEELLY_ROBOT_MODE", &cfg.RobotMode)
	str("WHEELLY_LISTEN_ADDRESS", &cfg.ListenAddress)

	floatVal("WHEELLY_SIM_MAX_ANGULAR_SPEED", &cfg.Sim.MaxAngularSpeed)
	floatVal("WHEELLY_SIM_SAFE_DISTANCE", &cfg.Sim.SafeDistance)
	floatVal("WHEELLY_SIM_OBSTACLE_SIZE", &cfg.Sim.ObstacleSize)
	int64Val("WHEELLY_SIM_STALEMATE_INTERVAL", &cfg.Sim.StalemateInterval)
	floatVal("WHEELLY_SIM_ERR_SIGMA", &cfg.Sim.ErrSigma)
	floatVal("WHEELLY_SIM_ERR_SENSOR", &cfg.Sim.ErrSensor)
	int64Val("WHEELLY_SIM_MOTION_INTERVAL", &cfg.Sim.MotionInterval)
	int64Val("WHEELLY_SIM_PROXY_INTERVAL", &cfg.Sim.ProxyInterval)
	int64Val("WHEELLY_SIM_CAMERA_INTERVAL", &cfg.Sim.CameraInterval)
	floatVal("WHEELLY_SIM_ARENA_HALF_SIZE", &cfg.Sim.ArenaHalfSize)
	if raw := strings.TrimSpace(os.Getenv("WHEELLY_SIM_SEED")); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			problems = append(problems, fmt.Sprintf("WHEELLY_SIM_SEED must be a non-negative integer, got %q", raw))
		} else {
			cfg.Sim.Seed = v
		}
	}

	str("WHEELLY_REPLAY_DIR", &cfg.Replay.Directory)
	intVal("WHEELLY_REPLAY_MAX_MATCHES", &cfg.Replay.MaxMatches)

	str("WHEELLY_LOG_LEVEL", &cfg.Logging.Level)
	str("WHEELLY_LOG_PATH", &cfg.Logging.Path)
	intVal("WHEELLY_LOG_MAX_SIZE_MB", &cfg.Logging.MaxSizeMB)
	intVal("WHEELLY_LOG_MAX_BACKUPS", &cfg.Logging.MaxBackups)
	intVal("WHEELLY_LOG_MAX_AGE_DAYS", &cfg.Logging.MaxAgeDays)
	if raw := strings.TrimSpace(os.Getenv("WHEELLY_LOG_COMPRESS")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			problems = append(problems, fmt.Sprintf("WHEELLY_LOG_COMPRESS must be a boolean, got %q", raw))
		} else {
			cfg.Logging.Compress = v
		}
	}

	if raw := strings.TrimSpace(os.Getenv("WHEELLY_HEAD_LOCATION")); raw != "" {
		v, err := parseVec2(raw)
		if err != nil {
			problems = append(problems, fmt.Sprintf("WHEELLY_HEAD_LOCATION: %v", err))
		} else {
			cfg.Robot.HeadLocation = v
		}
	}
	if raw := strings.TrimSpace(os.Getenv("WHEELLY_CAMERA_OFFSET")); raw != "" {
		v, err := parseVec2(raw)
		if err != nil {
			problems = append(problems, fmt.Sprintf("WHEELLY_CAMERA_OFFSET: %v", err))
		} else {
			cfg.Robot.CameraOffset = v
		}
	}
	if raw := strings.TrimSpace(os.Getenv("WHEELLY_LIDAR_OFFSET")); raw != "" {
		v, err := parseVec2(raw)
		if err != nil {
			problems = append(problems, fmt.Sprintf("WHEELLY_LIDAR_OFFSET: %v", err))
		} else {
			cfg.Robot.LidarOffset = v
		}
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf(strings.Join(problems, "; "))
	}
	return cfg, nil
}

func getString(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func parseList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if item := strings.TrimSpace(part); item != "" {
			values = append(values, item)
		}
	}
	return values
}

func parseFloatPair(raw string) ([2]float64, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return [2]float64{}, fmt.Errorf("expected two comma-separated values, got %q", raw)
	}
	var out [2]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return [2]float64{}, fmt.Errorf("invalid number %q", p)
		}
		out[i] = v
	}
	return out, nil
}

func parseVec2(raw string) (geometry.Vec2, error) {
	pair, err := parseFloatPair(raw)
	if err != nil {
		return geometry.Vec2{}, err
	}
	return geometry.Vec2{X: pair[0], Y: pair[1]}, nil
}
