// Command wheelly-controller runs the Wheelly robot control plane: it
// connects to either a simulated or a real robot, maintains the world
// model, dispatches the example inference policy, persists a replay of
// the session, and serves a diagnostic HTTP/websocket status endpoint.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wheelly/control/internal/config"
	"wheelly/control/internal/controller"
	"wheelly/control/internal/geometry"
	"wheelly/control/internal/logging"
	"wheelly/control/internal/radar"
	"wheelly/control/internal/radarmap"
	"wheelly/control/internal/replay"
	"wheelly/control/internal/simrobot"
	"wheelly/control/internal/simulation"
	"wheelly/control/internal/statusapi"
	"wheelly/control/internal/wireclient"
	"wheelly/control/internal/worldmodel"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "wheelly-controller: configuration error:", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintln(os.Stderr, "wheelly-controller: logging setup failed:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("wheelly-controller: exited with error", logging.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *logging.Logger) error {
	topology := radarmap.GridTopology{
		Center:   geometry.Vec2{},
		Width:    cfg.Radar.Width,
		Height:   cfg.Radar.Height,
		GridSize: cfg.Radar.GridSize,
	}
	radarPar := radar.Params{
		CleanInterval:      cfg.Radar.CleanInterval,
		EchoPersistence:    cfg.Radar.EchoPersistence,
		ContactPersistence: cfg.Radar.ContactPersistence,
		Decay:              cfg.Radar.Decay,
	}
	world := worldmodel.New(topology, radarPar, cfg.Radar.MarkerPersistence, cfg.Robot.MaxRadarDistance)

	robot, closeRobot, tickMonitor, err := buildRobot(cfg, logger)
	if err != nil {
		return fmt.Errorf("build robot: %w", err)
	}
	defer closeRobot()

	recordingHeader := replay.Header{RobotSpec: cfg.Robot, Topology: topology}
	writer, err := replay.NewWriter(cfg.Replay.Directory, "session", recordingHeader, time.Now)
	if err != nil {
		return fmt.Errorf("open replay writer: %w", err)
	}
	defer writer.Close()

	cleaner := replay.NewCleaner(cfg.Replay.Directory, replay.RetentionPolicy{
		MaxMatches: cfg.Replay.MaxMatches,
		MaxAge:     cfg.Replay.MaxAge,
	}, logger)
	go cleaner.Run(ctx, cfg.Replay.SweepInterval)

	ctrlCfg := controller.Config{
		CommandInterval:  cfg.Controller.CommandInterval,
		RetryInterval:    cfg.Wire.ConnectionRetryInterval,
		ReactionInterval: cfg.Controller.ReactionInterval,
		ConfigureTimeout: cfg.Wire.ConfigureTimeout,
		SimulationSpeed:  cfg.Controller.SimulationSpeed,
		WatchdogInterval: cfg.Controller.WatchdogInterval,
	}

	inference := defaultInference(cfg.Robot.MaxPPS/2, cfg.Robot.MaxRadarDistance/2)
	var server *statusapi.Server
	recordingInference := func(wm worldmodel.WorldModel) *controller.Command {
		if server != nil {
			server.Publish(wm)
		}
		if err := writer.AppendWorldModel(wm); err != nil {
			logger.Warn("replay: append world model failed", logging.Error(err))
		}
		cmd := inference(wm)
		if cmd != nil {
			if err := writer.AppendCommand(replay.RobotCommand{
				SimTime:   wm.RobotStatus.SimulationTime,
				Kind:      string(cmd.Kind),
				Direction: float64(cmd.Direction.ToIntDeg()),
				Speed:     cmd.Speed,
			}); err != nil {
				logger.Warn("replay: append command failed", logging.Error(err))
			}
		}
		return cmd
	}

	ctrl := controller.New(ctrlCfg, robot, logger, world, recordingInference)

	go logControllerErrors(ctx, ctrl, logger)

	rawTap := controller.RawTap(ctx.Done(), robot)
	server = statusapi.New(logger, cfg.AdminToken, ctrl, ctrl, tickMonitor, rawTap).WithReplayStats(cleaner)

	httpServer := &http.Server{Addr: cfg.ListenAddress, Handler: server.Handler()}
	serverErrs := make(chan error, 1)
	go func() {
		base := listenerURL(cfg.ListenAddress, false)
		logger.Info("wheelly-controller: status server listening",
			logging.String("address", base),
			logging.Strings("endpoints", diagnosticEndpoints(base)))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrs <- err
		}
	}()

	controllerErrs := make(chan error, 1)
	go func() { controllerErrs <- ctrl.Run(ctx) }()

	select {
	case <-ctx.Done():
	case err := <-serverErrs:
		logger.Error("wheelly-controller: status server failed", logging.Error(err))
	case err := <-controllerErrs:
		if err != nil {
			logger.Error("wheelly-controller: controller stopped", logging.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
	return nil
}

func logControllerErrors(ctx context.Context, ctrl *controller.Controller, logger *logging.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-ctrl.Errors():
			if !ok {
				return
			}
			logger.Warn("controller error stream", logging.Error(err))
		}
	}
}

// robotCloser is implemented by both buildable robot kinds so main can
// release resources uniformly regardless of which one was selected.
type robotCloser func()

// buildRobot constructs the robot backend selected by cfg.RobotMode. The
// returned *simulation.TickMonitor is nil for the wire-driven robot, which
// has no simulation loop to instrument, and non-nil for the simulated robot,
// letting the status server report achieved tick FPS only when it means
// something.
func buildRobot(cfg *config.Config, logger *logging.Logger) (controller.Robot, robotCloser, *simulation.TickMonitor, error) {
	switch cfg.RobotMode {
	case "wire":
		client := wireclient.New(wireclient.Config{
			Host:                    cfg.Wire.Host,
			Port:                    cfg.Wire.Port,
			CameraHost:              cfg.Wire.CameraHost,
			CameraPort:              cfg.Wire.CameraPort,
			ConnectionRetryInterval: cfg.Wire.ConnectionRetryInterval,
			ReadTimeout:             cfg.Wire.ReadTimeout,
			ConfigureTimeout:        cfg.Wire.ConfigureTimeout,
			WatchdogInterval:        cfg.Wire.WatchdogInterval,
			WatchdogTimeout:         cfg.Wire.WatchdogTimeout,
			ConfigCommands:          cfg.Wire.ConfigCommands,
			Spec:                    cfg.Robot,
		}, logger)
		return client, func() { client.Close() }, nil, nil
	case "simulated", "":
		robot := simrobot.New(simrobot.Params{
			Spec:              cfg.Robot,
			MaxAngularSpeed:   cfg.Sim.MaxAngularSpeed,
			SafeDistance:      cfg.Sim.SafeDistance,
			ObstacleSize:      cfg.Sim.ObstacleSize,
			StalemateInterval: cfg.Sim.StalemateInterval,
			ErrSigma:          cfg.Sim.ErrSigma,
			ErrSensor:         cfg.Sim.ErrSensor,
			MotionInterval:    cfg.Sim.MotionInterval,
			ProxyInterval:     cfg.Sim.ProxyInterval,
			CameraInterval:    cfg.Sim.CameraInterval,
			Seed:              cfg.Sim.Seed,
			Arena:             simrobot.Arena{HalfSize: cfg.Sim.ArenaHalfSize},
		})
		monitor := simulation.NewTickMonitor()
		loop := simulation.NewLoop(1000/float64(cfg.Sim.MotionInterval), cfg.Controller.SimulationSpeed, monitor, func(step time.Duration) {
			robot.Tick(step.Milliseconds())
		})
		done := make(chan struct{})
		go func() {
			<-done
			loop.Stop()
		}()
		loop.Start(context.Background())
		return robot, func() { close(done); robot.Close() }, monitor, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown WHEELLY_ROBOT_MODE %q", cfg.RobotMode)
	}
}
