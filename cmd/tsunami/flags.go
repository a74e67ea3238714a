package main

import (
	"flag"

	"tsunami/internal/config"
)

var defaults = config.Default()

// Command-line flags. Physical and domain flags override the matching field
// of the -config file only when given explicitly.
var (
	// configFlag points at a JSON run description layered over the defaults.
	configFlag = flag.String("config", "", "JSON config file (fields default to the reference basin)")

	lxFlag       = flag.Float64("lx", defaults.Lx, "domain length in x (m)")
	lyFlag       = flag.Float64("ly", defaults.Ly, "domain length in y (m)")
	dxFlag       = flag.Float64("dx", defaults.Dx, "grid spacing in x (m)")
	dyFlag       = flag.Float64("dy", defaults.Dy, "grid spacing in y (m)")
	depthFlag    = flag.Float64("depth", defaults.Depth, "still-water depth D (m)")
	gravityFlag  = flag.Float64("g", defaults.Gravity, "gravitational acceleration (m/s^2)")
	dtFlag       = flag.Float64("dt", defaults.Dt, "time step (s)")
	durationFlag = flag.Float64("duration", defaults.Duration, "simulated time (s), used when -steps is 0")
	stepsFlag    = flag.Int("steps", 0, "number of steps; overrides -duration when positive")

	// initialFlag picks the starting surface: bump, ridge, packet or flat.
	initialFlag   = flag.String("initial", defaults.Initial.Kind, "initial condition: bump, ridge, packet, flat")
	amplitudeFlag = flag.Float64("amplitude", defaults.Initial.Amplitude, "initial amplitude (m)")

	// workersFlag splits each stage across goroutines by grid row.
	workersFlag = flag.Int("workers", defaults.Workers, "CPU workers per step")

	// backendFlag selects the stepper; opencl needs a build with -tags opencl.
	backendFlag = flag.String("backend", defaults.Backend, "stepper backend: cpu or opencl")

	stopOnNonFiniteFlag = flag.Bool("stop-on-nonfinite", true, "stop the run when the state contains NaN or Inf")

	// headlessFlag runs without a window and prints a summary at the end.
	headlessFlag = flag.Bool("headless", false, "run without a window and print a report")

	// serveFlag enables the snapshot HTTP/websocket server on the given address.
	serveFlag       = flag.String("serve", "", "serve snapshots on this address (e.g. :8080)")
	streamEveryFlag = flag.Int("stream-every", 1, "publish every Nth step to stream clients")

	exportFlag      = flag.String("export", "", "write snapshots to this parquet file")
	exportEveryFlag = flag.Int("export-every", 10, "export every Nth step")

	// Window options.
	scaleFlag         = flag.Int("scale", 6, "window pixels per grid cell")
	stepsPerFrameFlag = flag.Int("steps-per-frame", 4, "simulation steps shown per frame")
	autostartFlag     = flag.Bool("autostart", false, "start immediately instead of waiting for space")

	// debugFlag enables the step/time overlay.
	debugFlag = flag.Bool("debug", false, "show FPS and simulation overlay")

	cpuProfileFlag = flag.String("cpuprofile", "", "write a CPU profile to this file")
	memProfileFlag = flag.String("memprofile", "", "write a heap profile to this file on exit")
)

// applyFlags copies explicitly set flags onto cfg.
func applyFlags(cfg *config.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "lx":
			cfg.Lx = *lxFlag
		case "ly":
			cfg.Ly = *lyFlag
		case "dx":
			cfg.Dx = *dxFlag
		case "dy":
			cfg.Dy = *dyFlag
		case "depth":
			cfg.Depth = *depthFlag
		case "g":
			cfg.Gravity = *gravityFlag
		case "dt":
			cfg.Dt = *dtFlag
		case "duration":
			cfg.Duration = *durationFlag
		case "steps":
			cfg.Steps = *stepsFlag
		case "initial":
			cfg.Initial.Kind = *initialFlag
		case "amplitude":
			cfg.Initial.Amplitude = *amplitudeFlag
		case "workers":
			cfg.Workers = *workersFlag
		case "backend":
			cfg.Backend = *backendFlag
		}
	})
}
