// Command tsunami integrates the linear shallow-water equations on a
// rectangular basin and shows, streams or exports the result.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"tsunami/internal/config"
	"tsunami/internal/export"
	"tsunami/internal/playback"
	"tsunami/internal/render"
	"tsunami/internal/report"
	"tsunami/internal/shallow"
	"tsunami/internal/stream"
)

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	stopProfile, err := startProfiles(*cpuProfileFlag, *memProfileFlag)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg)
	stop()
	stopProfile()
	if err != nil {
		log.Fatal(err)
	}
}

func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if *configFlag != "" {
		var err error
		if cfg, err = config.Load(*configFlag); err != nil {
			return cfg, err
		}
	}
	applyFlags(&cfg)
	return cfg, cfg.Validate()
}

func run(ctx context.Context, cfg config.Config) error {
	grid, err := cfg.Grid()
	if err != nil {
		return err
	}
	integrator := cfg.Integrator(grid)
	initial := cfg.InitialSurface()
	field := shallow.NewWaveField(grid, initial)
	steps := cfg.StepCount()

	nx, ny := grid.Size()
	log.Printf("Grid %dx%d, %d steps of %gs, backend %s", nx, ny, steps, cfg.Dt, cfg.Backend)
	if err := cfg.Stability(grid); err != nil {
		log.Printf("Warning: %v; the run will diverge", err)
	}

	var stepper shallow.Stepper = integrator
	if cfg.Backend == config.BackendOpenCL {
		cl, err := shallow.NewOpenCLStepper(grid, integrator)
		if err != nil {
			return fmt.Errorf("opencl backend: %w", err)
		}
		defer cl.Close()
		log.Printf("OpenCL solver enabled on %s", cl.DeviceName())
		stepper = cl
	}

	sinks := playback.NewSinks(uuid.NewString())

	if *exportFlag != "" {
		w, err := export.NewWriter(*exportFlag, sinks.RunID(), *exportEveryFlag)
		if err != nil {
			return err
		}
		defer func() {
			if err := w.Close(); err != nil {
				log.Printf("export: %v", err)
			}
		}()
		sinks.Add(w.Write, w.SetRunID)
	}

	var serveWG sync.WaitGroup
	if *serveFlag != "" {
		hub := stream.NewHub(sinks.RunID())
		hub.Every = *streamEveryFlag
		serveCtx, cancelServe := context.WithCancel(ctx)
		serveWG.Add(1)
		go func() {
			defer serveWG.Done()
			if err := stream.Serve(serveCtx, *serveFlag, hub); err != nil {
				log.Printf("stream server: %v", err)
			}
		}()
		defer func() {
			cancelServe()
			serveWG.Wait()
		}()
		sinks.Add(hub.Publish, hub.SetRunID)
	}

	var recorder *report.Recorder
	if *headlessFlag {
		lx, ly := grid.Extent()
		recorder = report.NewRecorder(
			report.Gauge{Name: "centre", X: lx / 2, Y: ly / 2},
			report.Gauge{Name: "quarter", X: lx / 4, Y: ly / 4},
		)
		sinks.Add(recorder.Record, nil)
	}

	if err := sinks.Publish(field.Snapshot()); err != nil {
		return err
	}

	loop := &shallow.Loop{
		Stepper:         stepper,
		Field:           field,
		OnStep:          sinks.Publish,
		StopOnNonFinite: *stopOnNonFiniteFlag,
	}
	log.Printf("Run %s", sinks.RunID())

	if !*headlessFlag {
		session := playback.NewSession(ctx, loop, steps, initial, *stepsPerFrameFlag)
		session.OnReset = func(s shallow.Snapshot) error {
			return sinks.Retag(uuid.NewString(), s)
		}
		game := render.NewGame(session, render.Options{
			Title:       "Tsunami",
			WindowScale: *scaleFlag,
			Debug:       *debugFlag,
			Autostart:   *autostartFlag,
		})
		return game.Run()
	}

	start := time.Now()
	n, runErr := loop.Run(ctx, steps)
	fmt.Println(recorder.Render(shallow.Measure(field, integrator), time.Since(start)))
	if errors.Is(runErr, context.Canceled) {
		log.Printf("Interrupted after %d of %d steps", n, steps)
		return nil
	}
	return runErr
}
