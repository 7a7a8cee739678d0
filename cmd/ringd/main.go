package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/iimcz/caas-a01/internal/artnet"
	"github.com/iimcz/caas-a01/internal/calib"
	"github.com/iimcz/caas-a01/internal/config"
	"github.com/iimcz/caas-a01/internal/control"
	diag "github.com/iimcz/caas-a01/internal/diagnostics"
	"github.com/iimcz/caas-a01/internal/layout"
	"github.com/iimcz/caas-a01/internal/led"
	"github.com/iimcz/caas-a01/internal/render"
	"github.com/iimcz/caas-a01/internal/stage"
	"github.com/iimcz/caas-a01/internal/ws"
)

func main() {
	var (
		configPath  = flag.String("config", "ringd.yaml", "path to the YAML config")
		output      = flag.String("output", "", "output: artnet | debug | spi | term (overrides config)")
		fps         = flag.Int("fps", 0, "frames per second (overrides config)")
		controller  = flag.String("controller", "", "Art-Net controller address (overrides config)")
		controlPort = flag.Int("control-port", 0, "UDP control port (overrides config)")
		monitor     = flag.String("monitor", "", "monitor listen address, e.g. :8080 (overrides config)")
		calibrate   = flag.String("calibrate", "", "run a bring-up pattern first: index_sweep | rgbw_channels | rings")
		hold        = flag.Int("calibrate-hold", 6, "frames each calibration step stays lit")
		logLevel    = flag.String("log-level", "info", "log level")
		writeConfig = flag.Bool("write-config", false, "write the effective config to -config and exit")
	)
	flag.Parse()

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	cfg, err := config.Load(*configPath)
	if err != nil {
		cfg = config.Default()
		if !errors.Is(err, fs.ErrNotExist) || set["config"] {
			setupLogging(os.Stdout, *logLevel)
			log.Fatal().Err(err).Str("path", *configPath).Msg("config load failed")
		}
	}
	if set["output"] {
		cfg.LedDriver.Output = *output
	}
	if set["fps"] {
		cfg.LedDriver.FPS = *fps
	}
	if set["controller"] {
		cfg.LedDriver.ArtNet.ControllerIP = *controller
	}
	if set["control-port"] {
		cfg.ControlPort = *controlPort
	}
	if set["monitor"] {
		cfg.Monitor.Addr = *monitor
	}

	// debug frames and the terminal preview own stdout
	logOut := io.Writer(os.Stdout)
	if cfg.LedDriver.Output == config.OutputDebug || cfg.LedDriver.Output == config.OutputTerm {
		logOut = os.Stderr
	}
	setupLogging(logOut, *logLevel)
	if err == nil {
		log.Info().Str("path", *configPath).Msg("config loaded")
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}
	if *writeConfig {
		if err := config.Save(*configPath, cfg); err != nil {
			log.Fatal().Err(err).Str("path", *configPath).Msg("config save failed")
		}
		log.Info().Str("path", *configPath).Msg("config written")
		return
	}

	kind, err := calib.ParseKind(*calibrate)
	if err != nil {
		log.Fatal().Err(err).Msg("bad -calibrate")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, stop, cfg, calib.Plan{Kind: kind, Hold: *hold}); err != nil {
		log.Fatal().Err(err).Msg("ringd stopped with error")
	}
	log.Info().Msg("bye")
}

func setupLogging(w io.Writer, level string) {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen})
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		log.Warn().Str("level", level).Msg("unknown log level; using info")
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

func run(ctx context.Context, quit func(), cfg *config.Config, plan calib.Plan) error {
	palette, err := cfg.Palette()
	if err != nil {
		return err
	}
	lay := cfg.Layout()
	m := stage.New(cfg.Tunables(), palette)

	drv, dropped, err := openOutput(cfg, lay, quit)
	if err != nil {
		return err
	}

	var hub *ws.Hub
	sinks := []diag.Sink{}
	if cfg.Monitor.Addr != "" {
		hub = ws.NewHub(m, lay, cfg.LedDriver.FPS)
		hub.Output = cfg.LedDriver.Output
		hub.Dropped = dropped
		drv = led.Fanout{drv, hub}
		sinks = append(sinks, hub.PushDiag)
	}
	sink := diag.Tee(sinks...)

	m.OnSwitch(func(from, to stage.Stage) {
		sink.Push(diag.Diagnostic{
			Severity: diag.Info,
			Code:     diag.StageSwitch,
			Summary:  "Stage switched",
			Evidence: map[string]any{"from": from.String(), "to": to.String()},
		})
	})

	eng, err := render.NewEngine(m, lay.NewRings(), drv, cfg.LedDriver.FPS)
	if err != nil {
		drv.Close()
		return err
	}
	eng.Diag = sink
	if plan.Kind != calib.None {
		eng.Calibrate(calib.NewRunner(plan))
	}

	ctl, err := control.ListenPort(cfg.ControlPort, m)
	if err != nil {
		drv.Close()
		return err
	}
	ctl.Diag = sink
	go func() {
		log.Info().Stringer("addr", ctl.Addr()).Msg("control listening")
		if err := ctl.Serve(); err != nil {
			log.Error().Err(err).Msg("control listener stopped")
		}
	}()

	if hub != nil {
		go func() {
			if err := hub.ListenAndServe(ctx, cfg.Monitor.Addr); err != nil {
				log.Error().Err(err).Msg("monitor crashed")
			}
		}()
	}

	log.Info().
		Str("output", cfg.LedDriver.Output).
		Int("fps", cfg.LedDriver.FPS).
		Int("inner", lay.Inner.Size()).
		Int("outer", lay.Outer.Size()).
		Msg("frame loop starting")

	// the control socket goes first so no command lands after the final frame
	loopCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		ctl.Close()
		cancel()
	}()
	return eng.Run(loopCtx)
}

// openOutput builds the configured driver. dropped reports transport drops
// for outputs that count them.
func openOutput(cfg *config.Config, lay layout.Layout, quit func()) (led.Driver, func() uint64, error) {
	switch cfg.LedDriver.Output {
	case config.OutputArtNet:
		d, err := artnet.Dial(cfg.LedDriver.ArtNet.ControllerIP, lay)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("controller", cfg.LedDriver.ArtNet.ControllerIP).Int("segments", len(lay.Segments())).Msg("art-net output")
		return d, d.Dropped, nil
	case config.OutputDebug:
		return led.NewDebug(os.Stdout), nil, nil
	case config.OutputSPI:
		d, err := led.OpenSPI(cfg.LedDriver.SPI.Port, lay.Inner.Size()+lay.Outer.Size())
		if err != nil {
			return nil, nil, err
		}
		log.Info().Stringer("dev", d).Msg("spi output")
		return d, nil, nil
	case config.OutputTerm:
		d, err := led.NewTerm(quit)
		if err != nil {
			return nil, nil, err
		}
		return d, nil, nil
	}
	return nil, nil, fmt.Errorf("unknown output %q", cfg.LedDriver.Output)
}
