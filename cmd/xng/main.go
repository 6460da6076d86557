// Command xng supervises one dumphfdl or dumpvdl2 decoder session at a
// time, normalizes its output into Common Frame Format, fans it out to
// the configured sinks, and exposes a control plane for runtime band and
// schedule changes.
//
// Grounded on the teacher's cmd/direwolf/main.go for the overall
// "parse flags, wire subsystems, wait on signals" shape, generalized
// from its single cgo audio-demodulator pipeline to this supervisor's
// decoder-child/normalize/fan-out pipeline.
package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"github.com/airframesio/xng/internal/band"
	"github.com/airframesio/xng/internal/config"
	"github.com/airframesio/xng/internal/control"
	"github.com/airframesio/xng/internal/frame"
	"github.com/airframesio/xng/internal/groundstation"
	"github.com/airframesio/xng/internal/normalize"
	"github.com/airframesio/xng/internal/orchestrator"
	"github.com/airframesio/xng/internal/sink"
	"github.com/airframesio/xng/internal/systable"
	"github.com/airframesio/xng/internal/xlog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "xng:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv("XNG_CONFIG"), os.Args[1:])
	if err != nil {
		return err
	}

	logger := xlog.New(xlog.Options{Quiet: cfg.Quiet, Verbose: cfg.Verbose})

	registry := groundstation.NewRegistry()
	normDeps := normalize.Deps{Registry: registry, StaleTimeout: cfg.StaleTimeout}

	candidates, kind, err := loadModuleData(cfg, &normDeps)
	if err != nil {
		return err
	}

	norm := normalize.New(normDeps)
	selector := band.NewSelector(rand.New(rand.NewSource(time.Now().UnixNano())))

	settings := control.New(cfg.APIToken, false, cfg.SwarmMode())
	registerProps(settings)

	frames := make(chan frame.CommonFrame, sink.FrameQueueCapacity)
	changes := make(chan groundstation.ChangeEvent, 64)

	sinks, stateDB, closeSinks, err := buildSinks(cfg, logger)
	if err != nil {
		return err
	}
	defer closeSinks()

	fanOut := sink.NewFanOut(logger, sinks...)

	var rawLineLog io.Writer
	if cfg.AuditLogDir != "" {
		al, err := xlog.NewAuditLog(cfg.AuditLogDir)
		if err != nil {
			return err
		}
		defer al.Close()
		rawLineLog = al
	}

	orchCfg := orchestrator.Config{
		Kind:         kind,
		Bin:          cfg.Bin,
		BuildArgs:    argsBuilderFor(cfg),
		SampleRateHz: cfg.SampleRateHz,
		MaxDistKHz:   band.MaxDistKHz(cfg.SampleRateHz),
		StaleTimeout: cfg.StaleTimeout,
		Candidates:   candidates,
		RawLineLog:   rawLineLog,
	}
	orch := orchestrator.New(orchCfg, settings, registry, norm, selector, frames, changes, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, unix.SIGTERM)
	defer stop()

	interrupt := make(chan struct{})
	go func() {
		<-ctx.Done()
		close(interrupt)
	}()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		fanOut.Run(gctx, frames)
		return nil
	})

	g.Go(func() error {
		drainChangeEvents(gctx, changes, stateDB, logger)
		return nil
	})

	srv := &http.Server{
		Addr:    cfg.ListenHost + ":" + strconv.Itoa(int(cfg.ListenPort)),
		Handler: control.Router(settings, func() interface{} { return registry.All() }),
	}
	g.Go(func() error { return serveUntilDone(gctx, srv) })
	logger.Info("control plane listening", "addr", srv.Addr)

	g.Go(func() error {
		orch.Run(gctx, interrupt)
		return nil
	})

	return g.Wait()
}

// loadModuleData reads the reference data for cfg.Module (the HFDL system
// table or the VDL2 ground-station CSV) and derives the full candidate
// frequency set the Band Planner packs into bands.
func loadModuleData(cfg config.Config, deps *normalize.Deps) ([]int, orchestrator.DecoderKind, error) {
	switch cfg.Module {
	case config.ModuleHFDL:
		if cfg.SysTable == "" {
			return nil, 0, fmt.Errorf("--systable is required for module hfdl")
		}
		st, err := systable.Load(cfg.SysTable)
		if err != nil {
			return nil, 0, err
		}
		deps.SystemTable = st

		var candidates []int
		for _, s := range st.Stations {
			candidates = append(candidates, s.Frequencies...)
		}
		return candidates, orchestrator.DecoderHFDL, nil

	case config.ModuleVDL2:
		if cfg.GroundStations != "" {
			gs, err := systable.LoadGroundStationDB(cfg.GroundStations)
			if err != nil {
				return nil, 0, err
			}
			deps.GroundStations = gs
		}
		return nil, orchestrator.DecoderVDL2, nil
	}
	return nil, 0, fmt.Errorf("unreachable: module already validated by config.Load")
}

func registerProps(settings *control.Settings) {
	settings.AddPropWithValidator(control.PropNextSessionBand, control.Value{Kind: control.KindNumber}, control.NextSessionBandValidator)
	settings.AddPropWithValidator(control.PropSessionSchedule, control.Value{Kind: control.KindString}, control.SessionScheduleValidator)
	settings.AddPropWithValidator(control.PropSessionMethod, control.Value{Kind: control.KindString, String: "random"}, control.SessionMethodValidator)
	settings.AddPropWithValidator(control.PropListeningBand, control.Value{Kind: control.KindArray}, control.ListeningBandValidator)
	settings.AddPropWithValidator(control.PropSessionTimeout, control.Value{Kind: control.KindNumber}, nil)
	settings.AddPropWithValidator(control.PropSessionIntermission, control.Value{Kind: control.KindNumber}, nil)
	settings.AddPropWithValidator(control.PropOnlyUseActive, control.Value{Kind: control.KindBool}, nil)
	settings.AddPropWithValidator(control.PropUseAirframesGS, control.Value{Kind: control.KindBool}, nil)
	settings.AddPropWithValidator(control.PropQuiet, control.Value{Kind: control.KindBool}, nil)
}

// buildSinks wires the mutually-exclusive swarm/ES output alongside the
// state DB writer, per spec.md §4.5's "swarm and ES are mutually
// exclusive" rule (already enforced at config.Load time). The state DB
// writer is only built outside swarm mode; the returned
// *sink.StateDBWriter is nil in swarm mode or when --disable-state-db is
// set, in which case ground-station change events are dropped rather than
// persisted.
func buildSinks(cfg config.Config, logger *log.Logger) ([]sink.Sink, *sink.StateDBWriter, func(), error) {
	var sinks []sink.Sink
	var closers []func()

	if cfg.SwarmMode() {
		w, err := sink.DialSwarm(context.Background(), cfg.SwarmAddr)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("swarm dial: %w", err)
		}
		sinks = append(sinks, sink.SwarmSink(w))
		closers = append(closers, func() { w.Close() })
	} else if cfg.ElasticURL != "" {
		b, err := sink.NewESBatcher(cfg.ElasticURL, cfg.ElasticIndex, !cfg.ValidateESCert, logger)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("elastic batcher: %w", err)
		}
		sinks = append(sinks, sink.ESSink(b))
		closers = append(closers, b.Close)
	}

	var stateDB *sink.StateDBWriter
	if !cfg.DisableStateDB && !cfg.SwarmMode() {
		w, err := sink.OpenStateDB(statePathFromURL(cfg.StateDBURL))
		if err != nil {
			return nil, nil, nil, fmt.Errorf("state db open: %w", err)
		}
		stateDB = w
		sinks = append(sinks, sink.StateDBSink(w))
	}

	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}
	return sinks, stateDB, closeAll, nil
}

// statePathFromURL strips the "sqlite://" scheme prefix the state-db URL
// convention uses (spec.md §6: "URL should begin with sqlite://").
func statePathFromURL(rawURL string) string {
	const prefix = "sqlite://"
	if len(rawURL) > len(prefix) && rawURL[:len(prefix)] == prefix {
		return rawURL[len(prefix):]
	}
	return rawURL
}

// drainChangeEvents persists ground-station change events to the state
// DB (when enabled); the Orchestrator already consumes them for the SPDU
// feedback loop before they reach this channel (spec.md §4.4, §4.5).
func drainChangeEvents(ctx context.Context, changes <-chan groundstation.ChangeEvent, stateDB *sink.StateDBWriter, logger *log.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-changes:
			if !ok {
				return
			}
			if stateDB == nil {
				continue
			}
			if err := stateDB.WriteChangeEvent(ev); err != nil {
				logger.Warn("failed to persist ground station change event", "err", err)
			}
		}
	}
}

// serveUntilDone runs srv until ctx is canceled, then gives in-flight
// requests a grace period to finish before returning.
func serveUntilDone(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}

// argsBuilderFor renders the decoder child's argv from the supervisor's
// static config and the band the Orchestrator picked for this session.
// Both families take their band as trailing positional Hz integers
// (spec.md §6 External Interfaces): the internal kHz values are
// multiplied by 1000 before being appended.
func argsBuilderFor(cfg config.Config) orchestrator.ArgsBuilder {
	return func(bandKHz []int) []string {
		args := []string{"--sample-rate", strconv.Itoa(cfg.SampleRateHz), "--output", "decoded:json:file:path=-"}
		if cfg.Module == config.ModuleHFDL && cfg.SysTable != "" {
			args = append(args, "--system-table", cfg.SysTable)
		}
		for _, f := range bandKHz {
			args = append(args, strconv.Itoa(f*1000))
		}
		return args
	}
}
