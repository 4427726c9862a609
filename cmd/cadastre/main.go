// Command cadastre loads a plot interchange file into an in-memory register,
// prints every plot, and optionally writes the plots back out, exports them as
// GeoJSON and serves them over HTTP together with Prometheus metrics.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/signalsfoundry/cadastre/core"
	"github.com/signalsfoundry/cadastre/internal/config"
	"github.com/signalsfoundry/cadastre/internal/geojson"
	"github.com/signalsfoundry/cadastre/internal/interchange"
	"github.com/signalsfoundry/cadastre/internal/logging"
	"github.com/signalsfoundry/cadastre/internal/observability"
	"github.com/signalsfoundry/cadastre/kb"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cadastre: %v\n", err)
		os.Exit(2)
	}
	cfg.BindFlags(flag.CommandLine)
	flag.Parse()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "cadastre: %v\n", err)
		flag.Usage()
		os.Exit(2)
	}

	log := logging.New(cfg.Log)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var lis net.Listener
	if cfg.HTTPAddr != "" {
		lis, err = net.Listen("tcp", cfg.HTTPAddr)
		if err != nil {
			log.Error(ctx, "failed to listen for HTTP", logging.String("addr", cfg.HTTPAddr), logging.Err(err))
			os.Exit(1)
		}
	}

	if err := run(ctx, cfg, log, os.Stdout, lis); err != nil {
		log.Error(ctx, "cadastre failed", logging.Err(err))
		stop()
		os.Exit(1)
	}
}

// run executes one load / report / export cycle. When lis is non-nil the
// register is served on it until ctx is cancelled.
func run(ctx context.Context, cfg config.Config, log logging.Logger, out io.Writer, lis net.Listener) error {
	if log == nil {
		log = logging.Noop()
	}
	ctx = logging.ContextWithLogger(ctx, log)

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.WithoutCancel(ctx), shutdownTracing, log)

	collector, err := observability.NewRegisterCollector(prometheus.NewRegistry())
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	register := kb.NewRegister(log, kb.WithMetricsRecorder(collector))
	defer register.Close()

	zones, err := interchange.LoadFile(ctx, cfg.InputPath, interchange.WithRecorder(collector))
	if err != nil {
		return err
	}
	if err := addAll(register, zones); err != nil {
		return err
	}

	for _, z := range register.List() {
		fmt.Fprint(out, core.Describe(z))
	}
	logSummary(ctx, log, register)

	if cfg.OutputPath != "" {
		if err := interchange.SaveFile(ctx, cfg.OutputPath, register.List(), interchange.WithRecorder(collector)); err != nil {
			return err
		}
	}
	if cfg.GeoJSONPath != "" {
		if err := exportGeoJSON(cfg.GeoJSONPath, register.List()); err != nil {
			return err
		}
		log.Info(ctx, "geojson exported", logging.String("path", cfg.GeoJSONPath))
	}

	if lis == nil {
		return nil
	}
	return serve(ctx, lis, collector, register, log)
}

// addAll registers zones in order. On failure the zones not yet registered
// are closed; registered ones are released by the register.
func addAll(register *kb.Register, zones []core.Zone) error {
	for i, z := range zones {
		if err := register.Add(z); err != nil {
			for _, rest := range zones[i:] {
				rest.Close()
			}
			return err
		}
	}
	return nil
}

func logSummary(ctx context.Context, log logging.Logger, register *kb.Register) {
	summary := register.Summary()
	for _, kind := range core.Kinds() {
		s, ok := summary[kind]
		if !ok {
			continue
		}
		log.Info(ctx, "zone summary",
			logging.String("kind", kind.String()),
			logging.Int("plots", s.Plots),
			logging.Float("area_m2", s.Area),
			logging.Float("buildable_area_m2", s.BuildableArea),
		)
	}
}

func exportGeoJSON(path string, zones []core.Zone) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create geojson %s: %w", path, err)
	}
	if err := geojson.Write(f, zones); err != nil {
		f.Close()
		return fmt.Errorf("export geojson %s: %w", path, err)
	}
	return f.Close()
}

func serve(ctx context.Context, lis net.Listener, collector *observability.RegisterCollector, register *kb.Register, log logging.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	mux.Handle("/plots.geojson", geojson.Handler(register.List, log))

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(lis)
	}()
	log.Info(ctx, "serving plots and metrics", logging.String("addr", lis.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info(context.WithoutCancel(ctx), "shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
