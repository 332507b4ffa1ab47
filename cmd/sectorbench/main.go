package main

import (
	"context"
	"net/http"
	"os"
	"reflect"
	"sync"
	"syscall"
	"time"

	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/encoding/json"

	"github.com/Carmen-Shannon/oxy-sector/engine/consumer"
	"github.com/Carmen-Shannon/oxy-sector/engine/exporter"
	"github.com/Carmen-Shannon/oxy-sector/engine/filter"
	"github.com/Carmen-Shannon/oxy-sector/engine/geometry"
	"github.com/Carmen-Shannon/oxy-sector/engine/loader"
	"github.com/Carmen-Shannon/oxy-sector/engine/profiler"
)

// This will effectively disable obfuscation of the config struct. Without it, the keys would get
// obfuscated causing the cli package to generate garbled command-line options.
var _ = reflect.TypeOf(config{})

type config struct {
	Fixture         string        `cli:""        env:"SECTORBENCH_FIXTURE"          help:"JSON fixture describing models and sectors."`
	Workers         int           `cli:""        env:"SECTORBENCH_WORKERS"          help:"Number of sector workers."`
	QueueSize       int           `cli:",hidden" env:"SECTORBENCH_QUEUE_SIZE"       help:"Worker pool queue size."`
	Repeat          int           `cli:""        env:"SECTORBENCH_REPEAT"           help:"Number of times the fixture is loaded."`
	Export          string        `cli:""        env:"SECTORBENCH_EXPORT"           help:"Write the first detailed sector to this GLB file."`
	MetricsAddr     string        `cli:""        env:"SECTORBENCH_METRICS_ADDR"     help:"Serve /metrics on this address until interrupted."`
	ProfileInterval time.Duration `cli:",hidden" env:"SECTORBENCH_PROFILE_INTERVAL" help:"Interval between profile logs."`
	LogLevel        string        `cli:""        env:"SECTORBENCH_LOG_LEVEL"        help:"Log level (debug|info|warning|error)."`
	LogIndent       bool          `cli:""        env:"SECTORBENCH_LOG_INDENT"       help:"Indent logs."`
	Help            bool          `cli:""        env:"-"                            help:"Show help."`
}

func main() {
	conf := config{
		Repeat:          1,
		ProfileInterval: time.Second,
		LogLevel:        logs.InfoLevel.String(),
	}

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cli.Register().
		Help("Loads the sectors of a fixture and reports what survives clipping.").
		Options(&conf)
	cli.Load()

	logs.SetLevel(logs.ParseLevel(conf.LogLevel))
	logs.Encoder = json.Marshal
	if conf.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}

	errors.Encoder = json.Marshal

	if conf.Fixture == "" {
		logs.Fatal(errors.New("a fixture is required"))
	}

	f, err := os.Open(conf.Fixture)
	if err != nil {
		logs.Fatal(errors.New("opening fixture failed").
			WithTag("path", conf.Fixture).
			Wrap(err))
	}
	fix, err := readFixture(f)
	f.Close()
	if err != nil {
		logs.Fatal(err)
	}

	requests, err := fix.requests()
	if err != nil {
		logs.Fatal(err)
	}

	var metricsWG sync.WaitGroup
	if conf.MetricsAddr != "" {
		var admin http.ServeMux
		admin.Handle("/metrics", promhttp.Handler())

		metricsWG.Add(1)
		go func() {
			defer metricsWG.Done()
			listenAndServe(ctx, &http.Server{Addr: conf.MetricsAddr, Handler: &admin})
		}()
	}

	var stats filter.Stats
	sectorConsumer := consumer.NewSectorGeometryConsumer(
		consumer.WithMaterialProvider(fix.library()),
		consumer.WithFilter(filter.NewSpatialFilter(filter.WithStats(&stats))),
	)

	options := []loader.LoaderBuilderOption{
		loader.WithConsumer(sectorConsumer),
		loader.WithWorkers(conf.Workers),
		loader.WithQueueSize(conf.QueueSize),
		loader.WithProfiler(profiler.NewProfiler(profiler.WithUpdateInterval(conf.ProfileInterval))),
		loader.WithResultHandler(logResult),
	}
	if cam, ok := fix.viewCamera(); ok {
		options = append(options, loader.WithCamera(cam))
	}

	l := loader.NewLoader(options...)
	defer l.Close()

	logs.WithTag("fixture", conf.Fixture).
		WithTag("models", len(fix.Models)).
		WithTag("sectors", len(requests)).
		WithTag("repeat", conf.Repeat).
		Info("starting sectorbench")

	exported := conf.Export == ""
	start := time.Now()
	for i := 0; i < conf.Repeat && ctx.Err() == nil; i++ {
		results := l.LoadSectors(ctx, requests)

		if !exported {
			exported = exportFirstDetailed(conf.Export, results)
		}
		for _, res := range results {
			res.Renderable.Release()
		}
	}

	logs.WithTag("duration", time.Since(start).String()).
		WithTag("instances_evaluated", stats.Evaluated.Load()).
		WithTag("instances_kept", stats.Kept.Load()).
		Info("sectorbench finished")

	if conf.MetricsAddr != "" {
		logs.WithTag("addr", conf.MetricsAddr).Info("serving metrics until interrupted")
		metricsWG.Wait()
	}
}

func logResult(res loader.Result) {
	entry := logs.WithTag("model_id", res.Request.ModelID).
		WithTag("sector_id", res.Request.Sector.ID).
		WithTag("lod", lodName(res.Request.Payload))

	switch {
	case res.Err != nil:
		logs.Warn(errors.New("sector failed").
			WithTag("model_id", res.Request.ModelID).
			WithTag("sector_id", res.Request.Sector.ID).
			Wrap(res.Err))

	case res.Culled:
		entry.Debug("sector culled")

	default:
		var nodes int
		if res.Renderable.SectorMeshes != nil {
			nodes = res.Renderable.SectorMeshes.Len()
		}
		entry.WithTag("nodes", nodes).
			WithTag("instanced_files", len(res.Renderable.InstancedMeshes)).
			WithTag("instances", res.Renderable.InstanceCount()).
			Info("sector loaded")
	}
}

func lodName(payload geometry.Payload) string {
	if payload == nil {
		return "unknown"
	}
	return payload.Kind().String()
}

// exportFirstDetailed writes the first successfully loaded detailed sector of results to path.
// It reports whether an export was attempted.
func exportFirstDetailed(path string, results []loader.Result) bool {
	for _, res := range results {
		if res.Err != nil || res.Culled {
			continue
		}
		if _, ok := res.Request.Payload.(geometry.DetailedPayload); !ok {
			continue
		}

		if err := exportGLB(path, res.Renderable); err != nil {
			logs.Warn(errors.New("exporting sector failed").
				WithTag("path", path).
				WithTag("sector_id", res.Request.Sector.ID).
				Wrap(err))
			return true
		}

		logs.WithTag("path", path).
			WithTag("sector_id", res.Request.Sector.ID).
			Info("sector exported")
		return true
	}
	return false
}

func exportGLB(path string, result geometry.RenderableResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := exporter.ExportGLB(f, result); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func listenAndServe(ctx context.Context, s *http.Server) {
	go func() {
		<-ctx.Done()
		if err := s.Shutdown(context.Background()); err != nil {
			logs.Warn(errors.New("shutting down the server failed").
				WithTag("addr", s.Addr).
				Wrap(err))
		}
	}()

	logs.WithTag("addr", s.Addr).Info("starting server")

	switch err := s.ListenAndServe(); err {
	case nil, http.ErrServerClosed, context.Canceled:
		logs.WithTag("addr", s.Addr).Info("stopping server")

	default:
		logs.Warn(errors.New("server stopped").
			WithTag("addr", s.Addr).
			Wrap(err))
	}
}
