package main

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/askiada/go-featurepipe/computers/coordinates"
	"github.com/askiada/go-featurepipe/computers/haralick"
	"github.com/askiada/go-featurepipe/computers/meanvalue"
	"github.com/askiada/go-featurepipe/internal/config"
	"github.com/askiada/go-featurepipe/internal/logging"
	"github.com/askiada/go-featurepipe/internal/telemetry"
	"github.com/askiada/go-featurepipe/pkg/computer"
	"github.com/askiada/go-featurepipe/pkg/loader"
	"github.com/askiada/go-featurepipe/pkg/pipeline"
	"github.com/askiada/go-featurepipe/pkg/pipeline/drawer"
	"github.com/askiada/go-featurepipe/pkg/pipeline/measure"
	"github.com/askiada/go-featurepipe/pkg/pipeline/model"
	"github.com/askiada/go-featurepipe/pkg/raster"
	"github.com/askiada/go-featurepipe/pkg/router"
)

const serviceName = "featurepipe"

// builtins are the computers compiled into the host.
func builtins() map[string]computer.Factory {
	return map[string]computer.Factory{
		coordinates.Name: coordinates.New,
		haralick.Name:    haralick.New,
		meanvalue.Name:   meanvalue.New,
	}
}

func newLoader(cfg *config.Config, log zerolog.Logger) *loader.Loader {
	var (
		opener loader.Opener
		naming loader.Naming
	)

	switch cfg.Loader {
	case config.LoaderExec:
		opener, naming = loader.ExecOpener{}, loader.ExecNaming
	case config.LoaderBuiltin:
		opener, naming = loader.NewBuiltinOpener(builtins()), loader.BuiltinNaming
	default:
		opener, naming = loader.PluginOpener{}, loader.PluginNaming
	}

	if cfg.Loader != config.LoaderBuiltin {
		naming.Dir = cfg.ModuleDir
	}

	return loader.New(opener, loader.WithNaming(naming), loader.WithLogger(log))
}

// run is the whole host. Progress and usage go to stdout, diagnostics and logs to stderr.
// It returns the process exit code.
func run(ctx context.Context, cfg *config.Config, args []string, stdout, stderr io.Writer) int {
	log := logging.New(cfg, stderr).With().Str("run_id", uuid.NewString()).Logger()

	shutdown, err := telemetry.Setup(ctx, cfg, serviceName)
	if err != nil {
		log.Warn().Err(err).Msg("tracing disabled")
	}

	defer func() {
		err := shutdown(context.Background())
		if err != nil {
			log.Warn().Err(err).Msg("unable to flush traces")
		}
	}()

	err = execute(ctx, cfg, log, args, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "featurepipe: %v\n", err)

		return 1
	}

	return 0
}

func execute(ctx context.Context, cfg *config.Config, log zerolog.Logger, args []string, stdout, stderr io.Writer) error {
	opts, invocations, err := router.Route(args)
	if err != nil {
		return errors.Wrap(err, "unable to parse options, see --help")
	}

	ldr := newLoader(cfg, log)

	if opts.Help {
		return help(ctx, ldr, opts.HelpModules, stdout, stderr)
	}

	if opts.PipelineFile != "" {
		fromFile, err := config.LoadPipelineFile(opts.PipelineFile)
		if err != nil {
			return err
		}

		invocations = config.Concat(fromFile, invocations)
	}

	if len(invocations) == 0 {
		return pipeline.ErrNoInvocations
	}

	input, err := raster.Load(opts.InputImage)
	if err != nil {
		return errors.Wrapf(err, "unable to load input image %s", opts.InputImage)
	}

	log.Info().
		Str("input", opts.InputImage).
		Interface("size", input.Size()).
		Int("invocations", len(invocations)).
		Msg("input image loaded")

	observers := []model.PipelineOption{newProgress(stdout, len(invocations))}

	var msr measure.Measure
	if opts.MetricsFile != "" || opts.GraphFile != "" {
		msr = measure.NewDefaultMeasure()
		observers = append(observers, measure.PipelineMeasure(msr, opts.MetricsFile))
	}

	if opts.GraphFile != "" {
		observers = append(observers, drawer.PipelineDrawer(drawer.NewDOTDrawer(opts.GraphFile), msr))
	}

	pipe, err := pipeline.New(ldr, observers...)
	if err != nil {
		return errors.Wrap(err, "unable to create pipeline")
	}

	output, err := pipe.Run(ctx, log, input, invocations)
	if err != nil {
		return err
	}

	err = raster.WriteFile(opts.OutputImage, output)
	if err != nil {
		return errors.Wrapf(err, "unable to write output image %s", opts.OutputImage)
	}

	log.Info().Str("output", opts.OutputImage).Int("channels", output.Channels()).Msg("output image written")

	return nil
}

// help prints the host usage, or the usage of every named computer. A computer that cannot be
// described is reported on stderr and does not prevent the others from being described. Help
// always succeeds.
func help(ctx context.Context, ldr *loader.Loader, names []string, stdout, stderr io.Writer) error {
	if len(names) == 0 {
		router.Usage(stdout)

		return nil
	}

	failed := 0

	for _, name := range names {
		err := ldr.Usage(ctx, name, stdout)
		if err != nil {
			failed++

			fmt.Fprintf(stderr, "featurepipe: %v\n", err)
		}
	}

	if failed > 0 {
		fmt.Fprintf(stderr, "featurepipe: %d of %d computers could not be described\n", failed, len(names))
	}

	return nil
}
