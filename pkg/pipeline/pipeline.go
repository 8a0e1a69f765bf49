package pipeline

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/askiada/go-featurepipe/pkg/computer"
	"github.com/askiada/go-featurepipe/pkg/pipeline/model"
	"github.com/askiada/go-featurepipe/pkg/raster"
	"github.com/askiada/go-featurepipe/pkg/router"
)

const tracerName = "github.com/askiada/go-featurepipe/pkg/pipeline"

// ModuleLoader gives scoped access to the computer of a module. See loader.Loader.
type ModuleLoader interface {
	Use(ctx context.Context, name string, fn func(comp computer.Computer) error) error
}

// Pipeline runs invocations one after the other. It is not safe for concurrent use.
type Pipeline struct {
	modules ModuleLoader
	tracer  trace.Tracer
	opts    []model.PipelineOption
	state   State
}

// New creates a new pipeline. Observers are initialised here and finished at the end of Run,
// so a pipeline with observers is meant to run once.
func New(modules ModuleLoader, opts ...model.PipelineOption) (*Pipeline, error) {
	if modules == nil {
		return nil, ErrLoaderMustBeSet
	}

	pipe := &Pipeline{
		modules: modules,
		tracer:  otel.Tracer(tracerName),
		opts:    opts,
	}

	for _, opt := range opts {
		err := opt.New()
		if err != nil {
			return nil, errors.Wrap(err, "unable to apply pipeline option")
		}
	}

	return pipe, nil
}

// State returns the stage the pipeline is in. After Run, it is either Idle or Failed.
func (p *Pipeline) State() State {
	return p.state
}

// Run computes the features of every invocation on input, in order, and returns their
// channel-wise concatenation. Invocation positions are their 1-based ranks in invocations.
//
// log is handed to every computer, with the computer name and position added. The first failure
// stops the run and is returned as an *InvocationError.
func (p *Pipeline) Run(ctx context.Context, log zerolog.Logger, input *raster.Raster, invocations []router.Invocation) (*raster.Raster, error) {
	if input == nil {
		return nil, ErrInputMustBeSet
	}

	if len(invocations) == 0 {
		return nil, ErrNoInvocations
	}

	ctx, span := p.tracer.Start(ctx, "pipeline.Run", trace.WithAttributes(attribute.Int("invocations", len(invocations))))
	defer span.End()

	startTime := time.Now()
	parent := model.Start

	var acc *raster.Raster

	for i, inv := range invocations {
		info := &model.InvocationInfo{Name: inv.Name, Args: inv.Args, Position: i + 1}

		var err error

		acc, err = p.runInvocation(ctx, log, input, acc, parent, info)
		if err != nil {
			p.state = Failed

			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			_ = p.finishRun(log, time.Since(startTime), err)

			return nil, err
		}

		parent = info
	}

	p.state = Idle

	span.SetAttributes(attribute.Int("channels", acc.Channels()))

	err := p.finishRun(log, time.Since(startTime), nil)
	if err != nil {
		return nil, err
	}

	return acc, nil
}

// runInvocation takes the pipeline through Loading, Computing, Merging and Unloading for one
// invocation and returns the new accumulator.
func (p *Pipeline) runInvocation(
	ctx context.Context,
	log zerolog.Logger,
	input, acc *raster.Raster,
	parent, info *model.InvocationInfo,
) (*raster.Raster, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.Invocation", trace.WithAttributes(
		attribute.Int("position", info.Position),
		attribute.String("computer", info.Name),
	))
	defer span.End()

	invLog := log.With().Int("position", info.Position).Str("computer", info.Name).Logger()

	fail := func(err error) error {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return &InvocationError{Position: info.Position, Name: info.Name, Stage: p.state, Err: err}
	}

	p.state = Loading

	for _, opt := range p.opts {
		err := opt.PrepareInvocation(parent, info)
		if err != nil {
			return nil, fail(errors.Wrap(err, "unable to prepare invocation"))
		}
	}

	var (
		timings     model.Timings
		merged      *raster.Raster
		unloadStart time.Time
	)

	invLog.Debug().Strs("args", info.Args).Msg("loading computer")

	loadStart := time.Now()

	err := p.modules.Use(ctx, info.Name, func(comp computer.Computer) error {
		timings.Load = time.Since(loadStart)
		p.state = Computing

		computeStart := time.Now()
		out, err := comp.Compute(ctx, invLog, input, info.Args)
		timings.Compute = time.Since(computeStart)

		if err != nil {
			return computer.Failed(info.Name, err)
		}

		if out == nil {
			return computer.Failed(info.Name, computer.ErrNilOutput)
		}

		p.state = Merging

		mergeStart := time.Now()

		merged, err = merge(acc, out)
		if err != nil {
			return errors.Wrap(err, "unable to merge output")
		}

		timings.Merge = time.Since(mergeStart)
		timings.Channels = out.Channels()

		p.state = Unloading
		unloadStart = time.Now()

		return nil
	})
	if err != nil {
		return nil, fail(err)
	}

	timings.Unload = time.Since(unloadStart)

	span.SetAttributes(attribute.Int("channels", timings.Channels))
	invLog.Info().
		Int("channels", timings.Channels).
		Dur("compute", timings.Compute).
		Msg("computer done")

	for _, opt := range p.opts {
		err := opt.OnInvocationDone(info, timings)
		if err != nil {
			return nil, fail(errors.Wrap(err, "unable to record invocation"))
		}
	}

	p.state = Idle

	return merged, nil
}

// merge appends out to acc. The first output becomes the accumulator as is.
func merge(acc, out *raster.Raster) (*raster.Raster, error) {
	if acc == nil {
		return out, nil
	}

	return raster.Concat(acc, out)
}

// finishRun lets every observer close the run. After a failed run, observer errors are only
// logged so the run error is the one returned.
func (p *Pipeline) finishRun(log zerolog.Logger, total time.Duration, runErr error) error {
	for _, opt := range p.opts {
		err := opt.AfterRun(total, runErr)
		if err == nil {
			continue
		}

		if runErr != nil {
			log.Warn().Err(err).Msg("pipeline option failed after run")

			continue
		}

		return errors.Wrap(err, "unable to close pipeline option")
	}

	for _, opt := range p.opts {
		err := opt.Finish()
		if err == nil {
			continue
		}

		if runErr != nil {
			log.Warn().Err(err).Msg("unable to finish pipeline option")

			continue
		}

		return errors.Wrap(err, "unable to finish pipeline option")
	}

	return nil
}
