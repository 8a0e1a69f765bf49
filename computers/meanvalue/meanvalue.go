// Package meanvalue provides a computer whose feature is the local mean grey level.
package meanvalue

import (
	"context"
	"io"
	"runtime"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/askiada/go-featurepipe/pkg/computer"
	"github.com/askiada/go-featurepipe/pkg/raster"
)

const (
	Name = "MeanValue"

	maxGrey = 255
)

type options struct {
	radius    int
	normalize bool
}

// Computer outputs the mean of channel 0 over a cube of side 2*radius+1 around each voxel.
// Outside the raster, the nearest border voxel is used.
type Computer struct{}

// New returns a mean value computer.
func New() computer.Computer {
	return &Computer{}
}

func schema(opts *options) *computer.Schema {
	s := computer.NewSchema(Name)
	s.Flags().IntVarP(&opts.radius, "radius", "r", 2, "Radius of the mean filter")
	s.Flags().BoolVarP(&opts.normalize, "normalize", "n", false, "Divide the mean by 255")

	return s
}

func (c *Computer) Usage(w io.Writer) {
	schema(&options{}).Usage(w)
}

func (c *Computer) Compute(ctx context.Context, log zerolog.Logger, input *raster.Raster, args []string) (*raster.Raster, error) {
	opts := &options{}
	s := schema(opts)

	err := s.Parse(args)
	if err != nil {
		return nil, err
	}

	if opts.radius < 0 {
		return nil, s.Invalid("radius", "must not be negative, got %d", opts.radius)
	}

	size := input.Size()
	radii := [3]int{opts.radius, opts.radius, opts.radius}

	cur, err := raster.Extract(input, []int{0})
	if err != nil {
		return nil, computer.Failed(Name, err)
	}

	for axis, radius := range radii {
		next, err := raster.New(size, 1)
		if err != nil {
			return nil, computer.Failed(Name, err)
		}

		err = boxPass(ctx, cur, next, axis, radius)
		if err != nil {
			return nil, computer.Failed(Name, err)
		}

		cur = next
	}

	if opts.normalize {
		scale(cur, 1.0/maxGrey)
	}

	log.Debug().Int("radius", opts.radius).Bool("normalize", opts.normalize).Msg("mean value computed")

	return cur, nil
}

// boxPass writes in dst the mean of src over [i-radius, i+radius] along axis, clamping indices to
// the raster. Slices along z are processed concurrently.
func boxPass(ctx context.Context, src, dst *raster.Raster, axis, radius int) error {
	size := src.Size()
	extent := [3]int{size.X, size.Y, size.Z}[axis]
	width := float32(2*radius + 1)

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(runtime.GOMAXPROCS(0))

	for z := range size.Z {
		group.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			for y := range size.Y {
				for x := range size.X {
					pos := [3]int{x, y, z}
					center := pos[axis]

					var sum float32

					for d := -radius; d <= radius; d++ {
						pos[axis] = clamp(center+d, extent)
						sum += src.At(pos[0], pos[1], pos[2], 0)
					}

					dst.Set(x, y, z, 0, sum/width)
				}
			}

			return nil
		})
	}

	return group.Wait()
}

func clamp(i, extent int) int {
	switch {
	case i < 0:
		return 0
	case i >= extent:
		return extent - 1
	default:
		return i
	}
}

func scale(r *raster.Raster, factor float32) {
	size := r.Size()
	for z := range size.Z {
		for y := range size.Y {
			for x := range size.X {
				r.Set(x, y, z, 0, r.At(x, y, z, 0)*factor)
			}
		}
	}
}

var _ computer.Computer = (*Computer)(nil)
