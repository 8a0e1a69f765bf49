// Package coordinates provides a computer whose features are the voxel coordinates.
package coordinates

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"github.com/askiada/go-featurepipe/pkg/computer"
	"github.com/askiada/go-featurepipe/pkg/raster"
)

const Name = "Coordinates"

type options struct {
	dimension int
	normalize bool
}

// Computer outputs, for every voxel, its x and y indices, plus z in dimension 3.
// With normalisation, each index is divided by the size of the raster along its axis.
type Computer struct{}

// New returns a coordinates computer.
func New() computer.Computer {
	return &Computer{}
}

func schema(opts *options) *computer.Schema {
	s := computer.NewSchema(Name)
	s.Flags().IntVarP(&opts.dimension, "dimension", "d", 3, "Dimensions of the coordinates space: 2 or 3")
	s.Flags().BoolVarP(&opts.normalize, "normalize", "n", false, "Divide each coordinate by the image size along its axis")

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

	if opts.dimension != 2 && opts.dimension != 3 {
		return nil, s.Invalid("dimension", "must be 2 or 3, got %d", opts.dimension)
	}

	size := input.Size()

	out, err := raster.New(size, opts.dimension)
	if err != nil {
		return nil, computer.Failed(Name, err)
	}

	scale := [3]float32{1, 1, 1}
	if opts.normalize {
		scale = [3]float32{float32(size.X), float32(size.Y), float32(size.Z)}
	}

	for z := range size.Z {
		if ctx.Err() != nil {
			return nil, computer.Failed(Name, ctx.Err())
		}

		for y := range size.Y {
			for x := range size.X {
				voxel := out.Voxel(x, y, z)
				voxel[0] = float32(x) / scale[0]
				voxel[1] = float32(y) / scale[1]

				if opts.dimension == 3 {
					voxel[2] = float32(z) / scale[2]
				}
			}
		}
	}

	log.Debug().Int("dimension", opts.dimension).Bool("normalize", opts.normalize).Msg("coordinates computed")

	return out, nil
}

var _ computer.Computer = (*Computer)(nil)
