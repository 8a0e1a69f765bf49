// Package haralick provides a computer whose features are the Haralick texture descriptors of the
// grey level co-occurrence matrix computed around each voxel.
package haralick

import (
	"context"
	"io"
	"math"
	"runtime"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/askiada/go-featurepipe/pkg/computer"
	"github.com/askiada/go-featurepipe/pkg/raster"
)

const Name = "Haralick"

var ErrNonFiniteInput = errors.New("input holds a NaN or infinite value")

// Features are the output channels, in order.
var Features = []string{
	"energy",
	"entropy",
	"correlation",
	"inverse difference moment",
	"inertia",
	"cluster shade",
	"cluster prominence",
	"haralick correlation",
}

type options struct {
	offsets tripleList
	window  triple
	levels  int
}

// Computer posterizes channel 0 into a number of grey levels, then describes the texture of the
// window around every voxel with the features of its symmetric co-occurrence matrix. Pairs are
// counted for every offset, both voxels of a pair lying inside the window.
type Computer struct{}

// New returns a Haralick computer.
func New() computer.Computer {
	return &Computer{}
}

func schema(opts *options) *computer.Schema {
	s := computer.NewSchema(Name)
	s.Flags().IntVarP(&opts.levels, "posterization", "p", 0, "Posterization level, at least 2")
	s.Flags().VarP(&opts.window, "window", "w", "Window radius")
	s.Flags().VarP(&opts.offsets, "offset", "o", "Co-occurrence offset, may be repeated or followed by several values")
	s.Require("posterization", "window", "offset")

	return s
}

func (c *Computer) Usage(w io.Writer) {
	schema(&options{}).Usage(w)
}

func (c *Computer) Compute(ctx context.Context, log zerolog.Logger, input *raster.Raster, args []string) (*raster.Raster, error) {
	opts := &options{}
	s := schema(opts)

	err := s.Parse(expandMultitoken(args, "-o", "--offset"))
	if err != nil {
		return nil, err
	}

	if opts.levels < 2 {
		return nil, s.Invalid("posterization", "must be at least 2, got %d", opts.levels)
	}

	bins, err := posterize(input, opts.levels)
	if err != nil {
		return nil, computer.Failed(Name, err)
	}

	log.Info().Int("levels", opts.levels).Msg("posterization done")

	size := input.Size()

	out, err := raster.New(size, len(Features))
	if err != nil {
		return nil, computer.Failed(Name, err)
	}

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(runtime.GOMAXPROCS(0))

	for z := range size.Z {
		group.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			glcm := make([]float64, opts.levels*opts.levels)

			for y := range size.Y {
				for x := range size.X {
					total := cooccurrence(glcm, bins, size, [3]int{x, y, z}, opts)
					describe(out.Voxel(x, y, z), glcm, opts.levels, total)
				}
			}

			return nil
		})
	}

	err = group.Wait()
	if err != nil {
		return nil, computer.Failed(Name, err)
	}

	log.Info().Int("offsets", len(opts.offsets)).Msg("computation of Haralick features done")

	return out, nil
}

// posterize maps channel 0 linearly from [min, max] onto the levels 0..levels-1.
// Every value must be finite.
func posterize(input *raster.Raster, levels int) ([]int, error) {
	size := input.Size()
	bins := make([]int, size.Voxels())

	minValue, maxValue := float32(math.Inf(1)), float32(math.Inf(-1))

	for z := range size.Z {
		for y := range size.Y {
			for x := range size.X {
				v := input.At(x, y, z, 0)
				if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
					return nil, errors.Wrapf(ErrNonFiniteInput, "voxel (%d, %d, %d) is %v", x, y, z, v)
				}

				minValue = min(minValue, v)
				maxValue = max(maxValue, v)
			}
		}
	}

	if maxValue <= minValue {
		return bins, nil
	}

	span := float64(maxValue - minValue)
	i := 0

	for z := range size.Z {
		for y := range size.Y {
			for x := range size.X {
				rel := float64(input.At(x, y, z, 0)-minValue) / span
				bins[i] = int(math.Round(rel * float64(levels-1)))
				i++
			}
		}
	}

	return bins, nil
}

// cooccurrence fills glcm with the symmetric pair counts of the window centred on center and
// returns the number of counted entries.
func cooccurrence(glcm []float64, bins []int, size raster.Size, center [3]int, opts *options) float64 {
	clear(glcm)

	extent := [3]int{size.X, size.Y, size.Z}

	var lo, hi [3]int

	for axis := range 3 {
		lo[axis] = max(center[axis]-opts.window[axis], 0)
		hi[axis] = min(center[axis]+opts.window[axis], extent[axis]-1)
	}

	index := func(p [3]int) int {
		return (p[2]*size.Y+p[1])*size.X + p[0]
	}

	total := 0.0

	for z := lo[2]; z <= hi[2]; z++ {
		for y := lo[1]; y <= hi[1]; y++ {
			for x := lo[0]; x <= hi[0]; x++ {
				a := bins[index([3]int{x, y, z})]

				for _, off := range opts.offsets {
					n := [3]int{x + off[0], y + off[1], z + off[2]}
					if n[0] > hi[0] || n[1] > hi[1] || n[2] > hi[2] {
						continue
					}

					b := bins[index(n)]
					glcm[a*opts.levels+b]++
					glcm[b*opts.levels+a]++
					total += 2
				}
			}
		}
	}

	return total
}

// describe writes the features of the co-occurrence counts into dst. An empty matrix, or a
// constant window for the correlations, gives zeros.
func describe(dst []float32, glcm []float64, levels int, total float64) {
	clear(dst)

	if total == 0 {
		return
	}

	var mean float64

	for i := range levels {
		for j := range levels {
			mean += float64(i) * glcm[i*levels+j] / total
		}
	}

	var (
		variance, energy, entropy, correlation, idm, inertia, shade, prominence, ijSum float64
	)

	for i := range levels {
		for j := range levels {
			p := glcm[i*levels+j] / total
			if p == 0 {
				continue
			}

			di, dj := float64(i)-mean, float64(j)-mean
			diff := float64(i - j)

			variance += di * di * p
			energy += p * p
			entropy -= p * math.Log2(p)
			correlation += di * dj * p
			idm += p / (1 + diff*diff)
			inertia += diff * diff * p
			shade += math.Pow(di+dj, 3) * p
			prominence += math.Pow(di+dj, 4) * p
			ijSum += float64(i*j) * p
		}
	}

	if variance > 0 {
		correlation /= variance
	} else {
		correlation = 0
	}

	// Haralick's own correlation uses the mean and variance of the marginal probabilities.
	var marginalMean, marginalVariance float64

	marginals := make([]float64, levels)
	for i := range levels {
		for j := range levels {
			marginals[i] += glcm[i*levels+j] / total
		}

		marginalMean += marginals[i] / float64(levels)
	}

	for _, m := range marginals {
		marginalVariance += (m - marginalMean) * (m - marginalMean) / float64(levels)
	}

	var haralickCorrelation float64
	if marginalVariance > 0 {
		haralickCorrelation = (ijSum - marginalMean*marginalMean) / marginalVariance
	}

	values := []float64{energy, entropy, correlation, idm, inertia, shade, prominence, haralickCorrelation}
	for i, v := range values {
		dst[i] = float32(v)
	}
}

var _ computer.Computer = (*Computer)(nil)
