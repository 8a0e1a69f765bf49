package raster

import (
	"math"

	"github.com/pkg/errors"
)

var (
	ErrNilRaster        = errors.New("raster must be set")
	ErrInvalidSize      = errors.New("raster size must be strictly positive")
	ErrInvalidChannels  = errors.New("raster must have at least one channel")
	ErrSizeMismatch     = errors.New("raster sizes do not match")
	ErrChannelOutOfBand = errors.New("channel index out of range")
	ErrTooLarge         = errors.New("raster is too large")
)

// Size is the spatial extent of a raster, in voxels.
type Size struct {
	X, Y, Z int
}

// Voxels returns the number of voxels covered by the size.
func (s Size) Voxels() int {
	return s.X * s.Y * s.Z
}

func (s Size) valid() bool {
	return s.X > 0 && s.Y > 0 && s.Z > 0
}

// Raster is a 3D grid of voxels, each holding a fixed number of float32 channels.
// Channels of a voxel are stored contiguously.
type Raster struct {
	data     []float32
	size     Size
	channels int
}

// New allocates a zeroed raster.
func New(size Size, channels int) (*Raster, error) {
	total, err := values(size, channels)
	if err != nil {
		return nil, err
	}

	return &Raster{
		data:     make([]float32, total),
		size:     size,
		channels: channels,
	}, nil
}

// values checks a raster shape and returns the number of values it holds.
func values(size Size, channels int) (int, error) {
	if !size.valid() {
		return 0, errors.Wrapf(ErrInvalidSize, "got %dx%dx%d", size.X, size.Y, size.Z)
	}

	if channels < 1 {
		return 0, errors.Wrapf(ErrInvalidChannels, "got %d", channels)
	}

	total := uint64(size.X) * uint64(size.Y) * uint64(size.Z) * uint64(channels)
	if total > math.MaxInt32 {
		return 0, errors.Wrapf(ErrTooLarge, "%d values", total)
	}

	return int(total), nil
}

// Size returns the spatial extent of the raster.
func (r *Raster) Size() Size {
	return r.size
}

// Channels returns the number of channels per voxel.
func (r *Raster) Channels() int {
	return r.channels
}

func (r *Raster) offset(x, y, z int) int {
	return ((z*r.size.Y+y)*r.size.X + x) * r.channels
}

// At returns channel c of the voxel at (x, y, z).
func (r *Raster) At(x, y, z, c int) float32 {
	return r.data[r.offset(x, y, z)+c]
}

// Set sets channel c of the voxel at (x, y, z).
func (r *Raster) Set(x, y, z, c int, v float32) {
	r.data[r.offset(x, y, z)+c] = v
}

// Voxel returns the channels of the voxel at (x, y, z). The returned slice aliases the raster.
func (r *Raster) Voxel(x, y, z int) []float32 {
	o := r.offset(x, y, z)

	return r.data[o : o+r.channels : o+r.channels]
}

// Clone returns a deep copy of the raster.
func (r *Raster) Clone() *Raster {
	data := make([]float32, len(r.data))
	copy(data, r.data)

	return &Raster{data: data, size: r.size, channels: r.channels}
}

// Concat stacks the channels of b after the channels of a. Both rasters must have the same size.
// Neither input is modified.
func Concat(a, b *Raster) (*Raster, error) {
	if a == nil || b == nil {
		return nil, ErrNilRaster
	}

	if a.size != b.size {
		return nil, errors.Wrapf(ErrSizeMismatch, "%v and %v", a.size, b.size)
	}

	out, err := New(a.size, a.channels+b.channels)
	if err != nil {
		return nil, errors.Wrap(err, "unable to allocate concatenated raster")
	}

	for i := range a.size.Voxels() {
		dst := out.data[i*out.channels : (i+1)*out.channels]
		copy(dst, a.data[i*a.channels:(i+1)*a.channels])
		copy(dst[a.channels:], b.data[i*b.channels:(i+1)*b.channels])
	}

	return out, nil
}

// Extract builds a raster made of the given channels of r, in the given order.
// Indices are 0-based and may repeat.
func Extract(r *Raster, channels []int) (*Raster, error) {
	if r == nil {
		return nil, ErrNilRaster
	}

	for _, c := range channels {
		if c < 0 || c >= r.channels {
			return nil, errors.Wrapf(ErrChannelOutOfBand, "channel #%d, raster has %d", c+1, r.channels)
		}
	}

	out, err := New(r.size, len(channels))
	if err != nil {
		return nil, errors.Wrap(err, "unable to allocate extracted raster")
	}

	for i := range r.size.Voxels() {
		src := r.data[i*r.channels : (i+1)*r.channels]
		dst := out.data[i*out.channels : (i+1)*out.channels]

		for j, c := range channels {
			dst[j] = src[c]
		}
	}

	return out, nil
}
