package raster

import (
	"image"
	"image/color"
	_ "image/gif"  // gif decoder
	_ "image/jpeg" // jpeg decoder
	_ "image/png"  // png decoder
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"  // bmp decoder
	_ "golang.org/x/image/tiff" // tiff decoder
)

var (
	ErrEmptySeries = errors.New("no image slice found")

	slicePattern = regexp.MustCompile(`(?i)\.(png|bmp|jpe?g|tiff?)$`)
)

// Load reads an input raster. The path may point to an encoded raster (Extension), a single 2D
// image (one slice) or a directory of 2D images stacked along Z in file name order.
// Images are converted to grey levels in [0, 255], stored in a single channel.
func Load(path string) (*Raster, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "%q cannot be read", path)
	}

	if info.IsDir() {
		return loadSeries(path)
	}

	if strings.EqualFold(filepath.Ext(path), Extension) {
		return ReadFile(path)
	}

	img, err := decodeImage(path)
	if err != nil {
		return nil, err
	}

	return stack([]image.Image{img})
}

func decodeImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open image %q", path)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to decode image %q", path)
	}

	return img, nil
}

func loadSeries(dir string) (*Raster, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "%q cannot be read", dir)
	}

	names := []string{}

	for _, entry := range entries {
		if entry.IsDir() || !slicePattern.MatchString(entry.Name()) {
			continue
		}

		names = append(names, entry.Name())
	}

	if len(names) == 0 {
		return nil, errors.Wrapf(ErrEmptySeries, "in %q", dir)
	}

	sort.Strings(names)

	slices := make([]image.Image, len(names))

	for i, name := range names {
		img, err := decodeImage(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}

		slices[i] = img
	}

	return stack(slices)
}

func stack(slices []image.Image) (*Raster, error) {
	bounds := slices[0].Bounds()
	size := Size{X: bounds.Dx(), Y: bounds.Dy(), Z: len(slices)}

	out, err := New(size, 1)
	if err != nil {
		return nil, errors.Wrap(err, "unable to allocate image raster")
	}

	for z, img := range slices {
		b := img.Bounds()
		if b.Dx() != size.X || b.Dy() != size.Y {
			return nil, errors.Wrapf(ErrSizeMismatch, "slice %d is %dx%d, expected %dx%d", z, b.Dx(), b.Dy(), size.X, size.Y)
		}

		for y := range size.Y {
			for x := range size.X {
				grey, _ := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
				out.Set(x, y, z, 0, float32(grey.Y))
			}
		}
	}

	return out, nil
}
