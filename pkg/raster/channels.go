package raster

import (
	"slices"

	"github.com/pkg/errors"
)

// ErrKeepXorRemove is returned when neither or both channel lists are given.
var ErrKeepXorRemove = errors.New("provide either the channels to keep or the channels to remove (not both)")

// SelectChannels turns a 1-based keep or remove list into the 0-based list of channels to extract
// from a raster with total channels.
//
// Keep lists are used as given, so a repeated index yields a repeated channel. Remove lists are
// treated as sets. Every index, in either list, must be within [1, total].
func SelectChannels(total int, keep, remove []int) ([]int, error) {
	if (len(keep) == 0) == (len(remove) == 0) {
		return nil, ErrKeepXorRemove
	}

	for _, c := range slices.Concat(keep, remove) {
		if c < 1 || c > total {
			return nil, errors.Wrapf(ErrChannelOutOfBand, "channel #%d does not exist, raster has %d", c, total)
		}
	}

	if len(keep) > 0 {
		out := make([]int, len(keep))
		for i, c := range keep {
			out[i] = c - 1
		}

		return out, nil
	}

	out := make([]int, 0, total)

	for c := 1; c <= total; c++ {
		if !slices.Contains(remove, c) {
			out = append(out, c-1)
		}
	}

	return out, nil
}
