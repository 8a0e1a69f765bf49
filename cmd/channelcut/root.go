package main

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/askiada/go-featurepipe/pkg/raster"
)

type cutOptions struct {
	input  string
	output string
	keep   []int
	remove []int
}

func newRootCmd(log zerolog.Logger) *cobra.Command {
	opts := &cutOptions{}

	cmd := &cobra.Command{
		Use:   "channelcut",
		Short: "Keep or remove channels of a feature image",
		Long: `Keep or remove channels of a feature image.

Give either the channels to keep, in the order they must appear in the output,
or the channels to remove. Channels are numbered from 1. A list option takes
comma separated indices, may be repeated, or may be followed by several indices
("--keep 3 1").`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cut(log, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.input, "input-image", "i", "", "Input image (required)")
	flags.StringVarP(&opts.output, "output-image", "o", "", "Output image (required)")
	flags.IntSliceVarP(&opts.keep, "keep", "k", nil, "Channels to keep, comma separated or repeated")
	flags.IntSliceVarP(&opts.remove, "remove", "r", nil, "Channels to remove, comma separated or repeated")

	_ = cmd.MarkFlagRequired("input-image")
	_ = cmd.MarkFlagRequired("output-image")

	return cmd
}

func cut(log zerolog.Logger, opts *cutOptions) error {
	log.Info().Str("input", opts.input).Str("output", opts.output).Msg("cutting channels")

	input, err := raster.Load(opts.input)
	if err != nil {
		return errors.Wrapf(err, "the image located at %q is not readable", opts.input)
	}

	channels, err := raster.SelectChannels(input.Channels(), opts.keep, opts.remove)
	if err != nil {
		return err
	}

	log.Info().Ints("channels", channels).Msg("channels to keep, 0-based")

	output, err := raster.Extract(input, channels)
	if err != nil {
		return errors.Wrap(err, "unable to extract channels")
	}

	err = raster.WriteFile(opts.output, output)
	if err != nil {
		return errors.Wrapf(err, "unable to write %s", opts.output)
	}

	return nil
}
