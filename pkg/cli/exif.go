package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bstardust/geokit/internal/altitude"
	"github.com/bstardust/geokit/internal/batch"
	"github.com/bstardust/geokit/internal/fshelper"
	"github.com/bstardust/geokit/internal/metadata"
	"github.com/bstardust/geokit/internal/progress"
	"github.com/bstardust/geokit/internal/worker"
	"github.com/bstardust/geokit/pkg/common"
)

type exifOptions struct {
	wgs84       bool
	format      string
	concurrency int
	timezone    string
}

func newExifCommand(a *app) *cobra.Command {
	opts := &exifOptions{}

	cmd := &cobra.Command{
		Use:   "exif [flags] <photo|folder|takeout-*.zip>...",
		Short: "Extract GPS position, capture time and camera details from photos",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExif(cmd, a, opts, args)
		},
	}

	cmd.Flags().BoolVar(&opts.wgs84, "wgs84", false, "Also report GPS altitude as height above the WGS84 ellipsoid")
	cmd.Flags().StringVar(&opts.format, "format", batch.FormatJSON, "Output format (json, text)")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 0, "Number of concurrent extractions (default from config)")
	cmd.Flags().StringVar(&opts.timezone, "timezone", "", "Timezone for EXIF timestamps, or \"auto\" for the zone at each photo's position (default from config)")

	return cmd
}

func runExif(cmd *cobra.Command, a *app, opts *exifOptions, args []string) error {
	if opts.format != batch.FormatJSON && opts.format != batch.FormatText {
		return common.NewValidationError("format", fmt.Sprintf("%q is not one of json, text", opts.format))
	}

	cfg := a.cfg
	if opts.concurrency != 0 {
		if opts.concurrency < 0 {
			return common.NewValidationError("concurrency", "must be positive")
		}
		cfg.Extract.Concurrency = opts.concurrency
	}
	if opts.timezone != "" {
		cfg.Extract.Timezone = opts.timezone
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	sources, err := fshelper.ParsePath(args)
	if err != nil {
		return common.NewValidationError("path", err.Error())
	}
	defer fshelper.CloseAll(sources)

	var conv batch.CoordinateConverter
	if opts.wgs84 {
		conv = altitude.NewConverter(a.provider)
	}

	extractor := metadata.NewExtractor(cfg.Location())
	if cfg.ZoneFromGPS() {
		extractor = metadata.NewGPSZoneExtractor(cfg.Location())
	}

	runner := batch.New(
		extractor,
		conv,
		worker.NewPool(cfg.Extract.Concurrency),
		progress.New(),
		cmd.OutOrStdout(),
		opts.format,
	)
	return runner.Run(cmd.Context(), sources)
}
