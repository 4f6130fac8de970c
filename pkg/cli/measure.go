package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bstardust/geokit/internal/measure"
)

func newDistanceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "distance <lat1> <lon1> <lat2> <lon2>",
		Short: "Print the great-circle distance between two points in meters",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			lat1, lon1, err := parseLatLon(args[0], args[1])
			if err != nil {
				return err
			}
			lat2, lon2, err := parseLatLon(args[2], args[3])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%.3f\n", measure.HaversineDistance(lat1, lon1, lat2, lon2))
			return nil
		},
	}
}

func newMeasureCommand() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "measure --mode <mode> <lon,lat[,alt]>...",
		Short: "Measure a distance, path, height difference or area",
		Long: `Measure over a list of points given as lon,lat or lon,lat,alt.

Modes:
  distance        great-circle distance between exactly two points
  multi-distance  length of the path through two or more points
  height          altitude difference between exactly two points
  area            spherical area of the polygon through three or more points`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := measure.ParseMode(mode)
			if err != nil {
				return measureError(err)
			}
			points, err := parsePoints(args)
			if err != nil {
				return err
			}

			res, err := measure.Measure(m, points)
			if err != nil {
				return measureError(err)
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(res)
		},
	}

	cmd.Flags().StringVar(&mode, "mode", string(measure.ModeDistance), "Measurement mode")
	return cmd
}
