package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bstardust/geokit/internal/altitude"
	"github.com/bstardust/geokit/internal/geoid"
	"github.com/bstardust/geokit/pkg/common"
)

func newUndulationCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "undulation <lat> <lon>",
		Short: "Print the EGM96 geoid height above the WGS84 ellipsoid in meters",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lat, lon, err := parseLatLon(args[0], args[1])
			if err != nil {
				return err
			}

			n, err := a.provider.Undulation(cmd.Context(), lat, lon)
			if err != nil {
				return fmt.Errorf("failed to look up undulation: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%.4f\n", n)
			return nil
		},
	}
}

func newConvertCommand(a *app) *cobra.Command {
	var to string

	cmd := &cobra.Command{
		Use:   "convert --to wgs84|msl <alt> <lat> <lon>",
		Short: "Convert an altitude between mean sea level and the WGS84 ellipsoid",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			alt, err := parseNumber("altitude", args[0])
			if err != nil {
				return err
			}
			lat, lon, err := parseLatLon(args[1], args[2])
			if err != nil {
				return err
			}

			conv := altitude.NewConverter(a.provider)
			var h float64
			switch to {
			case "wgs84":
				h, err = conv.MSLToWGS84(cmd.Context(), alt, lat, lon)
			case "msl":
				h, err = conv.WGS84ToMSL(cmd.Context(), alt, lat, lon)
			default:
				return common.NewValidationError("to", fmt.Sprintf("%q is not one of wgs84, msl", to))
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%.4f\n", h)
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "wgs84", "Target reference (wgs84, msl)")
	return cmd
}

func newCacheCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the downloaded geoid grid",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove the cached grid file so the next lookup downloads it again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.provider.DeleteGridFile(); err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", a.provider.GridPath())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "info",
		Short: "Show the grid source and cache location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status := "absent"
			if _, err := os.Stat(a.provider.GridPath()); err == nil {
				status = "present"
			} else if !errors.Is(err, os.ErrNotExist) {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "source=%s\n", a.provider.DataSourceURL())
			fmt.Fprintf(out, "grid=%s\n", a.provider.GridPath())
			fmt.Fprintf(out, "status=%s\n", status)
			return nil
		},
	})

	return cmd
}

var _ altitude.UndulationSource = (*geoid.Provider)(nil)
