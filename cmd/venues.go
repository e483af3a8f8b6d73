package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/peachtree-labs/happyhour/internal/seed"
)

var venuesCmd = &cobra.Command{
	Use:   "venues",
	Short: "Inspect and seed the venue directory",
}

var venuesListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print all venues, grouped by neighborhood",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		venues, err := st.ListVenues(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NEIGHBORHOOD\tNAME\tDAYS\tDEAL")
		for _, v := range venues {
			days := ""
			for _, d := range []struct {
				on bool
				c  string
			}{
				{v.Monday, "M"}, {v.Tuesday, "T"}, {v.Wednesday, "W"},
				{v.Thursday, "R"}, {v.Friday, "F"},
			} {
				if d.on {
					days += d.c
				} else {
					days += "-"
				}
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", v.Neighborhood, v.RestaurantName, days, v.DealDescription)
		}
		return w.Flush()
	},
}

var venuesImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Bulk-import venues from a .csv, .xlsx or .yaml seed file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		venues, err := seed.ReadFile(args[0])
		if err != nil {
			return err
		}

		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		var imported, failed int
		for _, v := range venues {
			if v.ID == "" {
				v.ID = uuid.New().String()
			}
			if _, err := st.InsertVenue(cmd.Context(), v); err != nil {
				zap.L().Warn("import skipped venue",
					zap.String("restaurant", v.RestaurantName), zap.Error(err))
				failed++
				continue
			}
			imported++
		}

		zap.L().Info("import complete",
			zap.String("file", args[0]),
			zap.Int("imported", imported),
			zap.Int("failed", failed),
		)
		return nil
	},
}

func init() {
	venuesCmd.AddCommand(venuesListCmd)
	venuesCmd.AddCommand(venuesImportCmd)
	rootCmd.AddCommand(venuesCmd)
}
