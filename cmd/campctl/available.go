package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pkordes/rv-park/backend/internal/domain"
)

// ─── available ──────────────────────────────────────────────────────────────

func init() {
	rootCmd.AddCommand(availableCmd)

	availableCmd.Flags().String("start", "", "First day of the stay (YYYY-MM-DD)")
	availableCmd.Flags().String("end", "", "Last day of the stay (YYYY-MM-DD)")
	availableCmd.Flags().String("type", "", "Only sites of this type (FULL_HOOKUP or TENT)")
	availableCmd.Flags().String("location", "", "Only sites in this area")
	_ = availableCmd.MarkFlagRequired("start")
	_ = availableCmd.MarkFlagRequired("end")
}

var availableCmd = &cobra.Command{
	Use:   "available",
	Short: "List campsites free for a stay",
	Args:  cobra.NoArgs,
	RunE:  runAvailable,
}

func runAvailable(cmd *cobra.Command, args []string) error {
	start, _ := cmd.Flags().GetString("start")
	end, _ := cmd.Flags().GetString("end")
	siteType, _ := cmd.Flags().GetString("type")
	location, _ := cmd.Flags().GetString("location")

	stay, err := parseStay(start, end)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	engine, closeFn, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	sites, err := engine.FindAvailable(ctx, stay, domain.CampsiteFilter{
		Type:     domain.SiteType(siteType),
		Location: domain.Location(location),
	})
	if err != nil {
		return err
	}

	rates := engine.Policy().Rates
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SITE\tTYPE\tLOCATION\tRATE\tTOTAL")
	for _, s := range sites {
		spec, _ := rates.Lookup(s.Type)
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			s.SiteNumber, s.Type, s.Location, spec.DailyRate.Display(), spec.DailyRate.MultiplyInt(stay.Nights()).Display())
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d sites free for %s (%d nights)\n", len(sites), stay, stay.Nights())
	return nil
}

func parseStay(start, end string) (domain.DateRange, error) {
	s, err := domain.ParseDate(start)
	if err != nil {
		return domain.DateRange{}, err
	}
	e, err := domain.ParseDate(end)
	if err != nil {
		return domain.DateRange{}, err
	}
	stay := domain.NewStay(s, e)
	return stay, stay.Validate()
}
