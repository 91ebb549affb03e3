package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pkordes/rv-park/backend/internal/domain"
)

// ─── seed ───────────────────────────────────────────────────────────────────

func init() {
	rootCmd.AddCommand(seedCmd)
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the park's campsite catalog",
	Long: `Create one campsite per slot in each park area, numbered consecutively
from 1. Woods sites are tent sites; every other area has full hookups.
Sites that already exist are left alone, so seed can be re-run.`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	engine, closeFn, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	created, number := 0, 0
	for _, area := range domain.Locations {
		siteType := domain.SiteFullHookup
		if area.Location == domain.LocationWoods {
			siteType = domain.SiteTent
		}
		for i := 0; i < area.Sites; i++ {
			number++
			_, err := engine.GetCampsiteBySiteNumber(ctx, number)
			if err == nil {
				continue
			}
			if !errors.Is(err, domain.ErrNotFound) {
				return err
			}
			if _, err := engine.CreateCampsite(ctx, domain.NewCampsite(number, siteType, area.Location)); err != nil {
				return fmt.Errorf("site %d: %w", number, err)
			}
			created++
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d campsites (%d total)\n", created, number)
	return nil
}
