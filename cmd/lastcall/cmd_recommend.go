package main

import (
	"errors"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/rushteam/lastcall/recommend"
)

func newRecommendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Compute recommendations for one user against the persisted index",
		Example: `  lastcall recommend --user 42
  lastcall recommend --user 42 --lat 37.5665 --lng 126.9780 --radius 3 --variant same_category --explain`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			user, _ := cmd.Flags().GetString("user")
			lat, _ := cmd.Flags().GetString("lat")
			lng, _ := cmd.Flags().GetString("lng")
			radius, _ := cmd.Flags().GetString("radius")
			variant, _ := cmd.Flags().GetString("variant")
			limit, _ := cmd.Flags().GetInt("limit")
			explain, _ := cmd.Flags().GetBool("explain")
			if user == "" {
				return errors.New("--user is required")
			}

			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			geo, err := recommend.ParseGeo(lat, lng, radius, s.Recommend.MaxRadiusKm)
			if err != nil {
				return err
			}
			rt, err := openRuntime(ctx, s)
			if err != nil {
				return err
			}
			defer rt.Close()

			engine, err := recommend.NewEngine(rt.catalog, rt.index,
				recommend.OptionsFromSettings(s.Recommend),
				recommend.WithLogger(rt.logger),
			)
			if err != nil {
				return err
			}
			res, err := engine.Recommend(ctx, recommend.Request{
				UserID:  user,
				Geo:     geo,
				Variant: recommend.Variant(variant),
				Limit:   limit,
				Explain: explain,
			})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
	cmd.Flags().String("user", "", "User ID")
	cmd.Flags().String("lat", "", "Latitude of the pickup location")
	cmd.Flags().String("lng", "", "Longitude of the pickup location")
	cmd.Flags().String("radius", "", "Search radius in km (clamped to recommend.max_radius_km)")
	cmd.Flags().String("variant", "", "default, same_category, same_store or same_category_or_store")
	cmd.Flags().Int("limit", 0, "Maximum number of items (0 uses recommend.limit)")
	cmd.Flags().Bool("explain", false, "Include per-item score breakdown")
	return cmd
}
