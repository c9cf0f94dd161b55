package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/consultai/internal/model"
)

var scoreProfile model.BusinessProfile

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Rank expansion markets for a business profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		scorer, err := buildScorer()
		if err != nil {
			return err
		}

		ranking := scorer.Score(scoreProfile)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(ranking)
	},
}

func init() {
	scoreCmd.Flags().StringVar(&scoreProfile.Industry, "industry", "Technology", "industry")
	scoreCmd.Flags().StringVar(&scoreProfile.BusinessModel, "business-model", "Online", "business model")
	scoreCmd.Flags().StringVar(&scoreProfile.PresenceMode, "presence", "Digital", "presence mode")
	scoreCmd.Flags().StringVar(&scoreProfile.TargetMarket, "target-market", "Mass Market", "target market positioning")
	scoreCmd.Flags().StringVar(&scoreProfile.RiskProfile, "risk", "Medium", "risk profile")
	scoreCmd.Flags().StringVar(&scoreProfile.CustomerType, "customer-type", "B2C", "customer type")
	scoreCmd.Flags().Float64Var(&scoreProfile.Capital, "capital", 0, "available capital in USD")
	scoreCmd.Flags().StringSliceVar(&scoreProfile.Regions, "regions", nil, "restrict to regions")
	rootCmd.AddCommand(scoreCmd)
}
