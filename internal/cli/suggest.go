package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapaccel/internal/catalog"
)

func newSuggestCmd() *cobra.Command {
	var (
		tenant   string
		window   time.Duration
		create   bool
		targetDB string
	)
	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Propose materialized views from recent slow-query workload",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if window <= 0 {
				window = a.cfg.Detector.Window
			}
			since := time.Now().Add(-window)

			candidates := a.svc.SuggestFromRecentWorkload(tenant, since)
			if len(candidates) == 0 {
				fmt.Println("No candidates found")
				return nil
			}

			for _, c := range candidates {
				fmt.Printf("%s  x%d  %s\n", c.Name, c.Occurrences, c.DefinitionSQL)
				if !create {
					continue
				}
				// The detector only identifies candidates; persisting the
				// proposal is this caller's write.
				v, err := a.svc.Catalog().Create(cmd.Context(), tenant, catalog.CreateInput{
					Name:           c.Name,
					DefinitionSQL:  c.DefinitionSQL,
					Engine:         string(c.Engine),
					TargetDatabase: targetDB,
					Proposed:       true,
				})
				if err != nil {
					return err
				}
				fmt.Printf("  proposed as %s\n", v.ID)
			}
			a.svc.RecordSuggested(len(candidates))
			return nil
		},
	}
	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant id")
	cmd.Flags().DurationVar(&window, "window", 0, "lookback window (default from config)")
	cmd.Flags().BoolVar(&create, "create", false, "persist candidates as proposed catalog entries")
	cmd.Flags().StringVar(&targetDB, "target-database", "analytics", "analytical target database for created proposals")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}
