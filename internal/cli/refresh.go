package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRefreshCmd() *cobra.Command {
	var (
		tenant string
		all    bool
	)
	cmd := &cobra.Command{
		Use:   "refresh [id]",
		Short: "Refresh materialized views against their backend engines",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) != 1 {
				return fmt.Errorf("either an id or --all is required")
			}

			a, err := newApp(cmd, true)
			if err != nil {
				return err
			}
			defer a.Close()

			if all {
				a.svc.Sweep(cmd.Context())
				fmt.Println("Sweep complete")
				return nil
			}
			status, err := a.svc.RefreshOnce(cmd.Context(), tenant, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Refresh %s: %s\n", args[0], status)
			return nil
		},
	}
	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant id (required unless --all)")
	cmd.Flags().BoolVar(&all, "all", false, "refresh every enabled view across tenants")
	return cmd
}
