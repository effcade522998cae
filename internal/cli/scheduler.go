package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newSchedulerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scheduler",
		Short: "Run the periodic refresh sweep until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, true)
			if err != nil {
				return err
			}
			defer a.Close()

			if !a.cfg.Features.AutoRefresh {
				return fmt.Errorf("auto-refresh is disabled; set features.auto_refresh_enabled to true")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a.svc.StartScheduler(ctx)
			<-ctx.Done()
			a.svc.StopScheduler()
			return nil
		},
	}
}
