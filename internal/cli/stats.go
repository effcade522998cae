package cli

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapaccel/pkg/core"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show acceleration counters partitioned by engine",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			stats := a.svc.MVStats()

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Engine", "Refresh OK", "Refresh Failed", "Rewrite Used", "Rewrite Bypassed"})
			for _, engine := range []core.EngineKind{core.EngineOLTP, core.EngineOLAP} {
				s := stats.ByEngine[engine]
				t.AppendRow(table.Row{engine, s.RefreshSuccess, s.RefreshFailed, s.RewriteUsed, s.RewriteBypassed})
			}
			t.AppendFooter(table.Row{"suggested", stats.Suggested, "", "", ""})
			t.Render()
			return nil
		},
	}
}
