package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapaccel/internal/catalog"
	"github.com/leapstack-labs/leapaccel/pkg/core"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage materialized view definitions",
	}
	cmd.AddCommand(
		newCatalogListCmd(),
		newCatalogCreateCmd(),
		newCatalogShowCmd(),
		newCatalogEnableCmd(),
		newCatalogApproveCmd(),
		newCatalogDeleteCmd(),
	)
	return cmd
}

func newCatalogListCmd() *cobra.Command {
	var tenant string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the tenant's materialized views",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			var f catalog.Filter
			if cmd.Flags().Changed("enabled") {
				v, _ := cmd.Flags().GetBool("enabled")
				f.Enabled = &v
			}
			if cmd.Flags().Changed("proposed") {
				v, _ := cmd.Flags().GetBool("proposed")
				f.Proposed = &v
			}

			views, err := a.svc.Catalog().List(cmd.Context(), tenant, f)
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"ID", "Name", "Engine", "Enabled", "Proposed", "Last Refresh", "Refreshed At"})
			for _, v := range views {
				refreshedAt := "-"
				if v.LastRefreshedAt != nil {
					refreshedAt = v.LastRefreshedAt.Format(time.RFC3339)
				}
				t.AppendRow(table.Row{v.ID, v.Name, v.Engine, v.Enabled, v.Proposed, v.LastRefreshStatus, refreshedAt})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant id")
	cmd.Flags().Bool("enabled", false, "filter by enabled")
	cmd.Flags().Bool("proposed", false, "filter by proposed")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}

func newCatalogCreateCmd() *cobra.Command {
	var (
		tenant   string
		name     string
		sqlText  string
		engine   string
		targetDB string
		enabled  bool
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a materialized view definition",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			v, err := a.svc.Catalog().Create(cmd.Context(), tenant, catalog.CreateInput{
				Name:           name,
				DefinitionSQL:  sqlText,
				Engine:         engine,
				TargetDatabase: targetDB,
				Enabled:        enabled,
			})
			if err != nil {
				return err
			}

			fmt.Printf("Created %s (engine=%s, signature=%s)\n", v.ID, v.Engine, v.Signature[:12])
			return nil
		},
	}
	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant id")
	cmd.Flags().StringVar(&name, "name", "", "human-readable label")
	cmd.Flags().StringVar(&sqlText, "sql", "", "definition query")
	cmd.Flags().StringVar(&engine, "engine", "", "serving engine: oltp or olap (default oltp)")
	cmd.Flags().StringVar(&targetDB, "target-database", "", "analytical target database (olap only)")
	cmd.Flags().BoolVar(&enabled, "enabled", false, "allow rewrites to use this view")
	_ = cmd.MarkFlagRequired("tenant")
	_ = cmd.MarkFlagRequired("sql")
	return cmd
}

func newCatalogShowCmd() *cobra.Command {
	var tenant string
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a materialized view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			v, err := a.svc.Catalog().Get(cmd.Context(), tenant, args[0])
			if err != nil {
				return err
			}
			printView(v)
			return nil
		},
	}
	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant id")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}

func newCatalogEnableCmd() *cobra.Command {
	var (
		tenant  string
		disable bool
	)
	cmd := &cobra.Command{
		Use:   "enable <id>",
		Short: "Allow (or with --disable, stop) rewrites through a view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			enabled := !disable
			v, err := a.svc.Catalog().Update(cmd.Context(), tenant, args[0], catalog.Patch{Enabled: &enabled})
			if err != nil {
				return err
			}
			if v.Enabled {
				fmt.Printf("Enabled %s\n", v.ID)
			} else {
				fmt.Printf("Disabled %s\n", v.ID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant id")
	cmd.Flags().BoolVar(&disable, "disable", false, "disable instead of enable")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}

func newCatalogApproveCmd() *cobra.Command {
	var tenant string
	cmd := &cobra.Command{
		Use:   "approve <id>",
		Short: "Approve a detector-proposed view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			v, err := a.svc.Catalog().Approve(cmd.Context(), tenant, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Approved %s (%s)\n", v.ID, v.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant id")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}

func newCatalogDeleteCmd() *cobra.Command {
	var tenant string
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a materialized view definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.svc.Catalog().Delete(cmd.Context(), tenant, args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant id")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}

func printView(v *core.MaterializedView) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendRows([]table.Row{
		{"ID", v.ID},
		{"Tenant", v.TenantID},
		{"Name", v.Name},
		{"Engine", v.Engine},
		{"Target database", v.TargetDatabase},
		{"Enabled", v.Enabled},
		{"Proposed", v.Proposed},
		{"Last refresh", v.LastRefreshStatus},
		{"Signature", v.Signature},
		{"Definition", v.DefinitionSQL},
	})
	t.Render()
}
