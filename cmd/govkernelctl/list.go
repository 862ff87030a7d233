package main

import (
	"fmt"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"govkernel/internal/api"
	govstrings "govkernel/pkg/strings"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List modules or a module's instances",
	}
	cmd.AddCommand(newListModulesCmd())
	cmd.AddCommand(newListInstancesCmd())
	return cmd
}

func newListModulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "modules",
		Short: "List installed modules and their status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := demoManager.ModuleIds()
			sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleRounded)
			t.AppendHeader(table.Row{
				text.FgHiCyan.Sprint("MODULE"),
				text.FgHiCyan.Sprint("STATUS"),
				text.FgHiCyan.Sprint("VERSIONS"),
				text.FgHiCyan.Sprint("CANARY"),
				text.FgHiCyan.Sprint("PROPERTIES"),
			})

			for _, id := range ids {
				rt, ok := demoManager.Runtime(id)
				if !ok {
					continue
				}
				canary := "-"
				if v, ok := rt.CanaryVersion(); ok {
					canary = string(v)
				}
				t.AppendRow(table.Row{
					string(id),
					rt.Status().String(),
					fmt.Sprint(rt.Versions()),
					canary,
					govstrings.TruncateDescription(fmt.Sprint(rt.Definition().Properties), govstrings.DefaultDescriptionMaxLen),
				})
			}
			t.Render()
			return nil
		},
	}
}

func newListInstancesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "instances <module>",
		Short: "List a module's blue/green instances",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			moduleID := args[0]
			rt, ok := demoManager.Runtime(api.ModuleId(moduleID))
			if !ok {
				return fmt.Errorf("module %s not found", moduleID)
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleRounded)
			t.AppendHeader(table.Row{
				text.FgHiCyan.Sprint("VERSION"),
				text.FgHiCyan.Sprint("READY"),
				text.FgHiCyan.Sprint("DYING"),
				text.FgHiCyan.Sprint("ACTIVE CALLS"),
				text.FgHiCyan.Sprint("LABELS"),
			})

			for _, inst := range rt.Instances() {
				ready := text.FgRed.Sprint("no")
				if inst.Ready {
					ready = text.FgGreen.Sprint("yes")
				}
				dying := "no"
				if inst.Dying {
					dying = text.FgYellow.Sprint("yes")
				}
				t.AppendRow(table.Row{
					string(inst.Version),
					ready,
					dying,
					inst.ActiveCalls,
					govstrings.TruncateDescription(fmt.Sprint(inst.Labels), govstrings.LabelColumnMaxLen),
				})
			}
			t.Render()
			return nil
		},
	}
}
