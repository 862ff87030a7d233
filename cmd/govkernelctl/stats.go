package main

import (
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"govkernel/internal/api"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show per-version traffic counts across every installed module",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := demoManager.ModuleIds()
			sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleRounded)
			t.AppendHeader(table.Row{
				text.FgHiCyan.Sprint("MODULE"),
				text.FgHiCyan.Sprint("VERSION"),
				text.FgHiCyan.Sprint("CALLS SERVED"),
			})

			for _, id := range ids {
				rt, ok := demoManager.Runtime(id)
				if !ok {
					continue
				}
				counts := rt.TrafficCounts()
				if len(counts) == 0 {
					t.AppendRow(table.Row{string(id), "-", 0})
					continue
				}
				versions := make([]string, 0, len(counts))
				for v := range counts {
					versions = append(versions, string(v))
				}
				sort.Strings(versions)
				for _, v := range versions {
					t.AppendRow(table.Row{string(id), v, counts[api.Version(v)]})
				}
			}
			t.Render()
			return nil
		},
	}
}
