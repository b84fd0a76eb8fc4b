package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"StyleTranslator/internal/app"
	"StyleTranslator/internal/domain"
	"StyleTranslator/internal/usecase"
)

var (
	runEvery time.Duration
	loadType string
)

func init() {
	runCmd.Flags().DurationVar(&runEvery, "every", 0, "repeat the full run at this interval until interrupted")
	loadCmd.Flags().StringVar(&loadType, "type", "", "record type in the file: items, brands or discussions")
	_ = loadCmd.MarkFlagRequired("type")
	rootCmd.AddCommand(runCmd, sourceCmd, gapfillCmd, profilesCmd, indexCmd, statsCmd, exportCmd, loadCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run every configured source, gap fill and brand profile synthesis",
	Long: `Run the full ingestion pipeline, resuming from the last checkpoint.

Examples:
  # One full run
  styletranslator run

  # Re-run every six hours
  styletranslator run --every 6h`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.Application) error {
			if runEvery > 0 {
				return a.RunEvery(ctx, runEvery)
			}
			summary, err := a.Run(ctx)
			if err != nil {
				return err
			}
			return printSummary(cmd.OutOrStdout(), summary)
		})
	},
}

var sourceCmd = &cobra.Command{
	Use:   "source <name>",
	Short: "Run the stages of one source, or one source/target stage",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.Application) error {
			summary, err := a.RunSource(ctx, args[0])
			if err != nil {
				return err
			}
			return printSummary(cmd.OutOrStdout(), summary)
		})
	},
}

var gapfillCmd = &cobra.Command{
	Use:   "gapfill",
	Short: "Top up brands that have fewer items than the configured minimum",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.Application) error {
			if err := a.Preflight(); err != nil {
				return err
			}
			report, err := a.Pipeline().FillBrandGaps(ctx)
			if err != nil {
				return err
			}
			return printGapReport(cmd.OutOrStdout(), report)
		})
	},
}

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Synthesize brand profiles for brands known only through items",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.Application) error {
			n, err := a.Pipeline().BuildBrandProfiles(ctx)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), map[string]int{"synthesized": n})
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "synthesized %d brand profiles\n", n)
			return err
		})
	},
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Embed every checkpointed record into the semantic index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.Application) error {
			counts, err := a.Pipeline().IndexAll(ctx)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), counts)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "indexed %d items, %d brands, %d discussions\n",
				counts.Items, counts.Brands, counts.Discussions)
			return err
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show checkpoint totals, index counts and the last recorded run",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.Application) error {
			stats, err := a.Stats(ctx)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), stats)
			}
			return printStats(cmd.OutOrStdout(), stats)
		})
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write items, brands, discussions and stats as JSON files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.Application) error {
			dir, err := a.Export()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "exported to %s\n", dir)
			return err
		})
	},
}

var loadCmd = &cobra.Command{
	Use:   "load <file>",
	Short: "Index a JSON file of items, brands or discussions",
	Long: `Index records from a JSON array, such as the files written by export.

Examples:
  styletranslator load --type items ./data/production/items.json
  styletranslator load --type brands brands.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.Application) error {
			n, err := a.LoadFile(ctx, args[0], loadType)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), map[string]any{"type": loadType, "loaded": n})
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "loaded %d %s\n", n, loadType)
			return err
		})
	},
}

func printSummary(w io.Writer, s domain.Summary) error {
	if jsonOutput {
		return printJSON(w, s)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "items\t%d\n", s.TotalItems)
	fmt.Fprintf(tw, "brands\t%d\n", s.TotalBrands)
	fmt.Fprintf(tw, "discussions\t%d\n", s.TotalDiscussions)
	fmt.Fprintf(tw, "unique brands\t%d\n", s.UniqueBrands)
	fmt.Fprintf(tw, "errors\t%d\n", s.Errors)
	for _, name := range sortedKeys(s.Sources) {
		fmt.Fprintf(tw, "source %s\t%d\n", name, s.Sources[name])
	}
	return tw.Flush()
}

func printGapReport(w io.Writer, r usecase.GapReport) error {
	if jsonOutput {
		type row struct {
			Brand     string `json:"brand"`
			Had       int    `json:"had"`
			Requested int    `json:"requested"`
			Added     int    `json:"added"`
			Error     string `json:"error,omitempty"`
		}
		rows := make([]row, 0, len(r.Brands))
		for _, g := range r.Brands {
			out := row{Brand: g.Brand, Had: g.Had, Requested: g.Requested, Added: g.Added}
			if g.Err != nil {
				out.Error = g.Err.Error()
			}
			rows = append(rows, out)
		}
		return printJSON(w, map[string]any{"threshold": r.Threshold, "brands": rows})
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "BRAND\tHAD\tREQUESTED\tADDED\tERROR\n")
	for _, g := range r.Brands {
		msg := ""
		if g.Err != nil {
			msg = g.Err.Error()
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\n", g.Brand, g.Had, g.Requested, g.Added, msg)
	}
	return tw.Flush()
}

func printStats(w io.Writer, s app.Stats) error {
	if err := printSummary(w, s.Checkpoint); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if s.IndexErr != nil {
		fmt.Fprintf(tw, "index\tunavailable: %v\n", s.IndexErr)
	} else {
		fmt.Fprintf(tw, "indexed items\t%d\n", s.Index.Items)
		fmt.Fprintf(tw, "indexed brands\t%d\n", s.Index.Brands)
		fmt.Fprintf(tw, "indexed discussions\t%d\n", s.Index.Discussions)
	}
	if s.LastRun != nil {
		fmt.Fprintf(tw, "last run\t%s (%s, %d errors)\n", s.LastRun.RunID, s.LastRun.CreatedAt, len(s.LastRun.Errors))
	}
	return tw.Flush()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
