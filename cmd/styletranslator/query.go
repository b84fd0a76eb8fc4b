package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"StyleTranslator/internal/app"
	"StyleTranslator/internal/domain"
	"StyleTranslator/internal/search"
	"StyleTranslator/internal/tui"
)

var (
	limit       int
	brandFilter string
)

func init() {
	for _, cmd := range []*cobra.Command{searchCmd, itemsCmd, brandsCmd, discussionsCmd} {
		cmd.Flags().IntVarP(&limit, "limit", "n", 0, "results per list (0 uses the configured default)")
	}
	itemsCmd.Flags().StringVar(&brandFilter, "brand", "", "only items of this brand")
	rootCmd.AddCommand(searchCmd, itemsCmd, brandsCmd, discussionsCmd, clearCmd, interactiveCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search items, brands and discussions for an aesthetic",
	Long: `Embed the query once per collection and print three ranked lists.

Examples:
  styletranslator search "minimalist scandinavian"
  styletranslator search --json -n 3 "japanese workwear"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.Application) error {
			d := a.Config().Search
			nI, nB, nD := orDefault(d.Items), orDefault(d.Brands), orDefault(d.Discussions)
			res, err := a.Search().ComprehensiveSearch(ctx, strings.Join(args, " "), nI, nB, nD)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), res)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, "ITEMS")
			if err := printItems(w, res.Items); err != nil {
				return err
			}
			fmt.Fprintln(w, "\nBRANDS")
			if err := printBrands(w, res.Brands); err != nil {
				return err
			}
			fmt.Fprintln(w, "\nDISCUSSIONS")
			return printDiscussions(w, res.Discussions)
		})
	},
}

var itemsCmd = &cobra.Command{
	Use:   "items <query>",
	Short: "Search clothing items, optionally within one brand",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.Application) error {
			var filter map[string]string
			if brandFilter != "" {
				filter = map[string]string{"brand": brandFilter}
			}
			res, err := a.Search().SearchItems(ctx, strings.Join(args, " "), orDefault(a.Config().Search.Items), filter)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), res)
			}
			return printItems(cmd.OutOrStdout(), res)
		})
	},
}

var brandsCmd = &cobra.Command{
	Use:   "brands <query>",
	Short: "Search brand profiles",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.Application) error {
			res, err := a.Search().SearchBrands(ctx, strings.Join(args, " "), orDefault(a.Config().Search.Brands))
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), res)
			}
			return printBrands(cmd.OutOrStdout(), res)
		})
	},
}

var discussionsCmd = &cobra.Command{
	Use:   "discussions <query>",
	Short: "Search style discussions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.Application) error {
			res, err := a.Search().SearchDiscussions(ctx, strings.Join(args, " "), orDefault(a.Config().Search.Discussions))
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), res)
			}
			return printDiscussions(cmd.OutOrStdout(), res)
		})
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop all three search collections (the checkpoint is kept)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.Application) error {
			if err := a.Search().Clear(ctx); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "index cleared")
			return err
		})
	},
}

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Open the terminal search UI",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.Application) error {
			counts, err := a.Search().Counts(ctx)
			summary := fmt.Sprintf("%d items · %d brands · %d discussions indexed", counts.Items, counts.Brands, counts.Discussions)
			if err != nil {
				summary = "index unavailable: " + err.Error()
			}
			d := a.Config().Search
			limits := tui.Limits{Items: orDefault(d.Items), Brands: orDefault(d.Brands), Discussions: orDefault(d.Discussions)}
			_, err = tea.NewProgram(tui.New(a.Search(), limits, summary), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			return err
		})
	},
}

// orDefault prefers the --limit flag over the configured count.
func orDefault(configured int) int {
	if limit > 0 {
		return limit
	}
	return configured
}

func printItems(w io.Writer, res []search.Result[domain.ClothingItem]) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "SCORE\tBRAND\tNAME\tCATEGORY\tPRICE\n")
	for _, r := range res {
		price := "-"
		if r.Record.PriceUSD != nil {
			price = fmt.Sprintf("$%.2f", *r.Record.PriceUSD)
		}
		fmt.Fprintf(tw, "%.3f\t%s\t%s\t%s\t%s\n", r.Similarity, r.Record.Brand, r.Record.Name, r.Record.Category, price)
	}
	return tw.Flush()
}

func printBrands(w io.Writer, res []search.Result[domain.Brand]) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "SCORE\tBRAND\tPRICE RANGE\tAESTHETICS\n")
	for _, r := range res {
		fmt.Fprintf(tw, "%.3f\t%s\t%s\t%s\n", r.Similarity, r.Record.Name, r.Record.PriceRange, strings.Join(r.Record.Aesthetics, ", "))
	}
	return tw.Flush()
}

func printDiscussions(w io.Writer, res []search.Result[domain.StyleDiscussion]) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "SCORE\tSOURCE\tTITLE\n")
	for _, r := range res {
		fmt.Fprintf(tw, "%.3f\t%s\t%s\n", r.Similarity, r.Record.SourceType, r.Record.Title)
	}
	return tw.Flush()
}
