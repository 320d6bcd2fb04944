package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/vecfuse/internal/app"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/facet"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/filter"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/mode"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/request"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/result"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/sort"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	mode       string
	strategy   string
	sort       string
	page       int
	pageSize   int
	categories []string
	priceMin   float64
	priceMax   float64
	minRating  float64
	inStock    bool
	format     string
	facets     bool
}

func newSearchCmd(global *globalOptions) *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the product catalog",
		Long: `Search the catalog with hybrid lexical + vector retrieval.

An empty query browses the catalog when browse_on_empty is enabled.

Examples:
  vecfusectl search "wireless headphones"
  vecfusectl search lamp --mode lexical --category lighting --price-max 100
  vecfusectl search "running shoes" --strategy rrf --sort rating_desc --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := opts.params(cmd, strings.Join(args, " "))
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), global, func(ctx context.Context, a *app.App) error {
				req, err := request.New(params, a.Search.PageLimits())
				if err != nil {
					return err
				}
				resp, err := a.Search.Search(ctx, &req)
				if err != nil {
					return err
				}
				if opts.format == "json" {
					return writeJSON(cmd.OutOrStdout(), resp)
				}
				printResults(cmd.OutOrStdout(), resp, opts.facets)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&opts.mode, "mode", "m", "", "Search mode: hybrid, lexical, vector")
	cmd.Flags().StringVar(&opts.strategy, "strategy", "", "Fusion strategy: weighted, rrf")
	cmd.Flags().StringVarP(&opts.sort, "sort", "s", "", "Sort: relevance, price_asc, price_desc, rating_desc, newest")
	cmd.Flags().IntVar(&opts.page, "page", 0, "Zero-based page")
	cmd.Flags().IntVarP(&opts.pageSize, "limit", "n", 0, "Results per page")
	cmd.Flags().StringSliceVar(&opts.categories, "category", nil, "Category filter (repeatable)")
	cmd.Flags().Float64Var(&opts.priceMin, "price-min", 0, "Minimum price")
	cmd.Flags().Float64Var(&opts.priceMax, "price-max", 0, "Maximum price")
	cmd.Flags().Float64Var(&opts.minRating, "min-rating", 0, "Minimum rating")
	cmd.Flags().BoolVar(&opts.inStock, "in-stock", false, "Only products in stock")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().BoolVar(&opts.facets, "facets", false, "Print facets after the results")

	return cmd
}

// params builds request parameters; numeric filters apply only when their flag is set.
func (o *searchOptions) params(cmd *cobra.Command, query string) (request.Params, error) {
	if o.format != "text" && o.format != "json" {
		return request.Params{}, fmt.Errorf("unknown format %q", o.format)
	}

	flagPtr := func(name string, v float64) *float64 {
		if !cmd.Flags().Changed(name) {
			return nil
		}
		return &v
	}
	filters, err := filter.New(o.categories,
		flagPtr("price-min", o.priceMin),
		flagPtr("price-max", o.priceMax),
		flagPtr("min-rating", o.minRating),
		o.inStock,
	)
	if err != nil {
		return request.Params{}, fmt.Errorf("invalid filters: %w", err)
	}

	return request.Params{
		Query:    query,
		Mode:     mode.Mode(o.mode),
		Strategy: o.strategy,
		Sort:     sort.Option(o.sort),
		Page:     o.page,
		PageSize: o.pageSize,
		Filters:  filters,
	}, nil
}

func printResults(w io.Writer, resp result.Response, withFacets bool) {
	if len(resp.Hits) == 0 {
		fmt.Fprintln(w, "No results.")
	}
	offset := resp.Page * resp.PageSize
	for i, h := range resp.Hits {
		p := h.Product
		fmt.Fprintf(w, "%3d. %-40s %-14s %9.2f  ★%.1f  [%.4f lex=%.4f vec=%.4f]  %s\n",
			offset+i+1, truncate(p.Name, 40), truncate(p.Brand, 14), p.Price, p.Rating,
			h.CombinedScore, h.LexicalScore, h.VectorScore, p.ID)
	}
	fmt.Fprintf(w, "\nPage %d of %d, %d matching products\n", resp.Page+1, max(resp.TotalPages(), 1), resp.Total)

	if withFacets {
		printFacets(w, resp.Facets)
	}
}

func printFacets(w io.Writer, f facet.Facets) {
	printCounts(w, "Categories", f.Categories)
	printCounts(w, "Brands", f.Brands)
	printCounts(w, "Stock", f.Stock)
	printBuckets(w, "Price", f.Price)
	printBuckets(w, "Rating", f.Rating)
	fmt.Fprintf(w, "\nAverage price %.2f, average rating %.2f\n", f.AvgPrice, f.AvgRating)
}

func printCounts(w io.Writer, title string, counts []facet.Count) {
	if len(counts) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", title)
	for _, c := range counts {
		fmt.Fprintf(w, "  %-30s %d\n", c.Value, c.Count)
	}
}

func printBuckets(w io.Writer, title string, buckets []facet.Bucket) {
	if len(buckets) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", title)
	for _, b := range buckets {
		fmt.Fprintf(w, "  %8.2f - %-8.2f %d\n", b.Min, b.Max, b.Count)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
