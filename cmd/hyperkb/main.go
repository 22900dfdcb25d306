// Command hyperkb is the CLI for the layered hyperedge knowledge base:
// add facts and rules, query, validate proposals against active layers,
// explore the graph, load foundation packs, and export visualizations.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cognicore/hyperkb/pkg/hyperkb"
	"github.com/cognicore/hyperkb/pkg/hyperkb/edge"
	"github.com/cognicore/hyperkb/pkg/hyperkb/store"
	"github.com/cognicore/hyperkb/pkg/hyperkb/store/memstore"
	"github.com/cognicore/hyperkb/pkg/hyperkb/store/sqlite"
	"github.com/cognicore/hyperkb/pkg/hyperkb/validate"
	"github.com/cognicore/hyperkb/pkg/hyperkb/viz"
)

var (
	// Global flags
	dbPath       string
	verbose      bool
	familiesPath string

	logger *zap.Logger
	engine *hyperkb.Engine
)

var rootCmd = &cobra.Command{
	Use:   "hyperkb",
	Short: "Layered hyperedge knowledge base with tri-state rule validation",
	Long: `hyperkb maintains typed relational facts (hyperedges) organized into
named layers and decides, for proposed facts, whether they are permitted,
forbidden, or undecidable given the currently active layers, with a
traceable justification for each decision.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if verbose {
			logger, err = zap.NewDevelopment()
		} else {
			logger = zap.NewNop()
		}
		if err != nil {
			return err
		}

		var st store.Store
		if dbPath == "" {
			st = memstore.New()
		} else {
			st, err = sqlite.Open(cmd.Context(), dbPath)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
		}

		families := validate.DefaultFamilies()
		if familiesPath != "" {
			families, err = validate.LoadFamilies(familiesPath)
			if err != nil {
				return err
			}
		}

		engine = hyperkb.New(hyperkb.Options{
			Store:    st,
			Families: families,
			Logger:   logger,
		})
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if engine != nil {
			engine.Close()
		}
		if logger != nil {
			logger.Sync()
		}
	},
}

var addCmd = &cobra.Command{
	Use:   "add <edge-text>",
	Short: "Add an edge, e.g. '(contraindicated/P ibuprofen/C diabetes/C)'",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		attrs, err := parseAttrFlags(cmd)
		if err != nil {
			return err
		}
		e, err := engine.AddEdgeFromString(cmd.Context(), args[0], attrs)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), e.String())
		return nil
	},
}

var queryCmd = &cobra.Command{
	Use:   "query <pattern>",
	Short: "Search edges by pattern, e.g. '(contraindicated/* * *)' or a bare atom",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		results, err := engine.Query(cmd.Context(), args[0], limit)
		if err != nil {
			return err
		}
		for _, e := range results {
			fmt.Fprintln(cmd.OutOrStdout(), e.String())
		}
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate <proposal-edge>...",
	Short: "Validate proposed edges against the rules in the active layers",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		layers, _ := cmd.Flags().GetStringSlice("layers")
		pattern, _ := cmd.Flags().GetString("rule-pattern")
		confidenceMin, _ := cmd.Flags().GetFloat64("confidence-min")

		proposals := make([]edge.Edge, 0, len(args))
		for _, text := range args {
			e, err := edge.Parse(text)
			if err != nil {
				return err
			}
			proposals = append(proposals, e)
		}

		report, err := engine.Validate(cmd.Context(), validate.Request{
			Proposals:     proposals,
			RulePattern:   pattern,
			Layers:        layers,
			ConfidenceMin: confidenceMin,
		})
		if err != nil {
			return err
		}
		printReport(cmd, report)
		return nil
	},
}

var reasonCmd = &cobra.Command{
	Use:   "reason <seed>",
	Short: "Multi-hop exploration from a seed edge or atom",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hops, _ := cmd.Flags().GetInt("hops")
		limit, _ := cmd.Flags().GetInt("limit")

		results, err := engine.Reason(cmd.Context(), args[0], hops, limit)
		if err != nil {
			return err
		}
		for _, r := range results {
			fmt.Fprintf(cmd.OutOrStdout(), "[%d] %s\n", r.Depth, r.Text)
		}
		return nil
	},
}

var loadCmd = &cobra.Command{
	Use:   "load <pack-file>",
	Short: "Load a YAML or JSON foundation pack",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := engine.LoadFoundationPack(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "inserted=%d updated=%d skipped=%d errors=%d\n",
			result.Inserted, result.Updated, result.Skipped, len(result.Errors))
		for _, entryErr := range result.Errors {
			fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", entryErr.Edge, entryErr.Err)
		}
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <graphml|dot|html>",
	Short: "Export the graph for visualization tools",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pattern, _ := cmd.Flags().GetString("pattern")
		limit, _ := cmd.Flags().GetInt("limit")
		out := cmd.OutOrStdout()

		var count int
		var err error
		switch strings.ToLower(args[0]) {
		case "graphml":
			count, err = viz.ToGraphML(cmd.Context(), engine.Store(), out, pattern, limit)
		case "dot":
			count, err = viz.ToDOT(cmd.Context(), engine.Store(), out, pattern, limit)
		case "html":
			count, err = viz.ToHTML(cmd.Context(), engine.Store(), out, pattern, limit)
		default:
			return fmt.Errorf("unknown format %q", args[0])
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "exported %d hyperedges\n", count)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show knowledge-base statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		count, err := engine.Count(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "edges: %d\n", count)
		return nil
	},
}

func parseAttrFlags(cmd *cobra.Command) (store.Attributes, error) {
	pairs, _ := cmd.Flags().GetStringSlice("attr")
	layer, _ := cmd.Flags().GetString("layer")

	attrs := store.Attributes{}
	if layer != "" {
		attrs[store.KeyLayer] = layer
	}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("malformed attribute %q, want key=value", pair)
		}
		attrs[key] = value
	}
	return attrs, nil
}

func printReport(cmd *cobra.Command, report *validate.Report) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "decision: %s (rules checked: %d)\n", report.Decision, report.RulesChecked)
	if report.ContextDegraded {
		fmt.Fprintln(out, "warning: user context degraded")
	}
	for _, r := range report.Rejected {
		fmt.Fprintf(out, "  DENY    %s: %s\n", r.Text, r.Reason)
		printTrace(out, r.Trace)
	}
	for _, r := range report.Unknown {
		fmt.Fprintf(out, "  UNKNOWN %s: %s\n", r.Text, r.Reason)
		printTrace(out, r.Trace)
	}
	for _, r := range report.Kept {
		fmt.Fprintf(out, "  ALLOW   %s\n", r.Text)
		printTrace(out, r.Trace)
	}
}

func printTrace(out io.Writer, trace []validate.TraceEntry) {
	for _, entry := range trace {
		fmt.Fprintf(out, "          rule %s [layer=%s mandatory=%v confidence=%.2f] matched %s\n",
			entry.Rule, entry.Layer, entry.Mandatory, entry.Confidence,
			strings.Join(entry.Matched, ", "))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (in-memory store when empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	rootCmd.PersistentFlags().StringVar(&familiesPath, "families", "", "YAML keyword-family table for connector classification")

	addCmd.Flags().StringSlice("attr", nil, "attribute key=value (repeatable)")
	addCmd.Flags().String("layer", "", "layer attribute shorthand")

	queryCmd.Flags().Int("limit", 100, "maximum results")

	validateCmd.Flags().StringSlice("layers", nil, "active layers")
	validateCmd.Flags().String("rule-pattern", "", "explicit rule pattern")
	validateCmd.Flags().Float64("confidence-min", 0, "minimum rule confidence")

	reasonCmd.Flags().Int("hops", 2, "hop limit")
	reasonCmd.Flags().Int("limit", 100, "maximum results")

	exportCmd.Flags().String("pattern", "", "filter edges by pattern")
	exportCmd.Flags().Int("limit", 0, "maximum hyperedges to export")

	rootCmd.AddCommand(addCmd, queryCmd, validateCmd, reasonCmd, loadCmd, exportCmd, statsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
