package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ZanzyTHEbar/karma-compass/internal/analysis"
	"github.com/ZanzyTHEbar/karma-compass/internal/catalog"
	"github.com/ZanzyTHEbar/karma-compass/internal/config"
	"github.com/ZanzyTHEbar/karma-compass/internal/monitoring"
	"github.com/ZanzyTHEbar/karma-compass/internal/server"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// CLI holds state shared by the subcommands
type CLI struct {
	logLevel string
	logger   *monitoring.Logger
}

// analyzeRequest is the document read by `karma analyze`; it has the same
// shape as the POST /analyze body.
type analyzeRequest struct {
	BeliefSystems []string               `json:"beliefSystems" yaml:"beliefSystems" validate:"required,min=1,dive,required"`
	Answers       analysis.SystemAnswers `json:"answers" yaml:"answers"`
	Profile       analysis.Profile       `json:"profile" yaml:"profile"`
}

// NewRootCommand creates the root cobra command
func NewRootCommand() *cobra.Command {
	cli := &CLI{}

	rootCmd := &cobra.Command{
		Use:   "karma",
		Short: "Karma type analysis across belief systems",
		Long: fmt.Sprintf(`%s

Scores questionnaire answers from astrology, psychology, chakras, numerology
and tarot, and merges them into a primary and secondary karma type.

%s
  karma analyze -f answers.yaml --pretty
  karma analyze -f answers.json --system tarot,astrology
  karma catalog list
  karma catalog validate
  karma serve --port 8080`,
			bold("Karma Compass "+server.Version),
			bold("EXAMPLES:")),
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cli.logger = monitoring.NewLoggerWithWriter(cmd.ErrOrStderr(), cli.logLevel)
		},
	}

	rootCmd.PersistentFlags().StringVar(&cli.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newAnalyzeCommand(cli))
	rootCmd.AddCommand(newCatalogCommand())
	rootCmd.AddCommand(newServeCommand(cli))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// newAnalyzeCommand creates the analyze subcommand
func newAnalyzeCommand(cli *CLI) *cobra.Command {
	var (
		file    string
		systems []string
		pretty  bool
		asOf    string
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze an answers document and print the result as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := readRequest(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			if len(systems) > 0 {
				req.BeliefSystems = systems
			}
			if err := validator.New().Struct(req); err != nil {
				return fmt.Errorf("invalid request: %w", err)
			}

			cfg := analysis.DefaultConfig()
			if asOf != "" {
				date, err := analysis.ParseDate(asOf)
				if err != nil {
					return fmt.Errorf("invalid --as-of: %w", err)
				}
				cfg.Now = func() time.Time { return date.Time }
			}

			cat, err := catalog.LoadEmbedded()
			if err != nil {
				return fmt.Errorf("failed to load catalogs: %w", err)
			}

			start := time.Now()
			result, err := analysis.NewAnalyzer(cat, cfg).Analyze(req.BeliefSystems, req.Answers, req.Profile)
			if err != nil {
				var analysisErr *analysis.AnalysisError
				if errors.As(err, &analysisErr) {
					for _, w := range analysisErr.Warnings {
						cli.logger.WarningLogger(string(w.Code), nil, "belief_system", w.BeliefSystem)
					}
				}
				return err
			}
			for _, w := range result.Warnings {
				cli.logger.WarningLogger(string(w.Code), nil, "belief_system", w.BeliefSystem)
			}
			cli.logger.AnalysisLogger(req.BeliefSystems, result.Primary.ID, result.Confidence, len(result.Warnings), time.Since(start), false)

			return writeJSON(cmd.OutOrStdout(), result, pretty)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Answers document (.json, .yaml or .yml); - reads JSON from stdin")
	cmd.Flags().StringSliceVarP(&systems, "system", "s", nil, "Belief systems to analyze, overriding the document")
	cmd.Flags().BoolVarP(&pretty, "pretty", "p", false, "Indent the JSON output")
	cmd.Flags().StringVar(&asOf, "as-of", "", "Evaluate age bands as of this date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func readRequest(stdin io.Reader, file string) (*analyzeRequest, error) {
	var (
		data []byte
		err  error
	)
	if file == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read answers: %w", err)
	}

	var req analyzeRequest
	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &req)
	default:
		err = json.Unmarshal(data, &req)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", file, err)
	}
	return &req, nil
}

func writeJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// newCatalogCommand creates the catalog subcommand
func newCatalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the karma type and questionnaire catalogs",
	}

	var asJSON bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List karma types and questionnaires",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.LoadEmbedded()
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"karmaTypes":     cat.KarmaTypes(),
					"questionnaires": cat.Questionnaires(),
				}, true)
			}
			return printCatalog(cmd.OutOrStdout(), cat)
		},
	}
	listCmd.Flags().BoolVar(&asJSON, "json", false, "Print the full catalogs as JSON")

	var karmaTypesFile, questionnairesFile string
	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Check catalogs for missing fields and dangling references",
		Long: `Validates the embedded catalogs, or external YAML documents when both
--karma-types and --questionnaires are given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, source, err := loadCatalogForValidation(karmaTypesFile, questionnairesFile)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), yellow("catalog validation failed:"))
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %d karma types, %d questionnaires\n",
				green("catalog OK"), source, len(cat.KarmaTypes()), len(cat.Questionnaires()))
			return nil
		},
	}
	validateCmd.Flags().StringVar(&karmaTypesFile, "karma-types", "", "Karma types YAML document")
	validateCmd.Flags().StringVar(&questionnairesFile, "questionnaires", "", "Questionnaires YAML document")
	validateCmd.MarkFlagsRequiredTogether("karma-types", "questionnaires")

	cmd.AddCommand(listCmd, validateCmd)
	return cmd
}

func loadCatalogForValidation(karmaTypesFile, questionnairesFile string) (*catalog.Catalog, string, error) {
	if karmaTypesFile == "" {
		cat, err := catalog.LoadEmbedded()
		return cat, "embedded", err
	}

	karmaTypesDoc, err := os.ReadFile(karmaTypesFile)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read karma types: %w", err)
	}
	questionnairesDoc, err := os.ReadFile(questionnairesFile)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read questionnaires: %w", err)
	}
	cat, err := catalog.Load(karmaTypesDoc, questionnairesDoc)
	return cat, karmaTypesFile + ", " + questionnairesFile, err
}

func printCatalog(w io.Writer, cat *catalog.Catalog) error {
	weights := analysis.DefaultConfig()

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, bold("KARMA TYPE")+"\tNAME\tELEMENT\tCHAKRA")
	for _, kt := range cat.KarmaTypes() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", kt.ID, kt.Name, kt.Element, kt.Chakra)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, bold("BELIEF SYSTEM")+"\tNAME\tQUESTIONS\tTRUST WEIGHT")
	for _, q := range cat.Questionnaires() {
		weight, ok := weights.TrustWeights[q.BeliefSystem]
		if !ok {
			weight = 1
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.1f\n", q.BeliefSystem, q.Name, len(q.Questions), weight)
	}
	return tw.Flush()
}

// newServeCommand creates the serve subcommand
func newServeCommand(cli *CLI) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Runs the HTTP API. Settings come from KARMA_* environment variables and an
optional karma-config.yaml in the working directory or $HOME; flags win.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := config.New()
			if err := v.BindPFlag("port", cmd.Flags().Lookup("port")); err != nil {
				return err
			}
			if err := v.BindPFlag("redis_addr", cmd.Flags().Lookup("redis-addr")); err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				v.Set("log_level", cli.logLevel)
			}

			cfg, err := config.FromViper(v)
			if err != nil {
				return err
			}

			logger := monitoring.NewLogger(cfg.LogLevel)
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return server.ListenAndServe(ctx, cfg, logger)
		},
	}

	cmd.Flags().String("port", "8080", "Port to listen on")
	cmd.Flags().String("redis-addr", "", "Redis address for shared rate limiting")

	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Version: %s\n", server.Version)
		},
	}
}
