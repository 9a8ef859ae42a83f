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

	"github.com/pantrymatch/backend/config"
	"github.com/pantrymatch/backend/internal/pkg/logging"
	"github.com/pantrymatch/backend/internal/usecase"
)

const version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:          "pantrymatch",
	Short:        "PantryMatch backend - pantry tracking and recipe matching",
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

var classifyCmd = &cobra.Command{
	Use:   "classify <ingredient name>",
	Short: "Show the taxonomy entry an ingredient name resolves to",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runClassify,
}

var suggestCmd = &cobra.Command{
	Use:   "suggest <ingredient name> <unit>",
	Short: "Check whether a unit fits an ingredient",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runSuggest,
}

func init() {
	rootCmd.AddCommand(serveCmd, classifyCmd, suggestCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting PantryMatch backend",
		zap.String("version", version),
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("database", cfg.Database.Driver),
		zap.String("cache", cfg.Cache.Type),
		zap.String("match_policy", cfg.Matching.Policy),
		zap.Bool("prompt_on_incompatible_units", cfg.Merge.PromptOnIncompatibleUnits),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", zap.Error(err))
		return err
	}
	defer app.Close()

	return app.Serve(ctx)
}

func runClassify(cmd *cobra.Command, args []string) error {
	holder, err := loadHolder()
	if err != nil {
		return err
	}
	printClassification(cmd.OutOrStdout(), holder, strings.Join(args, " "))
	return nil
}

func runSuggest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	holder, err := buildTaxonomy(cfg.Taxonomy)
	if err != nil {
		return err
	}

	unit := args[len(args)-1]
	name := strings.Join(args[:len(args)-1], " ")
	advisor := usecase.NewUnitAdvisor(holder, cfg.Advisor.MinConfidence)
	printSuggestion(cmd.OutOrStdout(), advisor, name, unit)
	return nil
}

func loadHolder() (*usecase.TaxonomyHolder, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return buildTaxonomy(cfg.Taxonomy)
}

func printClassification(w io.Writer, holder *usecase.TaxonomyHolder, name string) {
	entry := holder.Classify(name)
	fmt.Fprintf(w, "name:       %s\n", name)
	fmt.Fprintf(w, "fragment:   %s\n", entry.MatchFragment)
	fmt.Fprintf(w, "category:   %s\n", entry.Category)
	fmt.Fprintf(w, "unit:       %s\n", entry.CanonicalUnit)
	fmt.Fprintf(w, "confidence: %.2f\n", entry.Confidence)
}

func printSuggestion(w io.Writer, advisor *usecase.UnitAdvisor, name, unit string) {
	s := advisor.Suggest(name, unit)
	if s == nil {
		fmt.Fprintf(w, "%q looks fine for %s\n", unit, name)
		return
	}
	fmt.Fprintf(w, "suggest %s instead of %s: %s (confidence %.2f)\n", s.SuggestedUnit, unit, s.Reason, s.Confidence)
}
