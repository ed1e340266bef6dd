package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"talentscout/internal/ai"
	"talentscout/internal/ai/gemini"
	"talentscout/internal/criteria"
	"talentscout/internal/export"
	"talentscout/internal/linkedin"
	"talentscout/internal/logger"
	"talentscout/internal/pipeline"
	"talentscout/internal/secrets"
)

const (
	PromptYes        = "Yes"
	PromptNo         = "No"
	PromptExportCSV  = "Export matches to CSV"
	PromptDumpToFile = "Dump full results to file"
	PromptExit       = "Exit"

	defaultRequestDelay = 2500 * time.Millisecond
)

var errExit = errors.New("exit requested")

var runCmd = &cobra.Command{
	Use:   "run [query]",
	Short: "Run a candidate discovery search for a free-text recruiting query",
	Args:  cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation of the parsed criteria")
	runCmd.Flags().IntP("pages", "p", 0, "override the configured result page ceiling")
}

// run is the main command for the cli.
func run(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting talentscout", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if config == nil {
		logger.Fatal("config is required")
	}

	if config.Browser == nil || config.Browser.BridgeURL == "" {
		logger.Fatal("browser bridge url is required under browser.bridge-url")
	}

	parser, evaluator, err := buildClassifiers(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal(
			"building the classifier",
			zap.Error(err),
			zap.String("hint", "set GEMINI_API_KEY_FILE or the 'ai.gemini.api-key-file' key in the configuration file"),
		)
	}

	pipe := buildPipeline(cmd, config, parser, evaluator, logger)

	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		query, err = askQuery()
		if err != nil {
			logger.Fatal("reading query", zap.Error(err))
		}
	}

	logger.Info("parsing the query", zap.String("query", query))

	crit, err := parser.Parse(ctx, query)
	if err != nil {
		if errors.Is(err, criteria.ErrAmbiguousQuery) || errors.Is(err, criteria.ErrContradictoryBounds) {
			logger.Fatal("could not turn the query into search criteria",
				zap.Error(err),
				zap.String("hint", "name a company and, optionally, a time window, e.g. 'Uber Eats engineers who left between 2023 and 2025'"),
			)
		}
		logger.Fatal("parsing the query", zap.Error(err))
	}

	if cmd.Flag("auto-approve").Value.String() == "false" {
		fmt.Printf("\nI understood your search as:\n  %s\n\n", crit.Describe())

		confirm := promptui.Select{
			Label: "Search with these criteria?",
			Items: []string{PromptYes, PromptNo},
		}
		if _, answer, err := confirm.Run(); err != nil || answer != PromptYes {
			logger.Info("exiting", zap.String("reason", "criteria rejected, try rephrasing the query"))
			return
		}
	}

	set, err := pipe.RunWithCriteria(ctx, crit)
	if err != nil {
		logger.Fatal("running the pipeline", zap.Error(err))
	}

	if set.Incomplete {
		logger.Warn("run was cancelled, results are partial",
			zap.Int("matches_so_far", set.Len()))
	}

	printResults(set)

	if set.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no matching candidates"))
		return
	}

	exportDir := "."
	if config.Export != nil && config.Export.Directory != "" {
		exportDir = config.Export.Directory
	}

	for {
		action := PromptExportCSV
		if cmd.Flag("auto-approve").Value.String() == "false" {
			prompt := promptui.Select{
				Label: "What next?",
				Items: []string{PromptExportCSV, PromptDumpToFile, PromptExit},
			}
			if _, action, err = prompt.Run(); err != nil {
				logger.Fatal("exiting", zap.Error(err))
			}
		}

		if err := handleAction(action, exportDir, set, logger); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}

		if cmd.Flag("auto-approve").Value.String() == "true" {
			return
		}
	}
}

func handleAction(action, exportDir string, set *pipeline.CandidateSet, logger *zap.Logger) error {
	switch action {
	case PromptExportCSV:
		path, err := export.ToFile(exportDir, set)
		if err != nil {
			return fmt.Errorf("export to csv: %w", err)
		}
		logger.Info("exported matching candidates", zap.String("filename", path), zap.Int("count", set.Len()))
		return nil
	case PromptDumpToFile:
		filename, err := export.DumpToTmpFile(set)
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		logger.Info("dumping results to file", zap.String("filename", filename))
		return nil
	case PromptExit:
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func buildClassifiers(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.QueryParser, ai.Evaluator, error) {
	if cfg == nil || cfg.Gemini == nil {
		return nil, nil, errors.New("gemini configuration is required under ai.gemini")
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.Gemini.APIKeyFile,
		Env:  "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, nil, err
	}

	genLogger := logger.With(
		zap.String("provider", "gemini"),
		zap.String("model", cfg.Gemini.Model),
	)

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, genLogger)
	if err != nil {
		return nil, nil, err
	}

	parser := gemini.NewParser(generator, genLogger, cfg.Gemini.MaxLogLength)
	evaluator := gemini.NewEvaluator(generator, genLogger, cfg.Gemini.MaxLogLength)

	return parser, evaluator, nil
}

func buildPipeline(cmd *cobra.Command, config *Config, parser ai.QueryParser, evaluator ai.Evaluator, logger *zap.Logger) *pipeline.Pipeline {
	delay := defaultRequestDelay
	if config.Browser.RequestDelay > 0 {
		delay = config.Browser.RequestDelay
	}

	session := linkedin.NewBridgeSession(config.Browser.BridgeURL, logger)
	limiter := rate.NewLimiter(rate.Every(delay), 1)
	scraper := linkedin.NewScraper(session, limiter, logger)

	cfg := pipeline.Config{}
	if config.Search != nil {
		cfg.MaxPages = config.Search.MaxPages
		cfg.MaxProfiles = config.Search.MaxProfiles
	}
	if pages, err := cmd.Flags().GetInt("pages"); err == nil && pages > 0 {
		cfg.MaxPages = pages
	}

	return pipeline.New(parser, evaluator, scraper, logger, cfg)
}

func askQuery() (string, error) {
	prompt := promptui.Prompt{
		Label: "Search",
		Validate: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("query must not be empty")
			}
			return nil
		},
	}
	return prompt.Run()
}

func printResults(set *pipeline.CandidateSet) {
	fmt.Printf("\nProfiles collected: %d, evaluated: %d, skipped: %d\n",
		set.Collected, set.Evaluated, set.Skipped)
	fmt.Printf("Matches found: %d\n", set.Len())

	for i, candidate := range set.Candidates {
		d := candidate.Decision
		fmt.Printf("\n%d. %s\n", i+1, candidate.Profile.Name)
		fmt.Printf("   %s\n", candidate.Profile.URL)
		if d.LeftDate != "" {
			fmt.Printf("   Left: %s\n", d.LeftDate)
		}
		fmt.Printf("   Confidence: %s\n", d.Confidence)
		fmt.Printf("   Reasoning: %s\n", d.Reasoning)
	}
}
