package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/tokamak-network/hr-candidate-screening/internal/candidate"
	"github.com/tokamak-network/hr-candidate-screening/internal/dataset"
	"github.com/tokamak-network/hr-candidate-screening/internal/github"
	"github.com/tokamak-network/hr-candidate-screening/internal/logger"
	"github.com/tokamak-network/hr-candidate-screening/internal/pipeline"
	"github.com/tokamak-network/hr-candidate-screening/internal/report"
	"github.com/tokamak-network/hr-candidate-screening/internal/secrets"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var fallbackPrompt = promptui.Select{
	Label: "No GitHub token found. Proceed with the unauthenticated HTML fallback (rate-limited, partial data)?",
	Items: []string{PromptYes, PromptNo},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the candidate screening pipeline",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("candidates", "candidates.csv", "candidate roster csv")
	runCmd.Flags().String("job", "job.md", "job description file")
	runCmd.Flags().Bool("store-full-resume", false, "store full resume text in the dataset export")
	runCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation before an unauthenticated run")
	runCmd.Flags().String("token-file", "", "read the GitHub token from a file instead of the environment")

	viper.BindPFlag("candidates", runCmd.Flags().Lookup("candidates"))
	viper.BindPFlag("job", runCmd.Flags().Lookup("job"))
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx := context.Background()

	// Local .env files may carry the token variable.
	_ = godotenv.Load()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the candidate screening", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if config == nil || config.GitHub == nil || config.Processing == nil {
		logger.Fatal("config is required")
	}

	token, err := secrets.Load(secrets.Source{
		Name:   "github token",
		EnvVar: config.GitHub.TokenEnv,
		File:   cmd.Flag("token-file").Value.String(),
	})
	if err != nil {
		logger.Fatal("loading github token", zap.Error(err))
	}

	collector := selectCollector(token, config, logger)
	logger.Info("selected collector backend", zap.String("source", collector.Source()))

	if token == "" && cmd.Flag("auto-approve").Value.String() == "false" {
		_, action, err := fallbackPrompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
		if action != PromptYes {
			logger.Info("exiting", zap.String("reason", "unauthenticated run declined"))
			return
		}
	}

	candidates, err := candidate.Load(viper.GetString("candidates"))
	if err != nil {
		logger.Fatal("loading candidates", zap.Error(err))
	}
	if len(candidates) == 0 {
		logger.Info("exiting", zap.String("reason", "no candidates found"))
		return
	}

	jobTokens, err := candidate.LoadJobKeywords(viper.GetString("job"))
	if err != nil {
		logger.Fatal("loading job keywords", zap.Error(err))
	}

	logger.Info("starting the run",
		zap.Int("candidates", len(candidates)),
		zap.Int("job_keywords", len(jobTokens)),
	)

	cache := github.NewCache(config.GitHub.CacheDir, config.GitHub.CacheTTLHours, logger)

	progress := func(done, total int) {
		logger.Info("progress", zap.Int("completed", done), zap.Int("total", total))
	}

	orchestrator := pipeline.New(collector, cache, pipeline.Options{
		BatchSize:          config.Processing.BatchSize,
		Workers:            config.Processing.ParallelWorkers,
		DeviationThreshold: config.Processing.BatchDeviationThreshold,
		ActivityWindowDays: config.Activity.WindowDays,
	}, logger, progress)

	result := orchestrator.Run(ctx, candidates, jobTokens)

	if err := writeOutputs(cmd, config, result, logger); err != nil {
		logger.Fatal("writing outputs", zap.Error(err))
	}
}

func selectCollector(token string, config *Config, logger *zap.Logger) github.Collector {
	timeout := config.GitHub.RequestTimeoutSec
	maxRepos := config.GitHub.PerHandleMaxRepos
	windowDays := config.Activity.WindowDays

	if token != "" {
		return github.NewAPICollector(token, timeout, maxRepos, windowDays, logger)
	}
	return github.NewHTMLCollector(timeout, maxRepos, windowDays, logger)
}

func writeOutputs(cmd *cobra.Command, config *Config, result *pipeline.Result, logger *zap.Logger) error {
	runDir, err := report.CreateRunDir(config.Output.Dir)
	if err != nil {
		return err
	}

	profilesPath, err := report.WriteProfiles(runDir, result.Profiles)
	if err != nil {
		return err
	}
	scoresPath, err := report.WriteScoresCSV(runDir, result.Profiles)
	if err != nil {
		return err
	}
	reportPath, err := report.WriteTopReport(runDir, result.Profiles, config.Output.TopN)
	if err != nil {
		return err
	}
	summaryPath, err := report.WriteBatchSummaries(runDir, result.Summaries)
	if err != nil {
		return err
	}

	logger.Info("run complete",
		zap.String("profiles", profilesPath),
		zap.String("scores", scoresPath),
		zap.String("report", reportPath),
		zap.String("batch_summary", summaryPath),
	)

	if config.ResumeSamples != nil && config.ResumeSamples.EnableStorage {
		storeFullText := config.ResumeSamples.StoreFullText
		if cmd.Flag("store-full-resume").Value.String() == "true" {
			storeFullText = true
		}

		var derived []dataset.DerivedRow
		var labels []dataset.LabelRow
		for _, cand := range result.Kept {
			row, label := dataset.BuildPayload(cand, storeFullText)
			derived = append(derived, row)
			if label != nil {
				labels = append(labels, *label)
			}
		}

		if len(labels) > 0 {
			if _, err := dataset.AppendLabels(dataset.DefaultDir, labels); err != nil {
				return err
			}
		}
		if len(derived) > 0 {
			if _, err := dataset.AppendDerivedFeatures(dataset.DefaultDir, derived); err != nil {
				return err
			}
		}
	}

	return report.PrintSummaryTable(result.Profiles, result.Summaries, config.Output.TopN)
}
