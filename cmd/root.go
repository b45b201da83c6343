package cmd

import (
	"errors"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "candidate-screening"
)

type Config struct {
	GitHub        *GitHubConfig        `mapstructure:"github"`
	Activity      *ActivityConfig      `mapstructure:"activity"`
	Processing    *ProcessingConfig    `mapstructure:"processing"`
	Scoring       *ScoringConfig       `mapstructure:"scoring"`
	ResumeSamples *ResumeSamplesConfig `mapstructure:"resume-samples"`
	Output        *OutputConfig        `mapstructure:"output"`
}

type GitHubConfig struct {
	TokenEnv          string `mapstructure:"token-env"`
	CacheTTLHours     int    `mapstructure:"cache-ttl-hours"`
	PerHandleMaxRepos int    `mapstructure:"per-handle-max-repos"`
	RequestTimeoutSec int    `mapstructure:"request-timeout-sec"`
	CacheDir          string `mapstructure:"cache-dir"`
}

type ActivityConfig struct {
	WindowDays int `mapstructure:"window-days"`
}

type ProcessingConfig struct {
	BatchSize               int     `mapstructure:"batch-size"`
	ParallelWorkers         int     `mapstructure:"parallel-workers"`
	BatchDeviationThreshold float64 `mapstructure:"batch-deviation-threshold"`
}

// ScoringConfig carries the dimension weighting labels. They document the
// intended split; the engine's caps are fixed for this version.
type ScoringConfig struct {
	Weights map[string]int `mapstructure:"weights"`
}

type ResumeSamplesConfig struct {
	EnableStorage bool `mapstructure:"enable-storage"`
	StoreFullText bool `mapstructure:"store-full-text"`
}

type OutputConfig struct {
	TopN int    `mapstructure:"top-n"`
	Dir  string `mapstructure:"dir"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "candidate-screening ranks job candidates by their public GitHub footprint",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is "+app+".yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	viper.SetDefault("github.token-env", "GITHUB_TOKEN")
	viper.SetDefault("github.cache-ttl-hours", 24)
	viper.SetDefault("github.per-handle-max-repos", 12)
	viper.SetDefault("github.request-timeout-sec", 20)
	viper.SetDefault("github.cache-dir", "cache/github")
	viper.SetDefault("activity.window-days", 90)
	viper.SetDefault("processing.batch-size", 20)
	viper.SetDefault("processing.parallel-workers", 4)
	viper.SetDefault("processing.batch-deviation-threshold", 0.2)
	viper.SetDefault("scoring.weights", map[string]int{
		"engineering":     40,
		"impact":          30,
		"activity":        15,
		"ai-productivity": 15,
	})
	viper.SetDefault("resume-samples.enable-storage", true)
	viper.SetDefault("resume-samples.store-full-text", false)
	viper.SetDefault("output.top-n", 10)
	viper.SetDefault("output.dir", "runs")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
		viper.SetConfigType("yaml")
	}

	// A missing config file falls back to the defaults above; a present but
	// broken one is fatal.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
