package cmd

import (
	"context"
	"fmt"

	"filestoprompt/pkg/cache"
	"filestoprompt/pkg/combine"
	"filestoprompt/pkg/config"
	"filestoprompt/pkg/llm"
	"filestoprompt/pkg/llm/providers"
	"filestoprompt/pkg/logging"
	"filestoprompt/pkg/summarize"
	"filestoprompt/pkg/version"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	logger    = zap.NewNop()
	appConfig = &config.Config{}

	configFile      string
	includeHidden   bool
	ignoreGitignore bool
	ignorePatterns  []string
	noSummary       bool
	showTree        bool
	outputPath      string
)

// flagKeys maps config keys to the flags that override them.
var flagKeys = map[string]string{
	config.KeyProvider:      "provider",
	config.KeyModel:         "model",
	config.KeyBaseURL:       "base-url",
	config.KeyMaxRetries:    "max-retries",
	config.KeyWorkers:       "workers",
	config.KeyDebug:         "debug",
	config.KeyLogFile:       "log-file",
	config.KeyCacheDir:      "cache-dir",
	config.KeyCacheDisabled: "no-cache",
}

// RootCmd is the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:   "files-to-prompt [paths...]",
	Short: "Concatenate files into a single prompt, condensing long ones",
	Long: `Takes one or more paths to files or directories and outputs every file,
recursively, each one preceded with its filename like this:

path/to/file.py
---
Contents of file.py goes here

---
path/to/file2.py
---
...

Files longer than 30 words are replaced by an LLM-generated summary of their
exported types and functions. Summaries are cached on disk by prompt, so
unchanged files are only sent to the model once.`,
	Args:              cobra.ArbitraryArgs,
	PersistentPreRunE: setup,
	RunE:              runRoot,
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return RootCmd.ExecuteContext(ctx)
}

// Logger returns the logger configured for the current run.
func Logger() *zap.Logger {
	return logger
}

func init() {
	pf := RootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file (default $HOME/.files-to-prompt.{yaml,toml,json})")
	pf.Bool("debug", false, "enable debug logging")
	pf.String("log-file", "", "also write logs to this rotating file")
	pf.String("cache-dir", "", "directory of the completion cache (default: user cache dir)")

	f := RootCmd.Flags()
	f.BoolVar(&includeHidden, "include-hidden", false, "include files and folders starting with .")
	f.BoolVar(&ignoreGitignore, "ignore-gitignore", false, "ignore .gitignore files and include all files")
	f.StringArrayVar(&ignorePatterns, "ignore", nil, "glob pattern of file names to ignore (repeatable)")
	f.BoolVar(&noSummary, "no-summary", false, "output every file verbatim without calling a model")
	f.BoolVar(&showTree, "tree", false, "prefix the output with a tree of the included files")
	f.StringVarP(&outputPath, "output", "o", "", "write to this file instead of stdout")
	f.Int("workers", 1, "number of files summarized concurrently")
	f.String("provider", providers.ProviderOpenAI, fmt.Sprintf("completion provider %v", providers.Names()))
	f.String("model", "", "model identifier (default depends on provider)")
	f.String("base-url", "", "override the provider API endpoint")
	f.Int("max-retries", 0, "retries performed by the provider SDK")
	f.Bool("no-cache", false, "do not read or write the on-disk completion cache")
}

// setup resolves configuration and builds the logger before any command runs.
func setup(cmd *cobra.Command, _ []string) error {
	v := config.New()
	if err := config.BindFlags(v, cmd.Flags(), flagKeys); err != nil {
		return err
	}
	cfg, err := config.Load(v, configFile)
	if err != nil {
		return err
	}

	l, err := logging.Setup(logging.Options{
		Debug:      cfg.Debug,
		LogFile:    cfg.LogFile,
		AppName:    version.AppName,
		AppVersion: version.Get().Version,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger = l
	appConfig = cfg
	// Arguments and flags parsed; later failures are not usage errors.
	cmd.SilenceUsage = true
	return nil
}

func runRoot(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}
	ctx := cmd.Context()

	summarizer, cleanup, err := buildSummarizer(ctx, appConfig, noSummary, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	return combine.Run(ctx, combine.Arguments{
		Paths:           args,
		IncludeHidden:   includeHidden,
		IgnoreGitignore: ignoreGitignore,
		IgnorePatterns:  ignorePatterns,
		Output:          outputPath,
		Tree:            showTree,
		MaxWorkers:      appConfig.Workers,
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	}, summarizer, logger)
}

// buildSummarizer wires the backend, the response cache and the model. The
// returned cleanup closes the cache and must always be called.
func buildSummarizer(ctx context.Context, cfg *config.Config, disabled bool, logger *zap.Logger) (*summarize.Summarizer, func(), error) {
	noop := func() {}
	if disabled {
		s, err := summarize.New(nil, summarize.Config{Disabled: true}, logger)
		return s, noop, err
	}

	backend, err := providers.New(cfg.ProviderConfig())
	if err != nil {
		return nil, noop, fmt.Errorf("%w (use --no-summary to skip summarization)", err)
	}

	var store llm.ResponseCache = cache.NewMemory()
	cleanup := noop
	if !cfg.Cache.Disabled {
		sqlite, err := cache.OpenSQLite(ctx, cfg.Cache.Dir, logger)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to open response cache: %w", err)
		}
		store = sqlite
		cleanup = func() {
			if err := sqlite.Close(); err != nil {
				logger.Warn("Failed to close response cache", zap.String("path", sqlite.Path()), zap.Error(err))
			}
		}
	}

	logger.Debug("Summarizer ready",
		zap.String("provider", backend.Name()),
		zap.String("model", cfg.Model),
		zap.Bool("persistentCache", !cfg.Cache.Disabled))

	model := llm.NewModel(cfg.Model, backend, store, logger)
	s, err := summarize.New(model, summarize.Config{}, logger)
	if err != nil {
		cleanup()
		return nil, noop, err
	}
	return s, cleanup, nil
}
