package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"promptforge/internal/catalog"
	"promptforge/internal/config"
	"promptforge/internal/engine"
)

var (
	// Global flags
	verbose     bool
	configPath  string
	catalogPath string
	requestPath string
	explicitID  int
	showPrompt  bool

	logger *zap.Logger
	cfg    *config.Config
	cat    *catalog.Catalog
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "promptforge",
	Short: "promptforge - constitutional prompt composition engine",
	Long: `promptforge classifies development requests into canonical task
patterns and composes seven-component structured prompts from them:
persona, minimized context layers, task, requirements, constitutional
security mandates, meta-instructions, and output format. Every assembled
prompt is graded against the documented quality checklists.

The rule catalog (12 patterns, 5 context layers, 10 commandments) is
baked into the binary and can be overridden with --catalog or the
PROMPTFORGE_CATALOG environment variable.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if catalogPath != "" {
			cfg.CatalogPath = catalogPath
		}

		// Initialize logger
		zcfg := zap.NewProductionConfig()
		if !cfg.Logging.JSONFormat {
			zcfg.Encoding = "console"
			zcfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
		}
		zcfg.Level = zap.NewAtomicLevelAt(logLevel(cfg.Logging.Level))
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		// A malformed catalog is fatal at startup, never per-request.
		cat, err = loadCatalog(cfg.CatalogPath)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func logLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.LoadEmbedded()
	}
	return catalog.Load(path)
}

// classifyCmd maps request text to a task pattern
var classifyCmd = &cobra.Command{
	Use:   "classify <request text>",
	Short: "Classify a request into one of the twelve task patterns",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		eng := engine.NewEngine(cat, logger)
		result, err := eng.Classify(text, explicitID)
		if err != nil {
			return err
		}
		fmt.Println(renderClassification(result))
		return nil
	},
}

// buildCmd runs the full pipeline from a request file
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Assemble and score a prompt from a request file",
	Long: `Build reads a structured request from a YAML file, classifies it,
selects context layers, resolves security mandates, assembles the
seven-component prompt, and scores it. The assembled prompt is printed
to stdout; pass --show-prompt=false to print only the report.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := runPipeline()
		if err != nil {
			return err
		}
		if showPrompt {
			fmt.Println(result.Prompt.Render())
		}
		fmt.Println(renderReport(result))
		return nil
	},
}

// scoreCmd prints only the score report for a request file
var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score the prompt a request file would produce",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := runPipeline()
		if err != nil {
			return err
		}
		fmt.Println(renderReport(result))
		return nil
	},
}

func runPipeline() (*engine.Result, error) {
	if requestPath == "" {
		return nil, fmt.Errorf("--request is required")
	}
	data, err := os.ReadFile(requestPath)
	if err != nil {
		return nil, fmt.Errorf("read request %s: %w", requestPath, err)
	}
	var req engine.Request
	if err := yaml.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("parse request %s: %w", requestPath, err)
	}

	eng := engine.NewEngine(cat, logger)
	return eng.Build(req)
}

// catalogCmd groups catalog inspection commands
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect or validate the rule catalog",
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Validate a catalog file against the engine invariants",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.CatalogPath
		if len(args) > 0 {
			path = args[0]
		}
		checked, err := loadCatalog(path)
		if err != nil {
			return err
		}
		fmt.Printf("catalog OK: %d patterns, %d layers, %d commandments\n",
			len(checked.Patterns()), len(checked.Layers()), len(checked.Commandments()))
		return nil
	},
}

var catalogShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the loaded rule table",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(renderCatalog(cat))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "Catalog file path (default: embedded catalog)")

	classifyCmd.Flags().IntVar(&explicitID, "pattern", 0, "Explicit pattern id (1-12), skips text matching")

	buildCmd.Flags().StringVar(&requestPath, "request", "", "Request YAML file")
	buildCmd.Flags().BoolVar(&showPrompt, "show-prompt", true, "Print the assembled prompt")
	scoreCmd.Flags().StringVar(&requestPath, "request", "", "Request YAML file")

	catalogCmd.AddCommand(catalogValidateCmd)
	catalogCmd.AddCommand(catalogShowCmd)

	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(catalogCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
