// Package main provides the entry point for the Lectern CLI application.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	homedir "github.com/mitchellh/go-homedir"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/dgnsrekt/lectern/extract"
	"github.com/dgnsrekt/lectern/library"
	"github.com/dgnsrekt/lectern/speech/engines"
	"github.com/dgnsrekt/lectern/ui"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile   string
	engineName   string
	voiceName    string
	languageTag  string
	speed        float64
	strictErrors bool
	style        string
	width        uint
	mouse        bool

	rootCmd = &cobra.Command{
		Use:   "lectern [SOURCE]",
		Short: "Read documents aloud in the terminal",
		Long: paragraph(
			fmt.Sprintf("\nRead articles, PDFs, and notes %s, one highlighted word at a time.", keyword("out loud")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.MaximumNArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return nil, cobra.ShellCompDirectiveDefault
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

// sourceFromArg parses an argument into a readable source. Local paths
// are made absolute so the file watcher can match events against them.
func sourceFromArg(arg string) (ui.Source, error) {
	// from stdin
	if arg == "-" {
		return sourceFromStdin()
	}

	// HTTP(S) URLs go through the extraction gateway:
	if u, err := url.ParseRequestURI(arg); err == nil && strings.Contains(arg, "://") {
		if u.Scheme != "http" && u.Scheme != "https" {
			return ui.Source{}, fmt.Errorf("%s is not a supported protocol", u.Scheme)
		}
		return ui.Source{Kind: library.SourceURL, URL: u.String()}, nil
	}

	path, err := homedir.Expand(arg)
	if err != nil {
		return ui.Source{}, fmt.Errorf("unable to expand path: %w", err)
	}
	path, err = filepath.Abs(path)
	if err != nil {
		return ui.Source{}, fmt.Errorf("unable to get absolute path: %w", err)
	}
	st, err := os.Stat(path)
	if err != nil {
		return ui.Source{}, fmt.Errorf("unable to open file: %w", err)
	}
	if st.IsDir() {
		return ui.Source{}, fmt.Errorf("%s is a directory, pass a file", arg)
	}

	kind := library.SourceText
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		kind = library.SourcePDF
	}
	return ui.Source{Kind: kind, Path: path}, nil
}

func sourceFromStdin() (ui.Source, error) {
	b, err := io.ReadAll(os.Stdin)
	if err != nil {
		return ui.Source{}, fmt.Errorf("unable to read from stdin: %w", err)
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		return ui.Source{}, errors.New("nothing to read on stdin")
	}
	return ui.Source{Kind: library.SourceText, Text: string(b)}, nil
}

// validateStyle checks if the style is a default style, if not, checks
// that the custom style exists.
func validateStyle(style string) error {
	if style != "auto" && styles.DefaultStyles[style] == nil {
		style, _ = homedir.Expand(style)
		if _, err := os.Stat(style); errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("specified style does not exist: %s", style)
		} else if err != nil {
			return fmt.Errorf("unable to stat file: %w", err)
		}
	}
	return nil
}

func validateOptions(cmd *cobra.Command) error {
	// grab config values from Viper
	engineName = viper.GetString("engine")
	voiceName = viper.GetString("voice")
	languageTag = viper.GetString("language")
	speed = viper.GetFloat64("speed")
	strictErrors = viper.GetBool("strict")
	width = viper.GetUint("width")
	mouse = viper.GetBool("mouse")

	if speed != 0 && (speed < 0.5 || speed > 2.0) {
		return fmt.Errorf("speed must be between 0.5 and 2.0, got %v", speed)
	}

	// validate the glamour style
	style = viper.GetString("style")
	if err := validateStyle(style); err != nil {
		return err
	}

	isTerminal := term.IsTerminal(int(os.Stdout.Fd()))
	// We want to use a special no-TTY style when stdout is not a
	// terminal and there was no specific style passed by arg
	if !isTerminal && !cmd.Flags().Changed("style") {
		style = "notty"
	}

	// Detect terminal width
	if !cmd.Flags().Changed("width") {
		if isTerminal && width == 0 {
			w, _, err := term.GetSize(int(os.Stdout.Fd()))
			if err == nil {
				width = uint(w) //nolint:gosec
			}
			if width > 120 {
				width = 120
			}
		}
		if width == 0 {
			width = 80
		}
	}
	return nil
}

func stdinIsPipe() (bool, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to open file: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0 {
		return true, nil
	}
	return false, nil
}

func execute(_ *cobra.Command, args []string) error {
	// if stdin is a pipe then use stdin for input. note that you can
	// also explicitly use a - to read from stdin.
	if yes, err := stdinIsPipe(); err != nil {
		return err
	} else if yes {
		src, err := sourceFromStdin()
		if err != nil {
			return err
		}
		return runTUI(src)
	}

	if len(args) == 0 {
		return errors.New("missing source: pass a file, a URL, or pipe text in")
	}

	src, err := sourceFromArg(args[0])
	if err != nil {
		return err
	}
	return runTUI(src)
}

// loadConfig merges the environment with the flag and config file
// values collected by validateOptions.
func loadConfig() (ui.Config, error) {
	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return ui.Config{}, fmt.Errorf("error parsing config: %v", err)
	}

	// use style set in env, or the validated flag value if unset
	if err := validateStyle(cfg.GlamourStyle); err != nil {
		cfg.GlamourStyle = style
	}

	cfg.Engine = engineName
	cfg.VoiceName = voiceName
	cfg.Language = languageTag
	cfg.StrictErrors = strictErrors
	cfg.GlamourMaxWidth = width
	cfg.EnableMouse = mouse
	if speed != 0 {
		cfg.Speed = speed
	}
	if cfg.PiperModel == "" {
		cfg.PiperModel = viper.GetString("piper.model")
	}
	if cfg.GatewayURL == "" {
		cfg.GatewayURL = viper.GetString("gateway.url")
	}
	if cfg.GatewayToken == "" {
		cfg.GatewayToken = viper.GetString("gateway.token")
	}
	if cfg.DataDir == "" {
		cfg.DataDir = defaultDataDir()
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = defaultCacheDir()
	}
	return cfg, nil
}

func storageConfig(cfg ui.Config) library.Config {
	return library.Config{
		Backend: viper.GetString("storage.backend"),
		DataDir: cfg.DataDir,
		S3: library.S3Options{
			Bucket:          viper.GetString("storage.s3.bucket"),
			Prefix:          viper.GetString("storage.s3.prefix"),
			Region:          viper.GetString("storage.s3.region"),
			Endpoint:        viper.GetString("storage.s3.endpoint"),
			AccessKeyID:     viper.GetString("storage.s3.access_key_id"),
			SecretAccessKey: viper.GetString("storage.s3.secret_access_key"),
		},
	}
}

// buildDeps assembles the reader's collaborators: the speech engine,
// the bookmark store, and the optional gateway pieces.
func buildDeps(ctx context.Context, cfg ui.Config) (ui.Deps, error) {
	synth, err := engines.New(engines.Config{Name: cfg.Engine, PiperModel: cfg.PiperModel})
	if err != nil {
		return ui.Deps{}, fmt.Errorf("speech engine: %w", err)
	}

	store, err := library.Open(ctx, storageConfig(cfg))
	if err != nil {
		return ui.Deps{}, fmt.Errorf("open library: %w", err)
	}

	deps := ui.Deps{Synth: synth, Store: store}

	if cfg.GatewayURL != "" {
		deps.Gateway = extract.NewClient(extract.ClientConfig{
			BaseURL: cfg.GatewayURL,
			Token:   cfg.GatewayToken,
		})
	}
	deps.Summarizer = pickSummarizer(deps.Gateway)

	cache, err := extract.NewCache(cfg.CacheDir)
	if err != nil {
		log.Warn("extraction cache disabled", "error", err)
	} else {
		deps.Cache = cache
	}
	return deps, nil
}

// pickSummarizer prefers the provider from the config file and falls
// back to whatever is configured: the gateway, then OpenAI.
func pickSummarizer(gateway *extract.Client) extract.Summarizer {
	provider := viper.GetString("summary.provider")

	if provider == "openai" || (provider == "" && gateway == nil) {
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			if provider == "openai" {
				log.Warn("summary provider is openai but OPENAI_API_KEY is not set")
			}
			return nil
		}
		s, err := extract.NewOpenAISummarizer(key,
			viper.GetString("summary.base_url"),
			viper.GetString("summary.model"))
		if err != nil {
			log.Warn("summarizer disabled", "error", err)
			return nil
		}
		return s
	}

	if gateway != nil {
		return extract.NewGatewaySummarizer(gateway)
	}
	return nil
}

func runTUI(src ui.Source) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	deps, err := buildDeps(context.Background(), cfg)
	if err != nil {
		return err
	}

	// Run Bubble Tea program
	_, err = ui.NewProgram(cfg, src, deps).Run()
	if cerr := deps.Store.Close(); cerr != nil {
		log.Error("closing store", "error", cerr)
	}
	if err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}
	return nil
}

func main() {
	_ = godotenv.Load()
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.Flags().StringVarP(&engineName, "engine", "e", "auto", "speech engine (auto/say/espeak-ng/espeak/flite/piper/mock)")
	rootCmd.Flags().StringVar(&voiceName, "voice", "", "preferred voice name")
	rootCmd.Flags().StringVar(&languageTag, "language", "", "preferred voice language, e.g. en-US")
	rootCmd.Flags().Float64Var(&speed, "speed", 1.0, "speech rate between 0.5 and 2.0")
	rootCmd.Flags().BoolVar(&strictErrors, "strict-errors", false, "pause on the first synthesis error instead of skipping")
	rootCmd.Flags().StringVarP(&style, "style", "s", styles.AutoStyle, "summary style name or JSON path")
	rootCmd.Flags().UintVarP(&width, "width", "w", 0, "word-wrap summaries at width (set to 0 to detect)")
	rootCmd.Flags().BoolVarP(&mouse, "mouse", "m", false, "enable mouse wheel")
	_ = rootCmd.Flags().MarkHidden("mouse")

	// Config bindings
	_ = viper.BindPFlag("engine", rootCmd.Flags().Lookup("engine"))
	_ = viper.BindPFlag("voice", rootCmd.Flags().Lookup("voice"))
	_ = viper.BindPFlag("language", rootCmd.Flags().Lookup("language"))
	_ = viper.BindPFlag("speed", rootCmd.Flags().Lookup("speed"))
	_ = viper.BindPFlag("strict", rootCmd.Flags().Lookup("strict-errors"))
	_ = viper.BindPFlag("style", rootCmd.Flags().Lookup("style"))
	_ = viper.BindPFlag("width", rootCmd.Flags().Lookup("width"))
	_ = viper.BindPFlag("mouse", rootCmd.Flags().Lookup("mouse"))

	viper.SetDefault("engine", "auto")
	viper.SetDefault("speed", 1.0)
	viper.SetDefault("style", styles.AutoStyle)
	viper.SetDefault("width", 0)
	viper.SetDefault("storage.backend", "local")
	viper.SetDefault("gateway.url", "")
	viper.SetDefault("summary.provider", "")
	viper.SetDefault("summary.model", "")

	rootCmd.AddCommand(configCmd, manCmd, historyCmd, resumeCmd, voicesCmd, summarizeCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "lectern")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "lectern")}, dirs...)
	}

	if c := os.Getenv("LECTERN_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("lectern")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("lectern")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "lectern.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}

func defaultDataDir() string {
	scope := gap.NewScope(gap.User, "lectern")
	if dirs, err := scope.DataDirs(); err == nil && len(dirs) > 0 {
		return dirs[0]
	}
	home, _ := homedir.Dir()
	return filepath.Join(home, ".lectern")
}

func defaultCacheDir() string {
	scope := gap.NewScope(gap.User, "lectern")
	if dir, err := scope.CacheDir(); err == nil && dir != "" {
		return dir
	}
	return filepath.Join(os.TempDir(), "lectern-cache")
}
