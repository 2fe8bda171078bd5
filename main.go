// locdiff finds translation keys missing from locale catalogs and fills
// them in with a translation driver.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"slices"
	"strings"
	"time"

	"github.com/minios-linux/locdiff/config"
	"github.com/minios-linux/locdiff/diff"
	"github.com/minios-linux/locdiff/dispatch"
	"github.com/minios-linux/locdiff/i18n"
	"github.com/minios-linux/locdiff/langmeta"
	"github.com/minios-linux/locdiff/localefile"
	"github.com/minios-linux/locdiff/lockfile"
	"github.com/minios-linux/locdiff/reconcile"
	"github.com/minios-linux/locdiff/settings"
	"github.com/minios-linux/locdiff/translate"
	"github.com/minios-linux/locdiff/tree"
	"github.com/spf13/cobra"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorBlue+"[INFO]"+colorReset+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorGreen+"[OK]"+colorReset+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorYellow+"[WARN]"+colorReset+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"[ERROR]"+colorReset+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Global flag
// ---------------------------------------------------------------------------

var rootDir string

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "locdiff",
		Short: i18n.T("Find and translate missing keys in locale catalogs"),
		Long: `locdiff compares a source locale catalog (JSON or YAML) with target
catalogs, lists the keys the targets are missing and optionally sends them to
a translation driver, merging the results back into the target catalogs.

Commands:
  untranslated  Show (and translate) keys missing from target locales
  status        Show per-locale counts of untranslated keys
  auth          Manage driver API keys

Drivers:
  copy           Copy source text verbatim (placeholder translations)
  google         Google AI (Gemini): API key
  groq           Groq: API key
  openai         OpenAI: API key
  anthropic      Anthropic: API key
  ollama         Ollama local server
  custom-openai  Custom OpenAI-compatible endpoint`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Inherited by all subcommands
	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory")

	root.AddCommand(
		newUntranslatedCmd(),
		newStatusCmd(),
		newAuthCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")
	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version (display version information)
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("locdiff version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// untranslated (report, translate, merge)
// ---------------------------------------------------------------------------

type untranslatedArgs struct {
	source  string
	targets []string

	translate bool
	write     bool
	driver    string
	apiKey    string
	model     string
	baseURL   string
	proxy     string
	prompt    string

	strategy   string
	chunkSize  int
	parallel   int
	timeout    time.Duration
	maxRetries int
	verbose    bool
}

func newUntranslatedCmd() *cobra.Command {
	var a untranslatedArgs

	cmd := &cobra.Command{
		Use:   "untranslated <source> [target...]",
		Short: "Show keys defined in the source locale but missing from targets",
		Long: `Display all translation keys defined in the source locale but not in the
target locales. With --translate the missing values are sent to a driver and
the translations are shown; with --write they are merged into the target
catalogs on disk.

Targets default to the languages in .locdiff.yaml, then to every locale
found in the catalog directory.

Examples:
  # Report missing French keys
  locdiff untranslated en fr

  # Translate with Groq and save the result
  locdiff untranslated en fr de --translate --driver groq --write

  # Fill placeholders with the source text
  locdiff untranslated en fr --translate --driver copy --write

  # Also flag keys whose source text changed since the last translation
  locdiff untranslated en fr --strategy stale --translate --driver openai --write`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.source = args[0]
			a.targets = args[1:]

			cfg, err := config.Load(rootDir)
			if err != nil {
				return err
			}
			applyFlagOverrides(cmd, cfg, &a)
			return runUntranslated(cmd.Context(), cfg, a)
		},
	}

	// Driver selection
	cmd.Flags().BoolVar(&a.translate, "translate", false, "Translate the missing keys")
	cmd.Flags().StringVar(&a.driver, "driver", "", "Translation driver: "+strings.Join(translate.Names(), ", "))
	cmd.Flags().StringVar(&a.apiKey, "api-key", "", "API key (or "+settings.EnvAPIKey+" env var)")
	cmd.Flags().StringVar(&a.model, "model", "", "Model name (default: driver default)")
	cmd.Flags().StringVar(&a.baseURL, "base-url", "", "Custom API base URL")
	cmd.Flags().StringVar(&a.prompt, "prompt", "", "Custom system prompt ({{sourceLang}} and {{targetLang}} placeholders)")

	// Behavior
	cmd.Flags().BoolVar(&a.write, "write", false, "Merge translations into the target catalogs")
	cmd.Flags().StringVar(&a.strategy, "strategy", "", "Untranslated detection: presence, empty, identical, stale")
	cmd.Flags().IntVar(&a.chunkSize, "chunk-size", 0, "Keys per driver request (0 = all at once)")
	cmd.Flags().IntVar(&a.parallel, "parallel", 0, "Target locales processed concurrently")
	cmd.Flags().BoolVar(&a.verbose, "verbose", false, "Enable detailed logging")

	// Network
	cmd.Flags().DurationVar(&a.timeout, "timeout", 0, "Request timeout (0 = driver default)")
	cmd.Flags().StringVar(&a.proxy, "proxy", "", "HTTP/HTTPS proxy URL")
	cmd.Flags().IntVar(&a.maxRetries, "max-retries", 0, "Maximum retries on rate limit and server errors (0 = default)")

	_ = cmd.RegisterFlagCompletionFunc("driver", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return translate.Names(), cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("strategy", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{diff.StrategyPresence, diff.StrategyEmpty, diff.StrategyIdentical, config.StrategyStale}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// applyFlagOverrides copies explicitly set flags over the config file and
// fills unset flags from it.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config, a *untranslatedArgs) {
	flags := cmd.Flags()
	override := func(name string, dst *string, flagValue string) {
		if flags.Changed(name) {
			*dst = flagValue
		}
	}
	override("driver", &cfg.Driver, a.driver)
	override("model", &cfg.Model, a.model)
	override("base-url", &cfg.BaseURL, a.baseURL)
	override("proxy", &cfg.Proxy, a.proxy)
	override("prompt", &cfg.Prompt, a.prompt)
	override("strategy", &cfg.Strategy, a.strategy)
	if flags.Changed("chunk-size") {
		cfg.ChunkSize = a.chunkSize
	}
	if flags.Changed("parallel") && a.parallel > 0 {
		cfg.Parallel = a.parallel
	}
	if flags.Changed("timeout") {
		cfg.Timeout = a.timeout
	}
	if flags.Changed("max-retries") {
		cfg.MaxRetries = a.maxRetries
	}
	if len(a.targets) == 0 {
		a.targets = cfg.Languages
	}
}

func runUntranslated(ctx context.Context, cfg *config.Config, a untranslatedArgs) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if a.verbose {
		log.SetFlags(log.Ltime)
	}

	if err := validateLocale(a.source); err != nil {
		return err
	}
	for _, target := range a.targets {
		if err := validateLocale(target); err != nil {
			return err
		}
	}

	store := &localefile.Store{Dir: cfg.AbsDir(rootDir), Format: cfg.Format}
	if !store.Exists(a.source) {
		return fmt.Errorf(i18n.T("source locale %q not found in %s"), a.source, store.Dir)
	}
	store.Follow(a.source)
	source, err := store.Load(a.source)
	if err != nil {
		return err
	}

	targets, err := resolveTargets(store, a.source, a.targets)
	if err != nil {
		return err
	}

	var lock *lockfile.LockFile
	if cfg.Strategy == config.StrategyStale || a.write {
		if lock, err = lockfile.Load(store.Dir); err != nil {
			return err
		}
	}

	var driver dispatch.Driver
	if a.translate {
		driver, err = buildDriver(cfg, a)
		if err != nil {
			return err
		}
	} else if a.write {
		logWarning("%s", i18n.T("--write has no effect without --translate"))
	}
	logInfo(i18n.T("Using driver: %s"), driverLabel(cfg.Driver, driver))

	jobs := make([]reconcile.Job, 0, len(targets))
	for _, target := range targets {
		tgt, err := store.LoadOrEmpty(target)
		if err != nil {
			return err
		}
		p := &reconcile.Pipeline{
			Source:    a.source,
			Target:    target,
			Driver:    driver,
			Separator: cfg.Separator,
			ChunkSize: cfg.ChunkSize,
		}
		if p.Strategy, err = resolveStrategy(cfg.Strategy, lock, target); err != nil {
			return err
		}
		if a.verbose {
			p.OnLog = func(format string, args ...any) { logInfo(format, args...) }
		}
		jobs = append(jobs, reconcile.Job{Pipeline: p, Source: source, Target: tgt, Translate: a.translate})
	}

	ctx, cancel := signalContext(ctx)
	defer cancel()

	if a.translate {
		for _, target := range targets {
			logInfo(i18n.T("Translating the missing keys from '%s' to '%s'"), a.source, target)
		}
	}
	reports, err := reconcile.RunAll(ctx, jobs, cfg.Parallel)
	if err != nil {
		return err
	}

	for _, r := range reports {
		printReport(os.Stdout, r, a.translate)
	}

	if !a.translate || !a.write {
		return nil
	}
	return writeReports(store, lock, cfg.Separator, source, reports)
}

// writeReports saves merged catalogs and records source checksums for the
// translated keys.
func writeReports(store *localefile.Store, lock *lockfile.LockFile, sep string, source *tree.Tree, reports []*reconcile.Report) error {
	srcFlat, err := tree.FlattenSep(source, sep)
	if err != nil {
		return err
	}

	written := 0
	for _, r := range reports {
		if r.Translated.Len() == 0 {
			continue
		}
		if err := store.Save(r.Target, r.Merged); err != nil {
			return err
		}
		lock.Record(r.Target, srcFlat, r.Translated)
		lock.Clean(r.Target, srcFlat)
		logSuccess(i18n.T("Wrote %d keys to %s"), r.Translated.Len(), store.Path(r.Target))
		written++
	}
	if written == 0 {
		logSuccess("%s", i18n.T("All target locales are up to date"))
		return nil
	}
	if err := lock.Save(); err != nil {
		return fmt.Errorf("saving lock file: %w", err)
	}
	return nil
}

// resolveTargets returns explicit targets, or every locale in the store
// except source.
func resolveTargets(store *localefile.Store, source string, explicit []string) ([]string, error) {
	if len(explicit) > 0 {
		return dedupe(explicit), nil
	}
	locales, err := store.Locales()
	if err != nil {
		return nil, err
	}
	targets := filterOutLang(locales, source)
	if len(targets) == 0 {
		return nil, errors.New(i18n.T("no target locales given and none found in the catalog directory"))
	}
	return targets, nil
}

func resolveStrategy(name string, lock *lockfile.LockFile, target string) (diff.Strategy, error) {
	if name == config.StrategyStale {
		return lock.Strategy(target), nil
	}
	return diff.ParseStrategy(name)
}

func buildDriver(cfg *config.Config, a untranslatedArgs) (dispatch.Driver, error) {
	if cfg.Driver == "" {
		return nil, fmt.Errorf(i18n.T("no driver selected, use --driver (available: %s)"), strings.Join(translate.Names(), ", "))
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = settings.BaseURL(cfg.Driver)
	}
	return translate.New(cfg.Driver, translate.Options{
		APIKey:       settings.ResolveAPIKey(cfg.Driver, a.apiKey),
		BaseURL:      baseURL,
		Model:        cfg.Model,
		Proxy:        cfg.Proxy,
		Timeout:      cfg.Timeout,
		MaxRetries:   cfg.MaxRetries,
		SystemPrompt: cfg.Prompt,
		Verbose:      a.verbose,
		OnLog: func(format string, args ...any) {
			logInfo(format, args...)
		},
	})
}

func driverLabel(name string, d dispatch.Driver) string {
	if ai, ok := d.(*translate.AI); ok {
		return ai.Name()
	}
	if name == "" {
		return i18n.T("none")
	}
	return name
}

// validateLocale rejects codes that are not BCP 47 tags. Locale codes
// become file names, so path separators are refused as well.
func validateLocale(code string) error {
	if strings.ContainsAny(code, `/\`) || strings.Contains(code, "..") {
		return fmt.Errorf(i18n.T("invalid locale code %q"), code)
	}
	if _, err := langmeta.Parse(code); err != nil {
		return err
	}
	return nil
}

// signalContext cancels on the first interrupt.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		select {
		case <-sigCh:
			logWarning("%s", i18n.T("Interrupted, nothing was written"))
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

// ---------------------------------------------------------------------------
// status (read-only: per-locale counts)
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show per-locale counts of untranslated keys",
		Long: `Show every locale in the catalog directory with its language name and
the number of source keys it is missing. Does not modify any files.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(rootDir)
			if err != nil {
				return err
			}
			if source != "" {
				cfg.SourceLang = source
			}
			return runStatus(cfg)
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "Source locale (default: source_lang from .locdiff.yaml)")

	return cmd
}

func runStatus(cfg *config.Config) error {
	store := &localefile.Store{Dir: cfg.AbsDir(rootDir), Format: cfg.Format}
	source, err := store.Load(cfg.SourceLang)
	if err != nil {
		return fmt.Errorf(i18n.T("loading source locale: %w"), err)
	}
	srcFlat, err := tree.FlattenSep(source, cfg.Separator)
	if err != nil {
		return err
	}
	locales, err := store.Locales()
	if err != nil {
		return err
	}

	strategy, err := diff.ParseStrategy(cfg.Strategy)
	if err != nil {
		// stale needs a per-locale lock; status reports presence instead.
		strategy = diff.Presence
	}

	logInfo(i18n.T("Catalog directory: %s"), store.Dir)
	logInfo(i18n.T("Source: %s (%d keys)"), cfg.SourceLang, srcFlat.Len())

	var rows []statusRow
	for _, locale := range filterOutLang(locales, cfg.SourceLang) {
		tgt, err := store.Load(locale)
		if err != nil {
			logWarning("%v", err)
			continue
		}
		p := &reconcile.Pipeline{Source: cfg.SourceLang, Target: locale, Strategy: strategy, Separator: cfg.Separator}
		missing, err := p.Missing(source, tgt)
		if err != nil {
			logWarning("%s: %v", locale, err)
			continue
		}
		rows = append(rows, statusRow{Locale: locale, Total: srcFlat.Len(), Missing: missing.Len()})
	}

	if len(rows) == 0 {
		logWarning("%s", i18n.T("No target locales found"))
		return nil
	}
	fmt.Println(renderStatus(rows))
	return nil
}

// ---------------------------------------------------------------------------
// Shared helpers
// ---------------------------------------------------------------------------

func filterOutLang(langs []string, exclude string) []string {
	var out []string
	for _, l := range langs {
		if l != exclude {
			out = append(out, l)
		}
	}
	return out
}

func dedupe(langs []string) []string {
	var out []string
	for _, l := range langs {
		l = strings.TrimSpace(l)
		if l != "" && !slices.Contains(out, l) {
			out = append(out, l)
		}
	}
	return out
}
