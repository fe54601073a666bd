package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/lthero-big/163MusicLyricsDownloader/internal/catalog/netease"
	"github.com/lthero-big/163MusicLyricsDownloader/internal/config"
	"github.com/lthero-big/163MusicLyricsDownloader/internal/data/sqlite"
	"github.com/lthero-big/163MusicLyricsDownloader/internal/entry"
	"github.com/lthero-big/163MusicLyricsDownloader/internal/logger"
	"github.com/lthero-big/163MusicLyricsDownloader/internal/output"
	"github.com/lthero-big/163MusicLyricsDownloader/internal/pipeline"
	"github.com/lthero-big/163MusicLyricsDownloader/internal/resolver"
)

// runFlags holds the root command's flag values. Only flags the user set
// explicitly override the config file and environment.
type runFlags struct {
	inputs      string
	input       string
	configPath  string
	outDir      string
	sleep       float64
	retries     int
	searchLimit int
	fuzzy       bool
	tolerance   int
	cacheDB     string
	logLevel    string
	noColor     bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "lyrics163",
		Short: "Batch download NetEase Cloud Music lyrics and merge translations",
		Long: `lyrics163 resolves song IDs, share URLs and "Title - Artist" queries against
NetEase Cloud Music, downloads original and translated LRC lyrics, and writes a
merged bilingual file per song plus summary.csv and resolved.csv.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLyrics(cmd, &f, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	bindFlags(cmd.Flags(), &f)

	cmd.AddCommand(newCacheCmd(stdout), newVersionCmd(stdout))
	return cmd
}

func bindFlags(fl *pflag.FlagSet, f *runFlags) {
	def := config.Default()
	fl.StringVar(&f.inputs, "inputs", "", "Comma-separated entries: ID, URL, or 'Song - Artist'")
	fl.StringVar(&f.input, "input", "", "Text file with one entry per line")
	fl.StringVar(&f.configPath, "config", "", "YAML config file")
	fl.StringVar(&f.outDir, "outdir", def.OutDir, "Output directory")
	fl.Float64Var(&f.sleep, "sleep", def.Sleep, "Seconds to sleep between requests")
	fl.IntVar(&f.retries, "retries", def.Retries, "Retry times on failure")
	fl.IntVar(&f.searchLimit, "search-limit", def.SearchLimit, "Max search candidates for name-artist queries")
	fl.BoolVar(&f.fuzzy, "fuzzy", def.Fuzzy, "Enable fuzzy matching for artist/name")
	fl.VarPF(negatedBool{&f.fuzzy}, "no-fuzzy", "", "Disable fuzzy matching").NoOptDefVal = "true"
	fl.IntVar(&f.tolerance, "tolerance", def.Tolerance, "Max ms between an original line and its translation")
	fl.StringVar(&f.cacheDB, "cache-db", "", "SQLite resolution cache (disabled when empty)")
	fl.StringVar(&f.logLevel, "log-level", def.LogLevel, "Log level: debug, info, warn")
	fl.BoolVar(&f.noColor, "no-color", false, "Disable colored output")
}

// negatedBool is the inverse view of a bool flag, so --fuzzy and --no-fuzzy
// share one value and the last one on the command line wins.
type negatedBool struct{ p *bool }

func (b negatedBool) Set(s string) error {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	*b.p = !v
	return nil
}

func (b negatedBool) String() string {
	if b.p == nil {
		return "false"
	}
	return strconv.FormatBool(!*b.p)
}

func (b negatedBool) Type() string { return "bool" }

// loadConfig layers defaults, the --config file, LYRICS163_* variables and
// explicitly set flags, in that order.
func loadConfig(fl *pflag.FlagSet, f *runFlags) (config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		var err error
		if cfg, err = config.Load(f.configPath); err != nil {
			return cfg, err
		}
	}
	cfg.ApplyEnv()

	if fl.Changed("outdir") {
		cfg.OutDir = f.outDir
	}
	if fl.Changed("sleep") {
		cfg.Sleep = f.sleep
	}
	if fl.Changed("retries") {
		cfg.Retries = f.retries
	}
	if fl.Changed("search-limit") {
		cfg.SearchLimit = f.searchLimit
	}
	if fl.Changed("fuzzy") || fl.Changed("no-fuzzy") {
		cfg.Fuzzy = f.fuzzy
	}
	if fl.Changed("tolerance") {
		cfg.Tolerance = f.tolerance
	}
	if fl.Changed("cache-db") {
		cfg.CacheDB = f.cacheDB
	}
	if fl.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if f.noColor {
		cfg.Color = false
	}
	return cfg, cfg.Validate()
}

func runLyrics(cmd *cobra.Command, f *runFlags, stdout, stderr io.Writer) error {
	cfg, err := loadConfig(cmd.Flags(), f)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if !cfg.Color {
		color.NoColor = true
	}
	level, _ := logger.ParseLevel(cfg.LogLevel)
	log := logger.New(logger.Config{Level: level, Colorize: cfg.Color, ShowTime: true, Output: stderr})

	entries, err := entry.Read(f.inputs, f.input)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(stdout, "No valid entries found. Use --inputs or --input.")
		return nil
	}

	client := netease.NewClient(netease.Options{
		BaseURL:   cfg.BaseURL,
		Headers:   cfg.NeteaseHeaders(),
		Retries:   cfg.Retries,
		RetryWait: cfg.SleepDuration(),
		Logger:    log,
	})
	search := &resolver.SearchResolver{
		Searcher: client,
		Scorer:   resolver.Scorer{Weights: cfg.Weights, Fuzzy: cfg.Fuzzy},
		Limit:    cfg.SearchLimit,
		Logger:   log,
	}
	p := &pipeline.Pipeline{
		Details:   client,
		Lyrics:    client,
		Resolver:  search,
		OutDir:    cfg.OutDir,
		Sleep:     cfg.SleepDuration(),
		Tolerance: cfg.Tolerance,
		Logger:    log,
		Out:       stdout,
	}

	if cfg.CacheDB != "" {
		db, err := sqlite.Open(cfg.CacheDB)
		if err != nil {
			return fmt.Errorf("open cache %s: %w", cfg.CacheDB, err)
		}
		defer db.Close()
		search.Cache = db
		p.History = db
		log.Debugf("using resolution cache %s", cfg.CacheDB)
	}

	res, err := p.Run(cmd.Context(), entries)
	if res != nil && len(res.Resolutions) > 0 {
		output.RenderRecap(stdout, res.Resolutions)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Done.\nSummary: %s\nResolved: %s\n", res.SummaryPath, res.ResolvedPath)
	return nil
}

func newVersionCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(stdout, "lyrics163 %s\n", version)
		},
	}
}
