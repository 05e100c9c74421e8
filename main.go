package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	gudgeontop "github.com/jondoveston/gudgeontop/internal"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "gudgeontop [gudgeon-url]",
	Short: "Terminal dashboard for the Gudgeon DNS blocking proxy",
	Long: `gudgeontop shows live query counters, top lists, metric charts, the query log
and a query tester for a Gudgeon server in an interactive terminal interface.

Examples:
  gudgeontop gudgeon.lan
  gudgeontop http://gudgeon.lan:9009
  gudgeontop gudgeon.lan --source prometheus --prometheus-url http://prometheus.lan:9090
  GUDGEONTOP_GUDGEON_URL=http://gudgeon.lan:9009 gudgeontop`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

var watchCmd = &cobra.Command{
	Use:   "watch [gudgeon-url]",
	Short: "Print metric samples to stdout without the dashboard",
	Example: `  gudgeontop watch gudgeon.lan --group memory
  gudgeontop watch gudgeon.lan --source exporter --exporter-url http://gudgeon.lan:9009/metrics`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("gudgeon-url", "", "Gudgeon server URL (scheme and port are detected when left out)")
	flags.String("source", gudgeontop.SourceGudgeon, "where chart samples come from: gudgeon, prometheus or exporter")
	flags.String("prometheus-url", "", "Prometheus server URL for --source prometheus")
	flags.String("exporter-url", "", "metrics endpoint URL for --source exporter")
	flags.String("window", "30m", "chart window (5m, 10m, 30m, 1h, 2h, 4h, 6h, 12h, 24h or all)")
	flags.Int("page-size", gudgeontop.DefaultPageSize, "query log page size")
	flags.String("log-file", "", "log file (default gudgeontop.log in the user cache dir)")
	flags.Bool("debug", false, "log every request")
	flags.String("config", "", "config file (toml, yaml or json)")
	flags.String("prefs", "", "preferences file (default prefs.toml in the user config dir)")
	flags.Bool("metrics", true, "show query counters")
	flags.Bool("metrics-persist", true, "show charts (needs stored metrics)")
	flags.Bool("metrics-detailed", true, "show top lists")
	flags.Bool("query-log", true, "show the query log")
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")

	watchCmd.Flags().String("group", gudgeontop.QueriesGroup.ID, "metric group: queries, interval-queries, memory, threads or cpu")
	rootCmd.AddCommand(watchCmd)

	// Bind flags to Viper keys (note: dashes in flags become underscores in viper)
	for _, name := range []string{
		"gudgeon-url", "source", "prometheus-url", "exporter-url", "window", "page-size",
		"log-file", "debug", "prefs", "metrics", "metrics-persist", "metrics-detailed", "query-log",
	} {
		if err := viper.BindPFlag(viperKey(name), flags.Lookup(name)); err != nil {
			log.Fatalf("failed to bind %s: %v", name, err)
		}
	}

	viper.SetEnvPrefix("gudgeontop")
	viper.AutomaticEnv()
}

func viperKey(flag string) string {
	return strings.ReplaceAll(flag, "-", "_")
}

// loadSettings reads .env and the config file, then binds the environment
func loadSettings(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	for _, key := range viper.AllKeys() {
		if err := viper.BindEnv(key); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Handle positional argument (only if gudgeon_url not already set by env var or flag)
	if len(args) == 1 && viper.GetString("gudgeon_url") == "" {
		viper.Set("gudgeon_url", args[0])
	}
	return nil
}

func buildConfig() (gudgeontop.Config, error) {
	cfg := gudgeontop.Config{
		Source:   viper.GetString("source"),
		PageSize: viper.GetInt("page_size"),
		Version:  version,
		Features: gudgeontop.Features{
			Metrics:         viper.GetBool("metrics"),
			MetricsPersist:  viper.GetBool("metrics_persist"),
			MetricsDetailed: viper.GetBool("metrics_detailed"),
			QueryLog:        viper.GetBool("query_log"),
		},
	}

	raw := viper.GetString("gudgeon_url")
	if raw == "" {
		return cfg, fmt.Errorf("gudgeon_url must be set")
	}
	base, _, err := gudgeontop.ParseBaseURL(raw)
	if err != nil {
		return cfg, err
	}
	cfg.BackendURL = base

	if raw := viper.GetString("prometheus_url"); raw != "" {
		if cfg.PrometheusURL, _, err = gudgeontop.ParseBaseURL(raw); err != nil {
			return cfg, err
		}
	}
	if raw := viper.GetString("exporter_url"); raw != "" {
		if cfg.ExporterURL, _, err = gudgeontop.ParseBaseURL(raw); err != nil {
			return cfg, err
		}
	}

	if cfg.Window, err = gudgeontop.ParseWindow(viper.GetString("window")); err != nil {
		return cfg, err
	}

	cfg.PrefsPath = viper.GetString("prefs")
	if cfg.PrefsPath == "" {
		if cfg.PrefsPath, err = gudgeontop.DefaultPrefsPath(); err != nil {
			log.Printf("preferences will not be saved: %v", err)
		}
	}
	return cfg, cfg.Validate()
}

// connect finds the backend, detecting scheme and port when the URL left them out
func connect(ctx context.Context, cfg gudgeontop.Config) (*gudgeontop.Client, error) {
	_, complete, err := gudgeontop.ParseBaseURL(viper.GetString("gudgeon_url"))
	if err != nil {
		return nil, err
	}
	if complete {
		client := gudgeontop.NewClient(cfg.BackendURL, gudgeontop.RequestTimeout())
		if err := client.Check(ctx); err != nil {
			return nil, fmt.Errorf("gudgeon backend at %s is not reachable: %w", cfg.BackendURL, err)
		}
		return client, nil
	}
	return gudgeontop.DetectBackend(ctx, cfg.BackendURL, gudgeontop.RequestTimeout())
}

func openLog(fallback *os.File) (func(), error) {
	path := viper.GetString("log_file")
	if path == "" && fallback != nil {
		log.SetOutput(fallback)
		return func() {}, nil
	}
	if path == "" {
		dir, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("failed to find cache dir: %w", err)
		}
		dir = filepath.Join(dir, "gudgeontop")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log dir: %w", err)
		}
		path = filepath.Join(dir, "gudgeontop.log")
	}

	f, err := tea.LogToFile(path, "gudgeontop")
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return func() { _ = f.Close() }, nil
}

func run(cmd *cobra.Command, args []string) error {
	// Handle --version flag first
	if versionFlag, _ := cmd.Flags().GetBool("version"); versionFlag {
		fmt.Printf("gudgeontop version %s\n", version)
		return nil
	}

	if err := loadSettings(cmd, args); err != nil {
		return err
	}
	closeLog, err := openLog(nil)
	if err != nil {
		return err
	}
	defer closeLog()
	gudgeontop.SetDebug(viper.GetBool("debug"))
	log.Printf("Starting gudgeontop %s", version)

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	client, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	cfg.BackendURL = client.BaseURL()
	log.Printf("Using Gudgeon backend: %s", cfg.BackendURL)

	var samples gudgeontop.SampleSource
	if cfg.Features.Charts() {
		if samples, err = gudgeontop.NewSampleSource(ctx, cfg, client); err != nil {
			return err
		}
	}

	prefs, err := gudgeontop.OpenPrefStore(cfg.PrefsPath)
	if err != nil {
		return err
	}

	return gudgeontop.Dashboard(cfg, client, samples, prefs)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := loadSettings(cmd, args); err != nil {
		return err
	}
	closeLog, err := openLog(os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()
	gudgeontop.SetDebug(viper.GetBool("debug"))

	groupID, _ := cmd.Flags().GetString("group")
	group, ok := gudgeontop.GroupByID(groupID)
	if !ok {
		return fmt.Errorf("unknown metric group %q", groupID)
	}

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	samples, err := gudgeontop.NewSampleSource(ctx, cfg, client)
	if err != nil {
		return err
	}
	return gudgeontop.Watch(ctx, samples, group, cfg.Window, os.Stdout)
}
