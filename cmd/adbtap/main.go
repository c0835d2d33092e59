// Package main provides the CLI entrypoint for adbtap.
package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/adbtap/internal/config"
	"github.com/verte-zerg/adbtap/internal/device"
	"github.com/verte-zerg/adbtap/internal/logx"
	"github.com/verte-zerg/adbtap/internal/model"
	"github.com/verte-zerg/adbtap/internal/planner"
	"github.com/verte-zerg/adbtap/internal/scheduler"
	"github.com/verte-zerg/adbtap/internal/session"
	"github.com/verte-zerg/adbtap/internal/stats"
	"github.com/verte-zerg/adbtap/internal/tui"
)

const (
	defaultInterval   = 0.008
	defaultJitter     = 8
	defaultPreset     = true
	defaultStatsEvery = scheduler.DefaultStatsEvery
	defaultADB        = "adb"
	defaultADBTimeout = 5.0
	defaultLogLevel   = "info"
)

var (
	configPath  string
	logLevel    string
	adbPath     string
	adbSerial   string
	adbTimeout  float64
	tapX        int
	tapY        int
	tapInterval float64
	tapJitter   int
	tapDuration int
	tapTotal    int
	tapSingle   bool
	tapPreset   bool
	tapRadius   int
	tapMaxRate  float64
	tapStats    int
	tapSeed     int64
	useTUI      bool

	planWidth  int
	planHeight int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "adbtap",
		Short:         "Ring-pattern auto tapper for Android devices over adb",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runTapCmd,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/adbtap/config.toml)")
	pf.StringVar(&logLevel, "log-level", defaultLogLevel, "log level (trace, debug, info, warn, error)")
	pf.StringVar(&adbPath, "adb", defaultADB, "adb binary name or path")
	pf.StringVar(&adbSerial, "serial", "", "device serial (default: the only attached device)")
	pf.Float64Var(&adbTimeout, "adb-timeout", defaultADBTimeout, "timeout in seconds for a single adb command")

	addTargetFlags(rootCmd)
	rootCmd.Flags().Float64Var(&tapInterval, "interval", defaultInterval, "seconds between taps in single-point mode")
	rootCmd.Flags().IntVar(&tapJitter, "jitter", defaultJitter, "random pixel variation per axis")
	rootCmd.Flags().IntVar(&tapDuration, "duration", 0, "seconds to run (default: unlimited)")
	rootCmd.Flags().IntVar(&tapTotal, "total-taps", 0, "total taps needed to complete the goal")
	rootCmd.Flags().BoolVar(&tapSingle, "single-point", false, "tap a single point instead of the ring pattern")
	rootCmd.Flags().Float64Var(&tapMaxRate, "max-rate", 0, "upper bound on taps per second (0: no cap)")
	rootCmd.Flags().IntVar(&tapStats, "stats-every", defaultStatsEvery, "taps between progress reports")
	rootCmd.Flags().BoolVar(&useTUI, "tui", false, "show a live dashboard instead of progress lines")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newDevicesCmd())
	rootCmd.AddCommand(newPlanCmd())

	return rootCmd
}

func addTargetFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&tapX, "x", 0, "x coordinate of the target (default: calibrated preset)")
	cmd.Flags().IntVar(&tapY, "y", 0, "y coordinate of the target (default: calibrated preset)")
	cmd.Flags().BoolVar(&tapPreset, "preset", defaultPreset, "derive the target from the display size (50% across, 60% down)")
	cmd.Flags().IntVar(&tapRadius, "radius", 0, "target region radius in pixels (default: 20% of display height)")
	cmd.Flags().Int64Var(&tapSeed, "seed", 0, "random seed (0: time based)")
}

func runTapCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig(cmd)
	if err != nil {
		return err
	}
	cfg, err := buildRunConfig(cmd, fileCfg)
	if err != nil {
		return err
	}
	applyBoolConfig(cmd, "tui", &useTUI, fileCfg.UI.TUI)

	log, err := logx.New(logx.Options{Level: logLevel})
	if err != nil {
		return err
	}
	adb := newADB()
	out := cmd.OutOrStdout()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	plannerRnd, schedRnd := seededSources(cfg.Seed)
	setup, err := session.Prepare(ctx, adb, cfg, planner.NewWithRand(plannerRnd), log)
	if err != nil {
		return deviceError(err)
	}
	if err := printIntro(out, cfg, setup); err != nil {
		return err
	}

	opts := scheduler.Options{
		Tapper: adb,
		Plan:   setup.Plan,
		Target: setup.Center,
		Config: cfg,
		Rand:   schedRnd,
		Logger: log,
	}

	var summary model.Summary
	if useTUI && term.IsTerminal(int(os.Stdout.Fd())) {
		summary, err = runWithDashboard(ctx, opts)
	} else {
		opts.OnSnapshot = func(snap model.Snapshot) {
			if err := stats.RenderSnapshot(out, snap); err != nil {
				log.Debug().Err(err).Msg("failed to write progress")
			}
		}
		summary, err = runPlain(ctx, opts)
	}
	if err != nil {
		return err
	}

	if err := printOutcome(out, cfg, summary); err != nil {
		return err
	}
	return stats.RenderSummary(out, summary)
}

func runPlain(ctx context.Context, opts scheduler.Options) (model.Summary, error) {
	sched, err := scheduler.New(opts)
	if err != nil {
		return model.Summary{}, err
	}
	return sched.Run(ctx)
}

func runWithDashboard(ctx context.Context, opts scheduler.Options) (model.Summary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	dashboard := tui.NewModel("adbtap", opts.Config.TotalTaps, cancel)
	program := tea.NewProgram(dashboard, tea.WithAltScreen())
	opts.OnSnapshot = func(snap model.Snapshot) {
		program.Send(tui.SnapshotMsg(snap))
	}
	// Progress goes to the dashboard; keep warnings off the alt screen.
	opts.Logger = opts.Logger.Level(zerolog.ErrorLevel)
	sched, err := scheduler.New(opts)
	if err != nil {
		return model.Summary{}, err
	}

	type result struct {
		summary model.Summary
		err     error
	}
	done := make(chan result, 1)
	go func() {
		summary, err := sched.Run(ctx)
		program.Send(tui.DoneMsg(summary))
		done <- result{summary: summary, err: err}
	}()

	if _, err := program.Run(); err != nil {
		cancel()
		res := <-done
		if res.err != nil {
			return res.summary, res.err
		}
		return res.summary, fmt.Errorf("failed to run dashboard: %w", err)
	}
	res := <-done
	return res.summary, res.err
}

func printIntro(w io.Writer, cfg model.RunConfig, setup session.Setup) error {
	var lines []string
	if setup.Resolution != nil {
		lines = append(lines, fmt.Sprintf("Screen resolution: %dx%d", setup.Resolution.Width, setup.Resolution.Height))
	}
	if cfg.SinglePoint {
		lines = append(lines,
			fmt.Sprintf("Starting auto-tapper at position (%d, %d)", setup.Center.X, setup.Center.Y),
			fmt.Sprintf("Tap interval: %s", cfg.Interval),
		)
	} else {
		layout := "ring"
		if setup.Pinned {
			layout = "pinned cross"
		}
		lines = append(lines,
			"Starting optimized multi-location auto-tapper",
			fmt.Sprintf("Using %d strategic tap locations with variable rates (%s layout around (%d, %d), radius %.0f px)",
				len(setup.Plan), layout, setup.Center.X, setup.Center.Y, setup.Radius),
		)
	}
	if cfg.TotalTaps > 0 {
		lines = append(lines, fmt.Sprintf("Total taps needed: %d", cfg.TotalTaps))
	}
	lines = append(lines, "Press Ctrl+C to stop...")
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func printOutcome(w io.Writer, cfg model.RunConfig, summary model.Summary) error {
	var line string
	switch summary.State {
	case model.StateCompleted:
		line = fmt.Sprintf("Successfully completed %d taps. Goal reached!", cfg.TotalTaps)
	case model.StateDurationExpired:
		line = fmt.Sprintf("Duration of %d seconds reached. Stopping.", int(cfg.Duration.Seconds()))
	default:
		return nil
	}
	if _, err := fmt.Fprintln(w, line); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := resolveConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List devices attached to adb",
		Args:  cobra.NoArgs,
		RunE:  runDevicesCmd,
	}
}

func runDevicesCmd(cmd *cobra.Command, _ []string) error {
	if _, err := loadFileConfig(cmd); err != nil {
		return err
	}
	infos, err := newADB().ListDevices(cmd.Context())
	if err != nil {
		return deviceError(err)
	}
	if len(infos) == 0 {
		logErrln("No devices attached. Connect a device and enable USB debugging.")
		return fmt.Errorf("no devices attached")
	}
	rows := make([][]string, 0, len(infos))
	for _, info := range infos {
		rows = append(rows, []string{info.Serial, info.State})
	}
	for _, line := range stats.FormatTable([]string{"Serial", "State"}, rows, nil) {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the tap plan without tapping",
		Args:  cobra.NoArgs,
		RunE:  runPlanCmd,
	}
	addTargetFlags(cmd)
	cmd.Flags().IntVar(&planWidth, "width", 0, "display width to plan for instead of querying the device")
	cmd.Flags().IntVar(&planHeight, "height", 0, "display height to plan for instead of querying the device")
	return cmd
}

func runPlanCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig(cmd)
	if err != nil {
		return err
	}
	cfg, err := buildRunConfig(cmd, fileCfg)
	if err != nil {
		return err
	}
	if cfg.SinglePoint {
		return fmt.Errorf("plan is only built in multi-point mode")
	}
	if (planWidth > 0) != (planHeight > 0) {
		return fmt.Errorf("--width and --height must be given together")
	}
	log, err := logx.New(logx.Options{Level: logLevel})
	if err != nil {
		return err
	}

	var prober session.Prober = newADB()
	if planWidth > 0 {
		prober = staticDisplay{width: planWidth, height: planHeight}
	}
	plannerRnd, _ := seededSources(cfg.Seed)
	setup, err := session.Prepare(cmd.Context(), prober, cfg, planner.NewWithRand(plannerRnd), log)
	if err != nil {
		return deviceError(err)
	}
	return renderPlan(cmd.OutOrStdout(), setup)
}

func renderPlan(w io.Writer, setup session.Setup) error {
	layout := "ring"
	if setup.Pinned {
		layout = "pinned cross"
	}
	if _, err := fmt.Fprintf(w, "Plan: %d points, %s layout around (%d, %d), radius %.0f px\n",
		len(setup.Plan), layout, setup.Center.X, setup.Center.Y, setup.Radius); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	rows := make([][]string, 0, len(setup.Plan))
	for i, pt := range setup.Plan {
		dx := float64(pt.X - setup.Center.X)
		dy := float64(pt.Y - setup.Center.Y)
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%d", pt.X),
			fmt.Sprintf("%d", pt.Y),
			pt.Interval.String(),
			fmt.Sprintf("%.1f", math.Hypot(dx, dy)),
		})
	}
	rightAlign := map[int]bool{0: true, 1: true, 2: true, 3: true, 4: true}
	for _, line := range stats.FormatTable([]string{"#", "X", "Y", "Interval", "Distance"}, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

// staticDisplay stands in for a device when the display size is given on the command line.
type staticDisplay struct {
	width  int
	height int
}

func (s staticDisplay) QueryConnectedDevices(context.Context) (bool, error) {
	return true, nil
}

func (s staticDisplay) QueryDisplayResolution(context.Context) (int, int, error) {
	return s.width, s.height, nil
}

func loadFileConfig(cmd *cobra.Command) (config.FileConfig, error) {
	fileCfg, err := config.LoadConfig(resolveConfigPath())
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Log.Level)
	applyStringConfig(cmd, "adb", &adbPath, fileCfg.ADB.Path)
	applyStringConfig(cmd, "serial", &adbSerial, fileCfg.ADB.Serial)
	applyFloatConfig(cmd, "adb-timeout", &adbTimeout, fileCfg.ADB.Timeout)
	if adbTimeout <= 0 {
		return config.FileConfig{}, fmt.Errorf("--adb-timeout must be > 0")
	}
	return fileCfg, nil
}

func buildRunConfig(cmd *cobra.Command, fileCfg config.FileConfig) (model.RunConfig, error) {
	tc := fileCfg.Tap
	applyFloatConfig(cmd, "interval", &tapInterval, tc.Interval)
	applyIntConfig(cmd, "jitter", &tapJitter, tc.Jitter)
	applyIntConfig(cmd, "duration", &tapDuration, tc.Duration)
	applyIntConfig(cmd, "total-taps", &tapTotal, tc.TotalTaps)
	applyBoolConfig(cmd, "single-point", &tapSingle, tc.SinglePoint)
	applyBoolConfig(cmd, "preset", &tapPreset, tc.Preset)
	applyIntConfig(cmd, "radius", &tapRadius, tc.Radius)
	applyFloatConfig(cmd, "max-rate", &tapMaxRate, tc.MaxRate)
	applyIntConfig(cmd, "stats-every", &tapStats, tc.StatsEvery)
	applyInt64Config(cmd, "seed", &tapSeed, tc.Seed)

	cfg := model.RunConfig{
		X:           optionalInt(cmd, "x", tapX, tc.X),
		Y:           optionalInt(cmd, "y", tapY, tc.Y),
		Interval:    time.Duration(tapInterval * float64(time.Second)),
		Jitter:      tapJitter,
		Duration:    time.Duration(tapDuration) * time.Second,
		TotalTaps:   tapTotal,
		SinglePoint: tapSingle,
		Preset:      tapPreset,
		Radius:      tapRadius,
		MaxRate:     tapMaxRate,
		StatsEvery:  tapStats,
		Seed:        tapSeed,
	}
	if err := validateConfig(cfg, tapInterval); err != nil {
		return model.RunConfig{}, err
	}
	return cfg, nil
}

func validateConfig(cfg model.RunConfig, intervalSecs float64) error {
	if intervalSecs <= 0 || cfg.Interval <= 0 {
		return fmt.Errorf("--interval must be > 0")
	}
	if cfg.Jitter < 0 {
		return fmt.Errorf("--jitter must be >= 0")
	}
	if cfg.Duration < 0 {
		return fmt.Errorf("--duration must be >= 0")
	}
	if cfg.TotalTaps < 0 {
		return fmt.Errorf("--total-taps must be >= 0")
	}
	if cfg.Radius < 0 {
		return fmt.Errorf("--radius must be >= 0")
	}
	if cfg.MaxRate < 0 {
		return fmt.Errorf("--max-rate must be >= 0")
	}
	if cfg.StatsEvery <= 0 {
		return fmt.Errorf("--stats-every must be > 0")
	}
	if cfg.X != nil && *cfg.X < 0 {
		return fmt.Errorf("--x must be >= 0")
	}
	if cfg.Y != nil && *cfg.Y < 0 {
		return fmt.Errorf("--y must be >= 0")
	}
	return nil
}

func newADB() *device.ADB {
	return device.NewADB(device.Options{
		Binary:  adbPath,
		Serial:  adbSerial,
		Timeout: time.Duration(adbTimeout * float64(time.Second)),
	})
}

func seededSources(seed int64) (*rand.Rand, *rand.Rand) {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed)), rand.New(rand.NewSource(seed + 1))
}

func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

func deviceError(err error) error {
	hint := device.Hint(err)
	if hint == "" {
		return err
	}
	return fmt.Errorf("%w\n%s", err, hint)
}

func optionalInt(cmd *cobra.Command, name string, flagValue int, fileValue *int) *int {
	if cmd.Flags().Changed(name) {
		v := flagValue
		return &v
	}
	if fileValue != nil {
		v := *fileValue
		return &v
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyInt64Config(cmd *cobra.Command, name string, target, value *int64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# adbtap configuration
# Uncomment a value to enable it. CLI flags override config values.

[tap]
# x = 540                 # Target x coordinate (default: calibrated preset)
# y = 1440                # Target y coordinate (default: calibrated preset)
# interval = %.3f         # Seconds between taps in single-point mode
# jitter = %d               # Random pixel variation per axis
# duration = 600          # Seconds to run (default: unlimited)
# total-taps = 100000     # Taps needed to complete the goal
# single-point = false    # Tap one point instead of the ring pattern
# preset = %t           # Target 50%% across and 60%% down the display
# radius = 480            # Region radius in pixels (default: 20%% of height)
# max-rate = 0            # Upper bound on taps per second (0: no cap)
# stats-every = %d        # Taps between progress reports
# seed = 0                # Random seed (0: time based)

[adb]
# path = %q            # adb binary name or path
# serial = ""             # Device serial
# timeout = %.1f           # Seconds per adb command

[log]
# level = %q          # trace, debug, info, warn, error

[ui]
# tui = false             # Live dashboard instead of progress lines
`,
		defaultInterval,
		defaultJitter,
		defaultPreset,
		defaultStatsEvery,
		defaultADB,
		defaultADBTimeout,
		defaultLogLevel,
	)
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
