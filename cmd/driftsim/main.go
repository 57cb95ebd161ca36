package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/driftsim/internal/config"
	"github.com/san-kum/driftsim/internal/experiment"
	"github.com/san-kum/driftsim/internal/export"
	"github.com/san-kum/driftsim/internal/optim"
	"github.com/san-kum/driftsim/internal/output"
	"github.com/san-kum/driftsim/internal/sim"
	"github.com/san-kum/driftsim/internal/storage"
	"github.com/san-kum/driftsim/internal/store"
	"github.com/san-kum/driftsim/internal/viz"
)

var (
	dataDir    string
	verbose    bool
	configFile string
	preset     string
	seed       int64
	days       float64
	particles  int
	ensemble   int
	jsonOut    string
	svgOut     string
	svgWidth   int
	withTracks bool
	palette    string
	metric     string
	minimize   bool
)

var log = logrus.New()

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "driftsim",
		Short: "lagrangian particle transport in ocean model output",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetOutput(os.Stderr)
			log.SetLevel(logrus.InfoLevel)
			if verbose {
				log.SetLevel(logrus.DebugLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".driftsim", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	addSimFlags := func(cmd *cobra.Command) {
		cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
		cmd.Flags().StringVar(&preset, "preset", "", "preset as group/name")
		cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 keeps the config seed)")
		cmd.Flags().Float64Var(&days, "days", 0, "run duration in days (0 keeps the config duration)")
		cmd.Flags().IntVar(&particles, "particles", 0, "particles per release (0 keeps the config number)")
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)
	runCmd.Flags().IntVar(&ensemble, "ensemble", 1, "number of seeded realisations")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "run every combination of the serial parameters of a config",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addSimFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&metric, "metric", "survival", "metric ranking the runs")
	sweepCmd.Flags().BoolVar(&minimize, "minimize", false, "rank the lowest metric first")

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "run a simulation with a live terminal view",
		Args:  cobra.NoArgs,
		RunE:  watchSimulation,
	}
	addSimFlags(watchCmd)
	watchCmd.Flags().StringVar(&palette, "palette", viz.Current().Name, "map colors ("+strings.Join(viz.PaletteNames(), ", ")+")")

	infoCmd := &cobra.Command{
		Use:   "info",
		Short: "describe the dataset of a config",
		Args:  cobra.NoArgs,
		RunE:  datasetInfo,
	}
	infoCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	infoCmd.Flags().StringVar(&preset, "preset", "", "preset as group/name")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the surviving fraction of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&jsonOut, "out", "o", "", "output file (stdout when empty)")
	exportJSONCmd.Flags().BoolVar(&withTracks, "tracks", false, "include the trajectories")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "draw the trajectories of a run as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&svgOut, "out", "o", "tracks.svg", "output file")
	exportSVGCmd.Flags().IntVar(&svgWidth, "width", 800, "image width in pixels")

	presetsCmd := &cobra.Command{
		Use:   "presets [group]",
		Short: "list available presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write a config file to start from",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := config.Save(args[0], cfg); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}
	initCmd.Flags().StringVar(&preset, "preset", "", "preset as group/name")

	rootCmd.AddCommand(runCmd, sweepCmd, watchCmd, infoCmd, listCmd, plotCmd, exportJSONCmd, exportSVGCmd, presetsCmd, initCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves --preset, then --config, then the default config,
// and applies the command line overrides.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	switch {
	case configFile != "":
		c, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
	case preset != "":
		group, name, ok := strings.Cut(preset, "/")
		if !ok {
			return nil, fmt.Errorf("preset must be group/name, got %q", preset)
		}
		p := config.GetPreset(group, name)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(group))
		}
		c := *p
		cfg = &c
	default:
		cfg = config.DefaultConfig()
	}

	if seed != 0 {
		cfg.Seed = seed
	}
	if days > 0 {
		cfg.Duration = days * 86400
	}
	if particles > 0 {
		cfg.Release.Number = particles
	}
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	if ensemble > 1 {
		return runEnsemble(ctx, cfg)
	}
	if len(cfg.Serial) > 0 {
		return sweep(ctx, cfg)
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	if cfg.Output.File == "" {
		cfg.Output.File = "tracks.nc"
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = dataDir
	}
	cfg.Output.File = fmt.Sprintf("%s_%d_%s", cfg.Name, time.Now().Unix(), cfg.Output.File)

	exp := experiment.New(cfg, log)
	if err := exp.Setup(experiment.NewRegistry().DefaultMetrics()); err != nil {
		exp.Close()
		return err
	}
	trajectory := exp.OutputPath()

	fmt.Printf("running %s (%d steps)...\n", cfg.Name, cfg.Steps())
	start := time.Now()
	result, err := exp.Run(ctx)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(cfg, result, trajectory)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	printResult(result)
	if trajectory != "" {
		fmt.Printf("\ntrajectories: %s\n", trajectory)
	}
	return nil
}

func runEnsemble(ctx context.Context, cfg *config.Config) error {
	fmt.Printf("running %d realisations of %s...\n", ensemble, cfg.Name)
	start := time.Now()
	results, err := experiment.RunEnsemble(ctx, cfg, ensemble, log)
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v\n\n", time.Since(start))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tRELEASED\tALIVE\tSURVIVAL\tSPREAD_KM")
	for i, r := range results {
		alive := 0
		if len(r.Alive) > 0 {
			alive = r.Alive[len(r.Alive)-1]
		}
		fmt.Fprintf(w, "%d\t%d\t%d\t%.3f\t%.2f\n", cfg.Seed+int64(i), r.Released, alive, r.Metrics["survival"], r.Metrics["spread_km"])
	}
	return w.Flush()
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(cfg.Serial) == 0 {
		return fmt.Errorf("config %s has no serial parameters", cfg.Name)
	}
	ctx, cancel := signalContext()
	defer cancel()
	return sweep(ctx, cfg)
}

func sweep(ctx context.Context, cfg *config.Config) error {
	g, err := optim.NewGridSearch(cfg)
	if err != nil {
		return err
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	if cfg.Output.File != "" && cfg.Output.Dir == "" {
		cfg.Output.Dir = dataDir
	}

	fmt.Printf("running %d serial runs of %s...\n", g.Size(), cfg.Name)
	runs, err := g.Search(ctx, cfg, log)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "RUN\tID\tPARAMETERS\t%s\n", strings.ToUpper(metric))
	for _, r := range runs {
		trajectory := r.Config.Output.File
		if trajectory != "" && !filepath.IsAbs(trajectory) {
			trajectory = filepath.Join(r.Config.Output.Dir, trajectory)
		}
		runID, err := st.Save(r.Config, r.Result, trajectory)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%.4f\n", r.Index+1, runID, r.Point, r.Result.Metrics[metric])
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if best, ok := optim.Best(runs, metric, !minimize); ok {
		fmt.Printf("\nbest: run %d (%s)\n", best.Index+1, best.Point)
	}
	return nil
}

func printResult(result *sim.Result) {
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Printf("released: %d\n", result.Released)

	fmt.Println("\nfate:")
	names := make([]string, 0, len(result.Causes))
	for name := range result.Causes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %-8s %d\n", name, result.Causes[name])
	}

	fmt.Println("\nmetrics:")
	names = names[:0]
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, result.Metrics[name])
	}
}

func watchSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := viz.UsePalette(palette); err != nil {
		return err
	}
	// The view owns the terminal.
	if !verbose {
		log.SetOutput(io.Discard)
	}

	exp := experiment.New(cfg, log)
	if err := exp.Setup(experiment.NewRegistry().DefaultMetrics()); err != nil {
		exp.Close()
		return err
	}
	feed := viz.NewFeed()
	exp.GetSimulator().AddObserver(feed)

	field := exp.Field()
	g := field.Geometry()
	m := viz.NewModel(cfg.Name, feed, field, g.Nx, g.Ny, cfg.Steps(), cfg.Start)
	p := tea.NewProgram(m, tea.WithAltScreen())

	ctx, cancel := signalContext()
	defer cancel()
	type outcome struct {
		result *sim.Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := exp.Run(ctx)
		p.Send(viz.DoneMsg{Err: err})
		done <- outcome{result, err}
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		feed.Close()
		<-done
		return err
	}
	cancel()
	feed.Close()
	out := <-done
	if out.err != nil {
		if ctx.Err() != nil {
			fmt.Println("stopped")
			return nil
		}
		return out.err
	}
	printResult(out.result)
	return nil
}

func datasetInfo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	registry := experiment.NewRegistry()
	reader, err := registry.OpenDataset(cfg.Dataset, log)
	if err != nil {
		return err
	}
	defer reader.Close()

	static := reader.Static()
	g := static.Geometry
	n := reader.NumRecords()

	fmt.Println(titleStyle.Render(cfg.Dataset.Type + " dataset"))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "grid\t%d x %d (%s)\n", g.Nx, g.Ny, g.Convention)
	fmt.Fprintf(w, "levels\t%d\n", static.Nz())
	fmt.Fprintf(w, "3d\t%v\n", static.Is3D())
	fmt.Fprintf(w, "lon\t%.4f .. %.4f\n", g.Lon(0, 0), g.Lon(g.Nx-1, g.Ny-1))
	fmt.Fprintf(w, "lat\t%.4f .. %.4f\n", g.Lat(0, 0), g.Lat(g.Nx-1, g.Ny-1))
	fmt.Fprintf(w, "records\t%d\n", n)
	if n > 0 {
		first, err := reader.Time(0)
		if err != nil {
			return err
		}
		last, err := reader.Time(n - 1)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "time\t%.0f .. %.0f s (%.2f days)\n", first, last, (last-first)/86400)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(mutedStyle.Render("actions: " + strings.Join(registry.ListActions(), ", ")))
	fmt.Println(mutedStyle.Render("traits:  " + strings.Join(registry.ListTraits(), ", ")))
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tDAYS\tDT\tDATASET\tRELEASED\tSURVIVAL")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.1f\t%.0fs\t%s\t%d\t%.3f\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration/86400,
			run.Dt,
			run.Dataset,
			run.Released,
			run.Metrics["survival"],
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	_, alive, err := st.LoadSummary(runID)
	if err != nil {
		return err
	}
	if len(alive) == 0 || meta.Released == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("name: %s\n", meta.Name)
	fmt.Printf("samples: %d\n\n", len(alive))

	data := make([]float64, len(alive))
	for i, n := range alive {
		data[i] = float64(n) / float64(meta.Released)
	}
	graph := asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("surviving fraction"),
	)
	fmt.Println(graph)
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	cfg, err := st.LoadConfig(runID)
	if err != nil {
		return err
	}
	times, alive, err := st.LoadSummary(runID)
	if err != nil {
		return err
	}

	result := &sim.Result{
		StepsTaken: meta.Steps,
		Times:      times,
		Alive:      alive,
		Released:   meta.Released,
		Causes:     meta.Causes,
		Metrics:    meta.Metrics,
	}
	var tracks []output.Track
	if withTracks {
		if meta.Trajectory == "" {
			return fmt.Errorf("run %s has no trajectory file", runID)
		}
		if tracks, err = output.ReadTracks(meta.Trajectory); err != nil {
			return err
		}
	}

	data := store.NewExportData(cfg, result, tracks)
	if jsonOut == "" {
		return store.ExportJSONStdout(data)
	}
	return store.ExportJSON(jsonOut, data)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	if meta.Trajectory == "" {
		return fmt.Errorf("run %s has no trajectory file", runID)
	}

	tracks, err := output.ReadTracks(meta.Trajectory)
	if err != nil {
		return err
	}
	svg := export.TracksToSVG(tracks, svgWidth)
	if svg == "" {
		return fmt.Errorf("run %s has no recorded positions", runID)
	}
	if err := os.WriteFile(svgOut, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %d tracks to %s\n", len(tracks), svgOut)
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	groups := make([]string, 0, len(config.Presets))
	for g := range config.Presets {
		groups = append(groups, g)
	}
	if len(args) == 1 {
		if _, ok := config.Presets[args[0]]; !ok {
			return fmt.Errorf("unknown preset group: %s", args[0])
		}
		groups = []string{args[0]}
	}
	sort.Strings(groups)

	for _, g := range groups {
		fmt.Println(titleStyle.Render(g))
		names := config.ListPresets(g)
		sort.Strings(names)
		for _, name := range names {
			cfg := config.GetPreset(g, name)
			fmt.Printf("  %-12s %s\n", name, mutedStyle.Render(fmt.Sprintf("%s, %.0f days, dt %.0fs", cfg.Dataset.Type, cfg.Duration/86400, cfg.Dt)))
		}
	}
	return nil
}
