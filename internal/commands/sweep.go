// internal/commands/sweep.go
package chunkbench

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/benchkit/chunkbench/internal/bench"
	"github.com/benchkit/chunkbench/internal/device"
	"github.com/benchkit/chunkbench/internal/logging"
	"github.com/benchkit/chunkbench/internal/profiling"
	"github.com/benchkit/chunkbench/internal/tui"
	"github.com/benchkit/chunkbench/internal/workload"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run the chunk-size x token-count benchmark sweep",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := *GetConfig()

		f := cmd.Flags()
		if f.Changed("chunk-sizes") {
			cfg.ChunkSizes, _ = f.GetIntSlice("chunk-sizes")
		}
		if f.Changed("token-counts") {
			cfg.TokenCounts, _ = f.GetIntSlice("token-counts")
		}
		if f.Changed("iterations") {
			cfg.Iterations, _ = f.GetInt("iterations")
		}
		if f.Changed("num-layers") {
			cfg.NumLayers, _ = f.GetInt("num-layers")
		}
		if f.Changed("enable-profiling") {
			cfg.EnableProfiling, _ = f.GetBool("enable-profiling")
		}
		if f.Changed("profiler-type") {
			cfg.ProfilerType, _ = f.GetString("profiler-type")
		}
		if f.Changed("output") {
			cfg.Output, _ = f.GetString("output")
		}
		if f.Changed("cache-path") {
			cfg.CachePath, _ = f.GetString("cache-path")
		}
		if f.Changed("use-memory") {
			cfg.UseMemory, _ = f.GetBool("use-memory")
		}
		if f.Changed("clear-cache") {
			cfg.ClearCache, _ = f.GetBool("clear-cache")
		}
		if f.Changed("save-html-reports") {
			cfg.SaveHTMLReports, _ = f.GetBool("save-html-reports")
		}
		if f.Changed("device") {
			cfg.Device, _ = f.GetInt("device")
		}
		if f.Changed("profiling-sleep-seconds") {
			cfg.ProfilingSleepSeconds, _ = f.GetInt("profiling-sleep-seconds")
		}
		if f.Changed("store-timeout-seconds") {
			cfg.StoreTimeoutSeconds, _ = f.GetInt("store-timeout-seconds")
		}

		if err := cfg.Validate(); err != nil {
			return err
		}

		// Environment validation happens before any sweep work; these are
		// the only failures that surface as a non-zero exit.
		rt := device.NewHostRuntime()
		if err := device.ValidateIndex(rt, cfg.Device); err != nil {
			color.Red("ERROR: %v", err)
			return err
		}
		if err := rt.SetDevice(cfg.Device); err != nil {
			return err
		}
		kind, err := profiling.ParseKind(cfg.ProfilerType)
		if err != nil {
			return err
		}
		caps := profiling.DetectCapabilities()
		if cfg.EnableProfiling && !caps.Available(kind) {
			err := fmt.Errorf("profiler %q is not available in this process", kind)
			color.Red("ERROR: %v", err)
			return err
		}

		info := rt.Devices()[cfg.Device]
		logging.LogEvent("Using device %d: %s", info.Index, info.Name)
		logging.LogEvent("Model configuration: %d layers, %.1f KB per token", cfg.NumLayers, float64(workload.BytesPerToken(cfg.NumLayers))/1024)

		var progress bench.ProgressFunc
		var program *tea.Program
		tuiDone := make(chan struct{})
		if cfg.TUI {
			program = tea.NewProgram(tui.NewModel(len(cfg.ChunkSizes) * len(cfg.TokenCounts)))
			go func() {
				defer close(tuiDone)
				_, _ = program.Run()
			}()
			progress = func(completed, total int, description string) {
				program.Send(tui.TupleMsg{Completed: completed, Total: total, Description: description})
			}
		}

		_, err = bench.Sweep(rt, cfg, caps, progress)

		if program != nil {
			program.Send(tui.DoneMsg{})
			<-tuiDone
		}

		// Per-configuration failures never reach here; a sweep that ran
		// to completion exits zero.
		return err
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().IntSlice("chunk-sizes", nil, "chunk sizes to test")
	sweepCmd.Flags().IntSlice("token-counts", nil, "token counts to test")
	sweepCmd.Flags().IntP("iterations", "i", 0, "retrieve iterations per configuration")
	sweepCmd.Flags().Int("num-layers", 0, "number of transformer layers to simulate")
	sweepCmd.Flags().Bool("enable-profiling", false, "profile the final retrieve iteration")
	sweepCmd.Flags().String("profiler-type", "", "profiler backend (cpu or trace)")
	sweepCmd.Flags().StringP("output", "o", "", "output file for results JSON")
	sweepCmd.Flags().String("cache-path", "", "filesystem cache directory")
	sweepCmd.Flags().Bool("use-memory", false, "use the in-memory backend instead of the filesystem")
	sweepCmd.Flags().Bool("clear-cache", false, "clear the cache directory before the first tuple")
	sweepCmd.Flags().Bool("save-html-reports", false, "save interactive HTML timing reports")
	sweepCmd.Flags().IntP("device", "d", 0, "device index to use")
	sweepCmd.Flags().Int("profiling-sleep-seconds", 0, "sleep before the profiled iteration for external coordination")
	sweepCmd.Flags().Int("store-timeout-seconds", 0, "completion-wait timeout for the initial store")
}
