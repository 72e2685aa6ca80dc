package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/philipparndt/gomesh/internal/logger"
	"github.com/philipparndt/gomesh/pkg/analysis"
	"github.com/philipparndt/gomesh/pkg/openscad"
	"github.com/philipparndt/gomesh/pkg/watcher"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var watchDebounceMillis int

var watchCmd = &cobra.Command{
	Use:   "watch [file]",
	Short: "Watch a model file and re-analyze on change",
	Long: `Watch an STL or OpenSCAD file and print updated measurements whenever it
changes. For OpenSCAD files the included and used files are watched too, so
edits to a library trigger a re-render.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().IntVar(&watchDebounceMillis, "debounce", 0, "Debounce window in milliseconds (0 = from config)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	filename := args[0]

	debounce := time.Duration(cfg.Watch.DebounceMillis) * time.Millisecond
	if watchDebounceMillis > 0 {
		debounce = time.Duration(watchDebounceMillis) * time.Millisecond
	}

	files, err := watchedFiles(filename)
	if err != nil {
		return err
	}

	fw, err := watcher.NewFileWatcher(debounce, logger.Log)
	if err != nil {
		return err
	}
	defer fw.Close()

	refresh := func(changed string) {
		logger.Info("file changed, reloading", zap.String("file", changed))
		printWatchReport(cmd, filename)
	}

	if err := fw.Watch(files, refresh); err != nil {
		return err
	}
	fw.Start()

	logger.Info("watching", zap.Strings("files", files), zap.Duration("debounce", debounce))
	printWatchReport(cmd, filename)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sig:
	case <-cmd.Context().Done():
	}

	return nil
}

// watchedFiles returns the file itself plus, for OpenSCAD sources, its
// transitive include/use dependencies.
func watchedFiles(filename string) ([]string, error) {
	if strings.ToLower(filepath.Ext(filename)) != ".scad" {
		return []string{filename}, nil
	}

	renderer := openscad.NewRenderer(filepath.Dir(filename))
	deps, err := renderer.ResolveDependencies(filepath.Base(filename))
	if err != nil {
		return nil, fmt.Errorf("resolving dependencies of %s: %w", filename, err)
	}
	return deps, nil
}

func printWatchReport(cmd *cobra.Command, filename string) {
	model, err := loadModel(cmd.Context(), filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[%s] error: %v\n", time.Now().Format("15:04:05"), err)
		return
	}

	result := analysis.AnalyzeModel(model)
	fmt.Printf("[%s] %s: %d triangles, area %.6f, volume %.6f, bbox %s\n",
		time.Now().Format("15:04:05"),
		model.Name(),
		result.TriangleCount,
		result.SurfaceArea,
		result.Volume,
		analysis.FormatVector(result.Dimensions))
}
