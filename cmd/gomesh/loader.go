package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/philipparndt/gomesh/internal/logger"
	"github.com/philipparndt/gomesh/pkg/openscad"
	"github.com/philipparndt/gomesh/pkg/stl"
	"go.uber.org/zap"
)

// newParser builds an stl.Parser from the loaded config.
func newParser() *stl.Parser {
	p := stl.NewParser()
	p.Logger = logger.Log
	if cfg != nil {
		p.Limits = stl.Limits{
			MaxTriangles:  cfg.Parser.MaxTriangles,
			MaxLineLength: cfg.Parser.MaxLineLength,
		}
	}
	return p
}

// loadModel loads an STL or OpenSCAD file into a validated model.
// OpenSCAD sources are rendered to a temporary STL first.
func loadModel(ctx context.Context, path string) (*stl.Model, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".stl":
		return newParser().ParseFile(ctx, path)

	case ".scad":
		stlPath, cleanup, err := renderScad(ctx, path)
		if err != nil {
			return nil, err
		}
		defer cleanup()

		m, err := newParser().ParseFile(ctx, stlPath)
		if err != nil {
			return nil, err
		}
		// Report the .scad origin, not the temp file.
		return m.WithName(strings.TrimSuffix(filepath.Base(path), ".scad")), nil

	default:
		return nil, fmt.Errorf("%s: %w (expected .stl or .scad)", path, stl.ErrInvalidExtension)
	}
}

// renderScad renders an OpenSCAD file to a temporary STL and returns
// its path together with a cleanup function.
func renderScad(ctx context.Context, scadPath string) (string, func(), error) {
	tmp, err := os.CreateTemp("", "gomesh-*.stl")
	if err != nil {
		return "", nil, fmt.Errorf("creating temp file: %w", err)
	}
	tmp.Close()

	cleanup := func() { os.Remove(tmp.Name()) }

	logger.Debug("rendering OpenSCAD file",
		zap.String("source", scadPath),
		zap.String("output", tmp.Name()))

	renderer := openscad.NewRenderer(filepath.Dir(scadPath))
	if err := renderer.RenderToSTL(ctx, filepath.Base(scadPath), tmp.Name()); err != nil {
		cleanup()
		return "", nil, err
	}

	return tmp.Name(), cleanup, nil
}
