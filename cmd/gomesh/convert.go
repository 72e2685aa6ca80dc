package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/philipparndt/gomesh/pkg/stl"
	"github.com/spf13/cobra"
)

var (
	convertOutput string
	convertFormat string
)

var convertCmd = &cobra.Command{
	Use:   "convert [file]",
	Short: "Convert an STL file between ASCII and binary",
	Long:  "Parse an STL file and save it again in the requested variant.",
	Args:  cobra.ExactArgs(1),
	Run:   runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "", "Output file path")
	convertCmd.Flags().StringVarP(&convertFormat, "format", "f", "", "Target format: ascii or binary")
	convertCmd.MarkFlagRequired("output")
	convertCmd.MarkFlagRequired("format")
}

func runConvert(cmd *cobra.Command, args []string) {
	filename := args[0]

	var target stl.Format
	switch strings.ToLower(convertFormat) {
	case "ascii":
		target = stl.FormatASCII
	case "binary":
		target = stl.FormatBinary
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown target format %q (expected ascii or binary)\n", convertFormat)
		os.Exit(1)
	}

	model, err := loadModel(cmd.Context(), filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing STL file: %v\n", err)
		os.Exit(1)
	}

	if err := newParser().SaveFile(cmd.Context(), model.WithFormat(target), convertOutput); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving STL file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Converted %s (%s) to %s (%s), %d triangles\n",
		filename, model.Metadata().Format, convertOutput, target, model.TriangleCount())
}
