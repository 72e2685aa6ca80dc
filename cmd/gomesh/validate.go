package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var validateStrict bool

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate an STL file",
	Long: `Parse an STL file and report whether it is structurally and numerically
valid. The exit code reflects the result, so the command can gate CI
pipelines and build scripts.`,
	Args: cobra.ExactArgs(1),
	Run:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "Also fail on degenerate (zero-area) triangles")
}

func runValidate(cmd *cobra.Command, args []string) {
	filename := args[0]

	model, err := loadModel(cmd.Context(), filename)
	if err != nil {
		fmt.Printf("INVALID: %v\n", err)
		os.Exit(1)
	}

	meta := model.Metadata()
	fmt.Printf("OK: %s, %d triangles, format %s\n", filename, meta.TriangleCount, meta.Format)

	if meta.DegenerateCount > 0 {
		fmt.Printf("Warning: %d degenerate triangles (zero area)\n", meta.DegenerateCount)
		if validateStrict {
			os.Exit(1)
		}
	}
}
