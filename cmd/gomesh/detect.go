package main

import (
	"fmt"
	"os"

	"github.com/philipparndt/gomesh/pkg/stl"
	"github.com/spf13/cobra"
)

var detectCmd = &cobra.Command{
	Use:   "detect [file]",
	Short: "Detect the format of an STL file",
	Long:  "Classify a file as ASCII or binary STL without fully parsing it.",
	Args:  cobra.ExactArgs(1),
	Run:   runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) {
	filename := args[0]

	data, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		os.Exit(1)
	}

	format := stl.DetectFormat(data)
	fmt.Printf("Format: %s\n", format)
	fmt.Printf("Size: %d bytes\n", len(data))

	if stl.IsValidBinarySTL(data) {
		fmt.Println("Structure: consistent with the binary layout")
	} else {
		fmt.Println("Structure: not a valid binary layout")
	}

	if format == stl.FormatUnknown {
		os.Exit(1)
	}
}
