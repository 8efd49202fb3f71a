package main

import (
	"fmt"
	"strings"

	"github.com/capstone-ai/dna"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of dna",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("dna version %s\n", strings.TrimSpace(dna.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
