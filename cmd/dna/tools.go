package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/capstone-ai/dna/pkg/catalog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tool catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat := catalog.Default()
		if file, _ := cmd.Flags().GetString("catalog"); file != "" {
			extra, err := catalog.LoadFile(file)
			if err != nil {
				return err
			}
			cat = cat.Merge(extra)
		}

		format, _ := cmd.Flags().GetString("format")
		switch format {
		case "json":
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(catalog.File{Tools: cat.List()})
		case "yaml":
			return yaml.NewEncoder(os.Stdout).Encode(catalog.File{Tools: cat.List()})
		}

		for _, t := range cat.List() {
			fmt.Printf("%-22s %s\n", t.Name, t.Description)
			if len(t.Parameters.Required) > 0 {
				fmt.Printf("%-22s required: %s\n", "", strings.Join(t.Parameters.Required, ", "))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(toolsCmd)
	toolsCmd.Flags().String("catalog", "", "Extra tool catalog (YAML or JSON)")
	toolsCmd.Flags().String("format", "text", "Output format: text, json or yaml")
}
