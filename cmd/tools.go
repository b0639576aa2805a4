package cmd

import (
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/courtpilot/internal/action"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func newToolsCmd() *cobra.Command {
	var asJSON bool

	toolsCmd := &cobra.Command{
		Use:   "tools",
		Short: "Print the action catalog offered to the actor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			catalog, err := action.NewCatalog(action.CatalogOptions{
				Table:   action.Kind(strings.ToUpper(string(cfg.Agent.ToolSet))),
				Input:   cfg.Agent.EnableInput,
				Locator: cfg.Agent.Locator.Enabled,
			})
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(catalog.Specs())
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), catalog.Render())
			return err
		},
	}

	toolsCmd.Flags().String("tool-set", "", "Table tool variant: analyze_table or parse_table_data")
	toolsCmd.Flags().Bool("enable-input", true, "Offer the INPUT action")
	toolsCmd.Flags().Bool("locator", false, "Offer the target argument of CLICK")
	toolsCmd.Flags().BoolVar(&asJSON, "json", false, "Print the tool-call schemas instead of the prompt lines")

	return toolsCmd
}
