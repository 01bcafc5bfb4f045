package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"ilpatch/internal/export"
)

var schemaCmd = &cobra.Command{
	Use:    "schema",
	Short:  "Generate JSON schema for the export document",
	Long:   "Generate JSON schema for the --json export document, or for the dump configuration with --config",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		config, _ := cmd.Flags().GetBool("config")
		bts, err := schema(config)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(bts))
		return nil
	},
}

func init() {
	schemaCmd.Flags().Bool("config", false, "Describe the dump configuration instead")
}

func schema(config bool) ([]byte, error) {
	if !config {
		return export.Schema()
	}
	reflector := new(jsonschema.Reflector)
	bts, err := json.MarshalIndent(reflector.Reflect(&Config{}), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return bts, nil
}
