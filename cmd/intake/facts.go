package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hireflow/intake-engine/internal/usecase"
)

var factsFile string

var factsCmd = &cobra.Command{
	Use:   "facts",
	Short: "Manage fact definitions",
}

// factsImportCmd reads a file of the form
//
//	schema_version_id: schema-v1
//	definitions:
//	  - job_form_field_id: field-city
//	    fact: city the applicant lives in
//	    required: true
//	    sort_order: 1
var factsImportCmd = &cobra.Command{
	Use:     "import",
	Short:   "Import the fact definitions of a schema version from YAML",
	PreRunE: setup,
	RunE: func(cmd *cobra.Command, _ []string) error {
		data, err := os.ReadFile(factsFile)
		if err != nil {
			return fmt.Errorf("read facts file: %w", err)
		}
		var req usecase.ImportFactDefinitionsRequest
		if err := yaml.Unmarshal(data, &req); err != nil {
			return fmt.Errorf("parse facts YAML: %w", err)
		}
		defs, err := svc.ImportFactDefinitions(cmd.Context(), req)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), defs)
	},
}

func init() {
	factsImportCmd.Flags().StringVarP(&factsFile, "file", "f", "", "YAML file with fact definitions")
	_ = factsImportCmd.MarkFlagRequired("file")
	factsCmd.AddCommand(factsImportCmd)
	rootCmd.AddCommand(factsCmd)
}
