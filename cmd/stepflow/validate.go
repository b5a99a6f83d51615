package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/stepflow/pkg/flowfile"
)

var validateCmd = &cobra.Command{
	Use:   "validate <flowfile>",
	Short: "Check a flow definition for consistency",
	Long:  `Parses the flow definition and reports unknown variable references, duplicate names and misconfigured actions.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flow, err := flowfile.ParseFile(args[0])
		if err != nil {
			return fmt.Errorf("parse flow: %w", err)
		}
		if err := flow.Validate(); err != nil {
			return fmt.Errorf("validate flow: %w", err)
		}
		fmt.Printf("%s is valid\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
