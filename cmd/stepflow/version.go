package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/stepflow"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of stepflow",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("stepflow version %s\n", stepflow.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
