package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/stepflow"
	"github.com/aretw0/stepflow/pkg/flowfile"
)

var runCmd = &cobra.Command{
	Use:   "run <flowfile>",
	Short: "Run a flow interactively on the terminal",
	Long:  `Compiles the flow definition and walks through it step by step, prompting for each value on stdin.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		headless, _ := cmd.Flags().GetBool("headless")

		flow, err := flowfile.ParseFile(args[0])
		if err != nil {
			return fmt.Errorf("parse flow: %w", err)
		}
		sess, err := flow.Compile(stepflow.WithLogger(loggerFromFlags(cmd)))
		if err != nil {
			return fmt.Errorf("compile flow: %w", err)
		}

		runner := stepflow.NewRunner(os.Stdin, os.Stdout)
		runner.Headless = headless
		return runner.Run(sess)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Bool("headless", false, "Suppress prompts and the final summary")
}
