// Command coderx runs the CODER-X chat relay.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	hostFlag   string
	portFlag   int
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "coderx",
	Short: "CODER-X session-aware chat relay",
	Long: `coderx relays chat requests to an OpenAI-compatible completion API.

Each session keeps its conversation history and a task list. The model edits
the list with [[ADD_TODO: ...]] and [[DEL_TODO: ...]] tags, which are applied
and then stripped from the reply.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

var initConfigCmd = &cobra.Command{
	Use:   "init-config [dir]",
	Short: "Write a default .coderx/config.json",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		return runInitConfig(cmd.OutOrStdout(), dir)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config JSON/JSONC/YAML")
	rootCmd.Flags().StringVar(&hostFlag, "host", "", "Listen host (overrides config)")
	rootCmd.Flags().IntVar(&portFlag, "port", 0, "Listen port (overrides config and PORT)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.AddCommand(initConfigCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
