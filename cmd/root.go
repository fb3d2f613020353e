package cmd

import (
	"github.com/spf13/cobra"
)

// Global flags, bound by main to the root command.
var (
	ConfigPath  string
	DbPath      string
	DatasetPath string
	LogLevel    string
)

// RegisterCommands adds all subcommands to the root command
func RegisterCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(graphCmd())
	rootCmd.AddCommand(nodeCmd())
	rootCmd.AddCommand(relativesCmd())
	rootCmd.AddCommand(overlayCmd())
	rootCmd.AddCommand(sourcesCmd())
	rootCmd.AddCommand(queryCmd())
	rootCmd.AddCommand(treeCmd())
	rootCmd.AddCommand(cockpitCmd())
	rootCmd.AddCommand(mapCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(mcpCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(configCmd())
}
