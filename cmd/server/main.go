package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "kolaboree-backend",
	Short: "Multi-cloud connection and node lifecycle API",
	Long: `kolaboree-backend connects to cloud providers and hypervisors, lists and
manages their compute nodes, and serves workspace, remote desktop and web
console endpoints on top of them.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"kolaboree-backend version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	serveCmd.Flags().String("addr", "", "listen address, overrides SERVER_HOST/SERVER_PORT")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(providersCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		return runServer(addr)
	},
}

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List supported provider types",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		m := newManager(cfg, nil, nil)
		for _, p := range m.Providers() {
			kind := "real"
			if p.Placeholder {
				kind = "placeholder"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-14s %s\n", p.Type, kind)
		}
		return nil
	},
}
