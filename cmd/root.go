package cmd

import (
	"fmt"
	"os"

	"github.com/iplan/cellact/cmd/worker"
	"github.com/spf13/cobra"
)

var (
	cfgPath string
	rootCmd = &cobra.Command{
		Use:   "cellact",
		Short: "Cellact SMS gateway client",
	}
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config file (embedded defaults when empty)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(pullCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(worker.NewWorkerCmd())
}
