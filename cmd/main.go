package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "legalizador",
	Short: "Dispatch invoice legalization service",
	Long: `legalizador keeps dispatch invoices and their lines, reconciles delivered
units against invoiced quantities and produces the UIAF, lines and WMS reports.

Configuration is read from .env, an optional config file (--config) and the
environment, in that order of precedence.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML or TOML config file")
	rootCmd.AddCommand(serveCmd, importCmd, templateCmd, userCmd)
}

// @title						Legalizador API
// @version					1.0.0
// @description				Dispatch invoice legalization, reconciliation and reporting.
// @BasePath					/
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}
