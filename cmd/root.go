/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"github.com/eduwrite/apiserver/config"
	"github.com/eduwrite/apiserver/internal/logging"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "eduwrite",
	Short: "EduWrite API server",
	Long: `EduWrite serves AI-generated educational content to registered users
with a daily credit allowance.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func newLogger(cfg config.Config) *logrus.Logger {
	return logging.New(cfg.Log.Level, cfg.Log.Format)
}
