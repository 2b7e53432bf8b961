/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"

	"github.com/eduwrite/apiserver/config"
	"github.com/eduwrite/apiserver/internal/db"
	"github.com/eduwrite/apiserver/internal/services"
	"github.com/eduwrite/apiserver/internal/store"
	"github.com/spf13/cobra"
)

var adminUsername, adminEmail, adminPassword string

// adminCmd groups account maintenance commands.
var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage administrator accounts",
}

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create the administrator account if it does not exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		logger := newLogger(cfg)

		username := firstNonEmpty(adminUsername, cfg.Admin.Username)
		email := firstNonEmpty(adminEmail, cfg.Admin.Email)
		password := firstNonEmpty(adminPassword, cfg.Admin.Password)
		if password == "" {
			return errors.New("admin password is required (--password or ADMIN_PASSWORD)")
		}

		dbConn, err := db.Open(cmd.Context(), cfg.Database)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		users := store.NewUserRepository(dbConn)
		credits := services.NewCreditAccountant(users, config.DailyCredits, logger)
		userService := services.NewUserService(users, store.NewLoginRepository(dbConn), credits, logger)

		created, err := userService.EnsureAdmin(cmd.Context(), username, email, password)
		if err != nil {
			return err
		}
		if created {
			fmt.Fprintf(cmd.OutOrStdout(), "created admin %q\n", username)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "admin %q already exists\n", username)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminCreateCmd)

	adminCreateCmd.Flags().StringVar(&adminUsername, "username", "", "admin username (default ADMIN_USERNAME)")
	adminCreateCmd.Flags().StringVar(&adminEmail, "email", "", "admin email (default ADMIN_EMAIL)")
	adminCreateCmd.Flags().StringVar(&adminPassword, "password", "", "admin password (default ADMIN_PASSWORD)")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
