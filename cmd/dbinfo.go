// Copyright (c) 2025 Veil
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"veil/engine/internal/config"
	"veil/engine/internal/dsn"
)

// dbinfoCmd displays the database connection the engine would use, with the
// password masked.
var dbinfoCmd = &cobra.Command{
	Use:   "dbinfo",
	Short: "Show the database connection string",
	Long: `The dbinfo command retrieves the database credentials from the configured
secret store and displays the resulting connection string with the password
masked. This helps verify which database the engine targets without exposing
sensitive credentials.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		sec, err := secretStore(cfg)
		if err != nil {
			return err
		}

		creds, err := sec.Retrieve(context.Background(), cfg.SecretName)
		if err != nil {
			pterm.Println("❌ Could not retrieve database credentials")
			pterm.Printfln("   Check the %q secret in the %s backend", cfg.SecretName, cfg.SecretBackend)
			return err
		}

		conn := dsn.FromCredentials(creds.Host, creds.Port.String(), creds.Username, creds.Password, cfg.Database)

		pterm.DefaultBox.
			WithTitle(pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint("Database Connection")).
			WithTopPadding(1).
			WithBottomPadding(1).
			WithLeftPadding(1).
			WithRightPadding(1).
			Println(dsn.Masked(conn))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbinfoCmd)
}
