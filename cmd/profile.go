// Copyright (c) 2025 Veil
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"veil/engine/internal/config"
	"veil/engine/internal/dsn"
	"veil/engine/internal/metadata"
	"veil/engine/internal/orchestrator"
	"veil/engine/internal/profiler"
	"veil/engine/internal/tablename"
)

var profileFormat string

// profileCmd introspects a table and prints its metadata snapshot document.
var profileCmd = &cobra.Command{
	Use:   "profile <table>",
	Short: "Profile a table and print its metadata document",
	Long: `The profile command introspects the given table (for example "puf.puf_demo")
and prints the metadata snapshot document the pipeline would derive for it.
Useful for regenerating the baseline snapshot or debugging a transformation.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		sec, err := secretStore(cfg)
		if err != nil {
			return err
		}

		ctx := context.Background()
		creds, err := sec.Retrieve(ctx, cfg.SecretName)
		if err != nil {
			return err
		}

		conn := dsn.FromCredentials(creds.Host, creds.Port.String(), creds.Username, creds.Password, cfg.Database)
		db, err := orchestrator.PoolConnector(ctx, conn)
		if err != nil {
			return err
		}
		defer db.Close()

		schema, table := tablename.Split(args[0])
		t, err := profiler.New(db, cfg.Database).Profile(ctx, schema, table)
		if err != nil {
			return err
		}
		pterm.Info.Printfln("Profiled %s.%s: %d rows, columns: %s", schema, table, t.Rows, strings.Join(t.ColumnNames(), ", "))

		var rendered []byte
		switch profileFormat {
		case "json":
			rendered, err = metadata.EncodeJSON(t)
		case "yaml":
			rendered, err = metadata.EncodeYAML(t)
		default:
			return fmt.Errorf("unknown format %q (want \"json\" or \"yaml\")", profileFormat)
		}
		if err != nil {
			return err
		}

		pterm.Println(string(rendered))
		return nil
	},
}

func init() {
	profileCmd.Flags().StringVar(&profileFormat, "format", "json", "Output format: json or yaml")
	rootCmd.AddCommand(profileCmd)
}
