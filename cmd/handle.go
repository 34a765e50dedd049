// Copyright (c) 2025 Veil
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"veil/engine/internal/config"
	"veil/engine/internal/logging"
	"veil/engine/internal/request"
)

var handleDebug bool

// handleCmd runs one query request through the full pipeline.
var handleCmd = &cobra.Command{
	Use:   "handle [request.json]",
	Short: "Handle a single query request",
	Long: `The handle command reads a query request as JSON from the given file (or from
stdin when no file is given), runs it through the validation pipeline and
prints the resulting payload. Unless the request is a debug run, the payload
is also posted to the validation API.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var data []byte
		var err error
		if len(args) == 1 {
			data, err = os.ReadFile(args[0])
		} else {
			data, err = io.ReadAll(os.Stdin)
		}
		if err != nil {
			return fmt.Errorf("reading request: %w", err)
		}

		req, err := request.Parse(data)
		if err != nil {
			return err
		}
		if err := req.Validate(); err != nil {
			return err
		}
		if handleDebug {
			req.Debug = true
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		orc, err := buildOrchestrator(cfg)
		if err != nil {
			return err
		}

		out := orc.Handle(context.Background(), req)

		rendered, err := json.MarshalIndent(out.Payload, "", "  ")
		if err != nil {
			return err
		}
		pterm.Println(string(rendered))

		if out.Failure != nil {
			pterm.Warning.Printfln("request failed: %s", logging.Mask(out.Failure.Error()))
		}
		return nil
	},
}

func init() {
	handleCmd.Flags().BoolVar(&handleDebug, "debug", false, "Treat the request as a debug run and skip delivery")
	rootCmd.AddCommand(handleCmd)
}
