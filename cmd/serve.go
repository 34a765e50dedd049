// Copyright (c) 2025 Veil
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"veil/engine/internal/config"
	"veil/engine/internal/orchestrator"
	"veil/engine/internal/request"
)

var serveAddr string

// serveCmd exposes the pipeline as an HTTP service.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the query request API",
	Long: `The serve command starts an HTTP server accepting query requests on
POST /api/v1/run-query. Each accepted request runs through the same pipeline
as the handle command.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		orc, err := buildOrchestrator(cfg)
		if err != nil {
			return err
		}

		gin.SetMode(gin.ReleaseMode)
		r := gin.New()
		r.Use(gin.Logger(), gin.Recovery())

		r.GET("/healthz", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok", "version": Version})
		})
		r.POST("/api/v1/run-query", runQueryHandler(orc))

		pterm.Info.Printfln("listening on %s", serveAddr)
		return r.Run(serveAddr)
	},
}

// runQueryHandler parses the request body and hands it to the pipeline. The
// response carries the payload plus the stage trace, whatever the outcome;
// only an unreadable request body is rejected outright.
func runQueryHandler(orc *orchestrator.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := c.GetRawData()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		req, err := request.Parse(data)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		out := orc.Handle(c.Request.Context(), req)

		trace := make([]string, len(out.Trace))
		for i, s := range out.Trace {
			trace[i] = string(s)
		}
		c.JSON(http.StatusOK, gin.H{
			"payload":   out.Payload,
			"trace":     trace,
			"delivered": out.Delivered,
		})
	}
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Address to listen on")
	rootCmd.AddCommand(serveCmd)
}
