package cmd

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kanadm12/Spartis-App/internal/apihandlers"
)

var (
	serveAddr string // Listen address
	servePort string // Listen port
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the conversion HTTP API server",
	Long: `Starts the HTTP server that accepts NIfTI uploads, exposes job
progress polling, and serves produced STL files.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		defer appInstance.Close()

		router := gin.Default() // Includes logger and recovery middleware

		apiHandler := apihandlers.NewAPIHandler(appInstance)

		api := router.Group("/api")
		{
			api.POST("/process-nifti/", apiHandler.ProcessNiftiHandler)
			api.GET("/progress/:file_id", apiHandler.ProgressHandler)
			api.GET("/outputs/:filename", apiHandler.OutputFileHandler)
		}

		router.GET("/health", func(c *gin.Context) {
			redisStatus := "ok"
			if err := appInstance.Progress.Ping(c.Request.Context()); err != nil {
				redisStatus = err.Error()
			}
			c.JSON(http.StatusOK, gin.H{"status": "ok", "redis": redisStatus})
		})

		if serveAddr == "" {
			serveAddr = appInstance.Config.Server.Addr
		}
		if servePort == "" {
			servePort = appInstance.Config.Server.Port
		}
		listenAddr := fmt.Sprintf("%s:%s", serveAddr, servePort)
		log.Printf("Starting Spartis API server on http://%s", listenAddr)

		if err := router.Run(listenAddr); err != nil {
			log.Printf("ERROR: Failed to run API server: %v", err)
			return fmt.Errorf("failed to run API server: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Address to listen on (defaults to config)")
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (defaults to config)")
}
