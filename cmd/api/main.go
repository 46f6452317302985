// Command api levanta el backend de pet-records y expone los comandos
// operativos (migraciones y corridas manuales de jobs).
//
// @title Pet Records API
// @version 1.0
// @description Backend de mascotas, recordatorios, documentos e historial de salud.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "api",
	Short:         "Pet records backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	// sin subcomando => serve
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config YAML (default: $CONFIG_PATH o ./config.yaml)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(jobsCmd)
	jobsCmd.AddCommand(jobsRemindersCmd)
	jobsCmd.AddCommand(jobsWelcomeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
