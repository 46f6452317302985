package main

import (
	"pet-records/internal/domain/notify"

	"github.com/spf13/cobra"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Corre un lote de emails una vez y sale",
}

var jobsRemindersCmd = &cobra.Command{
	Use:   "reminders",
	Short: "Avisa los recordatorios que vencen en la ventana configurada",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runJobOnce(cmd, (*app).reminderJob)
	},
}

var jobsWelcomeCmd = &cobra.Command{
	Use:   "welcome",
	Short: "Envía los emails de bienvenida pendientes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runJobOnce(cmd, (*app).welcomeJob)
	},
}

func runJobOnce(cmd *cobra.Command, pick func(*app) *notify.Job) error {
	a, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	res, err := pick(a).RunOnce(cmd.Context())
	if err != nil {
		return err
	}

	cmd.Printf("processed=%d sent=%d queued=%d skipped=%d failed=%d\n", res.Processed, res.Sent, res.Queued, res.Skipped, res.Failed)
	return nil
}
