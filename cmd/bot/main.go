package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attendance-bot",
		Short: "Учет визитов терапевтов и посещаемости",
		Long: `Бот и HTTP API для отметок визитов терапевтов, подтверждений пациентов,
посещаемости по дням и заявок на отпуск.

Без TELEGRAM_BOT_TOKEN запускается только HTTP API.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newHolidaysCommand())
	return cmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		logrus.WithError(err).Error("Command failed")
		os.Exit(1)
	}
}
