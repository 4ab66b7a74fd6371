/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/moksh-codedeveloper/E-Commerce-app-BE/config"
	"github.com/moksh-codedeveloper/E-Commerce-app-BE/internal/logging"
	"github.com/moksh-codedeveloper/E-Commerce-app-BE/internal/mq"
	"github.com/moksh-codedeveloper/E-Commerce-app-BE/internal/notify"
	"github.com/spf13/cobra"
)

// smsWorkerCmd represents the sms-worker command
var smsWorkerCmd = &cobra.Command{
	Use:   "sms-worker",
	Short: "Drains queued SMS messages and delivers them via the gateway",
	Long: `Consumes SMS messages published by the API server in queue mode
and delivers each one through the configured SMS gateway. Usage:

	storefront sms-worker
`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.LoadConfig()
		logging.Setup(cfg.Log)

		backend, err := mq.NewBackend(cmd.Context(), cfg.MQ)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to connect to broker: %v\n", err)
			os.Exit(1)
		}
		queue := mq.New(backend)
		defer queue.Close()

		gateway, err := notify.NewGatewaySMSSender(cfg.SMS)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to configure sms gateway: %v\n", err)
			os.Exit(1)
		}

		slog.Info("sms worker started", slog.String("channel", cfg.SMS.QueueChannel))
		err = queue.Subscribe(cmd.Context(), cfg.SMS.QueueChannel, func(ctx context.Context, msg mq.Message) error {
			var sms notify.SMSMessage
			if err := json.Unmarshal(msg.Data, &sms); err != nil {
				// Malformed payloads are dropped, not retried.
				slog.Error("dropping malformed sms message", slog.String("id", msg.ID), slog.String("error", err.Error()))
				return nil
			}
			if err := gateway.Send(ctx, sms.To, sms.Body); err != nil {
				slog.Error("failed to deliver sms", slog.String("id", msg.ID), slog.String("error", err.Error()))
				return err
			}
			return nil
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "worker error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(smsWorkerCmd)
}
