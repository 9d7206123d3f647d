package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"marquee/internal/digest"
)

func newNotifyCommand(ctx *commandContext) *cobra.Command {
	notifyCmd := &cobra.Command{
		Use:   "notify",
		Short: "Digest delivery utilities",
	}
	notifyCmd.AddCommand(newNotifyTestCommand(ctx))
	return notifyCmd
}

func newNotifyTestCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Send a test digest email",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.Email.Enabled {
				return fmt.Errorf("email digest is disabled; enable [email] in the configuration first")
			}
			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}

			mailer := digest.NewMailer(cfg.Email, logger)
			body := "## marquee test notification\nDigest delivery is configured correctly."
			if err := mailer.Send(cmd.Context(), "marquee test notification", body); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
			return nil
		},
	}
}
