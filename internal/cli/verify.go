package cli

import (
	"fmt"
	"os"

	"levelup-gatekeeper/internal/app"
	"levelup-gatekeeper/internal/config"
	"github.com/spf13/cobra"
)

// NewVerifyCmd judges a game report against a guild's ranks without granting anything.
func NewVerifyCmd(configPath *string) *cobra.Command {
	var guildID string
	cmd := &cobra.Command{
		Use:   "verify <report-id>",
		Short: "Check a finished quiz report against the configured ranks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			roles, err := config.NewRoleStore(cfg.Roles.Path)
			if err != nil {
				return err
			}
			reports, closeReports := buildReports(cfg)
			defer closeReports()

			service := app.NewService(app.Dependencies{
				Settings: roles,
				Reports:  reports,
				Logger:   newLogger(cfg, os.Stderr),
			})
			verdict, err := service.Verify(cmd.Context(), guildID, args[0])
			if err != nil {
				return err
			}
			status := "FAIL"
			if verdict.Passed() {
				status = "PASS"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", status, verdict.Quiz, verdict.Message())
			return nil
		},
	}
	cmd.Flags().StringVar(&guildID, "guild", "", "guild whose rank structure is used")
	_ = cmd.MarkFlagRequired("guild")
	return cmd
}
