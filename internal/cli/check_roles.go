package cli

import (
	"fmt"

	"levelup-gatekeeper/internal/config"
	"github.com/spf13/cobra"
)

// NewCheckRolesCmd validates the role settings file.
func NewCheckRolesCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check-roles",
		Short: "Validate the role settings file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			roles, err := config.LoadRoles(cfg.Roles.Path)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, guildID := range roles.GuildIDs() {
				guild, _ := roles.Guild(guildID)
				fmt.Fprintf(out, "guild %s: %d ranks, %d combination ranks, %d quiz channels\n",
					guildID, len(guild.Ranks), len(guild.Ranks.CombinationTiers()), len(guild.QuizChannels))
			}
			return nil
		},
	}
}
