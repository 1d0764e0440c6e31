package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func NewGroupsCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "groups",
		Short: "List and register monitored groups",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List registered groups",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				groups, err := a.store.ListGroups(cmd.Context())
				if err != nil {
					return err
				}
				if len(groups) == 0 {
					a.printf("No groups registered\n")
					return nil
				}
				for _, g := range groups {
					a.printf("%d\t%s\tdeletion=%s\tsince %s\n", g.ID, g.Title, onOff(g.ModerationEnabled), g.CreatedAt)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "add <group_id> [name...]",
			Short: "Register a group, optionally naming it",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				groupID, err := parseID(args[0])
				if err != nil {
					return err
				}
				created, err := a.store.RegisterGroup(cmd.Context(), groupID)
				if err != nil {
					return err
				}
				if len(args) > 1 {
					if err := a.store.SetGroupTitle(cmd.Context(), groupID, strings.Join(args[1:], " ")); err != nil {
						return err
					}
				}
				if created {
					a.printf("Registered group %d\n", groupID)
				} else {
					a.printf("Group %d was already registered\n", groupID)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "title <group_id> <name...>",
			Short: "Set the display name of a group",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				groupID, err := parseID(args[0])
				if err != nil {
					return err
				}
				title := strings.Join(args[1:], " ")
				if err := a.store.SetGroupTitle(cmd.Context(), groupID, title); err != nil {
					return err
				}
				a.printf("Group %d is now named %q\n", groupID, title)
				return nil
			},
		},
		&cobra.Command{
			Use:   "moderation <group_id> on|off",
			Short: "Toggle deletion of violating messages",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				groupID, err := parseID(args[0])
				if err != nil {
					return err
				}
				enabled, err := parseSwitch(args[1])
				if err != nil {
					return err
				}
				if err := a.store.SetGroupModeration(cmd.Context(), groupID, enabled); err != nil {
					return err
				}
				a.printf("Deletion in group %d is %s\n", groupID, onOff(enabled))
				return nil
			},
		},
	)
	return cmd
}
