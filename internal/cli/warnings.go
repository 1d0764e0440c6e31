package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/iamwavecut/tarabot/internal/db"
)

func NewWarningsCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "warnings",
		Short: "Read or overwrite a user's warning count",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "get <user_id>",
			Short: "Print the current warning count",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				userID, err := parseID(args[0])
				if err != nil {
					return err
				}
				count, err := a.ledger.GetCount(cmd.Context(), userID)
				if err != nil {
					return err
				}
				a.printf("%d\n", count)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <user_id> <count>",
			Short: "Overwrite the warning count",
			Long: `Overwrite the warning count. The change is written to history as an
override row without a group, so history-derived counts may no longer add up.`,
			Args: cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				userID, err := parseID(args[0])
				if err != nil {
					return err
				}
				value, err := strconv.Atoi(args[1])
				if err != nil {
					return err
				}
				if err := a.ledger.SetCount(cmd.Context(), userID, value); err != nil {
					return err
				}
				a.printf("Warning count for user %d set to %d\n", userID, value)
				return nil
			},
		},
	)
	return cmd
}

func NewHistoryCmd(a *App) *cobra.Command {
	var (
		userID  int64
		groupID int64
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print warning history, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := db.HistoryFilter{Limit: limit}
			if cmd.Flags().Changed("user") {
				filter.UserID = &userID
			}
			if cmd.Flags().Changed("group") {
				filter.GroupIDs = []int64{groupID}
			}
			entries, err := a.ledger.History(cmd.Context(), filter)
			if err != nil {
				return err
			}
			for _, e := range entries {
				group := "override"
				if !e.IsOverride() {
					group = strconv.FormatInt(*e.GroupID, 10)
				}
				a.printf("%d\t%s\t%d\t%d\t%s\n", e.ID, e.Timestamp, e.UserID, e.WarningNumber, group)
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "Only this user")
	cmd.Flags().Int64Var(&groupID, "group", 0, "Only rows from this group")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of rows (0 = all)")
	return cmd
}
