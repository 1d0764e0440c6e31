package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iamwavecut/tarabot/internal/config"
)

func NewReviewersCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reviewers",
		Short: "Manage reviewer links to groups",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "link <reviewer_id> <group_id>",
			Short: "Send reports for a group to a reviewer",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				reviewerID, groupID, err := parsePair(args)
				if err != nil {
					return err
				}
				group, err := a.store.GetGroup(cmd.Context(), groupID)
				if err != nil {
					return err
				}
				if group == nil {
					return fmt.Errorf("group %d is not registered", groupID)
				}
				if err := a.store.LinkReviewer(cmd.Context(), reviewerID, groupID); err != nil {
					return err
				}
				a.printf("Linked reviewer %d to group %d\n", reviewerID, groupID)
				return nil
			},
		},
		&cobra.Command{
			Use:   "unlink <reviewer_id> <group_id>",
			Short: "Stop sending reports for a group to a reviewer",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				reviewerID, groupID, err := parsePair(args)
				if err != nil {
					return err
				}
				removed, err := a.store.UnlinkReviewer(cmd.Context(), reviewerID, groupID)
				if err != nil {
					return err
				}
				a.printf("Removed %d link(s)\n", removed)
				return nil
			},
		},
		&cobra.Command{
			Use:   "list <group_id>",
			Short: "List reviewers linked to a group",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				groupID, err := parseID(args[0])
				if err != nil {
					return err
				}
				reviewers, err := a.store.ReviewersFor(cmd.Context(), groupID)
				if err != nil {
					return err
				}
				if len(reviewers) == 0 {
					a.printf("No reviewers linked to group %d\n", groupID)
					return nil
				}
				for _, id := range reviewers {
					a.printf("%d\n", id)
				}
				return nil
			},
		},
	)
	return cmd
}

func NewACLCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "acl",
		Short: "Manage the reviewer allow-lists",
	}

	for _, list := range []struct {
		name   string
		short  string
		add    func(*App) func(context.Context, int64) error
		remove func(*App) func(context.Context, int64) error
	}{
		{
			name:   "global",
			short:  "Reviewers who see every group's history",
			add:    func(a *App) func(context.Context, int64) error { return a.store.AddGlobalReviewer },
			remove: func(a *App) func(context.Context, int64) error { return a.store.RemoveGlobalReviewer },
		},
		{
			name:   "reviewer",
			short:  "Reviewers limited to their linked groups",
			add:    func(a *App) func(context.Context, int64) error { return a.store.AddNormalReviewer },
			remove: func(a *App) func(context.Context, int64) error { return a.store.RemoveNormalReviewer },
		},
	} {
		sub := &cobra.Command{
			Use:       list.name + " add|remove <user_id>",
			Short:     list.short,
			Args:      cobra.ExactArgs(2),
			ValidArgs: []string{"add", "remove"},
			RunE: func(cmd *cobra.Command, args []string) error {
				userID, err := parseID(args[1])
				if err != nil {
					return err
				}
				switch args[0] {
				case "add":
					err = list.add(a)(cmd.Context(), userID)
				case "remove":
					err = list.remove(a)(cmd.Context(), userID)
				default:
					return fmt.Errorf("unknown action %q", args[0])
				}
				if err != nil {
					return err
				}
				a.printf("%s %s %d\n", list.name, args[0], userID)
				return nil
			},
		}
		cmd.AddCommand(sub)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "import <file>",
		Short: "Add every id from a YAML allow-list file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lists, err := config.LoadAllowLists(args[0])
			if err != nil {
				return err
			}
			added, err := SeedAllowLists(cmd.Context(), a.store, lists)
			if err != nil {
				return err
			}
			a.printf("Imported %d id(s)\n", added)
			return nil
		},
	})
	return cmd
}

type allowListWriter interface {
	AddGlobalReviewer(ctx context.Context, userID int64) error
	AddNormalReviewer(ctx context.Context, userID int64) error
}

// SeedAllowLists adds every listed id. Adding an id twice is harmless.
func SeedAllowLists(ctx context.Context, store allowListWriter, lists *config.AllowLists) (int, error) {
	added := 0
	for _, id := range lists.GlobalReviewers {
		if err := store.AddGlobalReviewer(ctx, id); err != nil {
			return added, err
		}
		added++
	}
	for _, id := range lists.Reviewers {
		if err := store.AddNormalReviewer(ctx, id); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}
