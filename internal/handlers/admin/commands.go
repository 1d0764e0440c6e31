package handlers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	api "github.com/OvyFlash/telegram-bot-api"

	"github.com/iamwavecut/tarabot/internal/db"
	errs "github.com/iamwavecut/tarabot/internal/errors"
	"github.com/iamwavecut/tarabot/internal/policy/permissions"
)

const anyReviewer = permissions.SuperAdmin | permissions.GlobalReviewer | permissions.ScopedReviewer

type invocation struct {
	caps permissions.Capability
	user *api.User
	args []string
}

type command struct {
	requires permissions.Capability
	usage    string
	run      func(ctx context.Context, a *Admin, in invocation) (string, error)
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"start":       {requires: anyReviewer, usage: "/start", run: cmdHelp},
		"help":        {requires: anyReviewer, usage: "/help", run: cmdHelp},
		"register":    {requires: permissions.SuperAdmin, usage: "/register <group_id>", run: cmdRegister},
		"cancel":      {requires: permissions.SuperAdmin, usage: "/cancel", run: cmdCancel},
		"title":       {requires: permissions.SuperAdmin, usage: "/title <group_id> <name>", run: cmdTitle},
		"moderation":  {requires: permissions.SuperAdmin, usage: "/moderation <group_id> on|off", run: cmdModeration},
		"groups":      {requires: permissions.SuperAdmin, usage: "/groups", run: cmdGroups},
		"link":        {requires: permissions.SuperAdmin, usage: "/link <reviewer_id> <group_id>", run: cmdLink},
		"unlink":      {requires: permissions.SuperAdmin, usage: "/unlink <reviewer_id> <group_id>", run: cmdUnlink},
		"global":      {requires: permissions.SuperAdmin, usage: "/global add|remove <user_id>", run: cmdGlobal},
		"reviewer":    {requires: permissions.SuperAdmin, usage: "/reviewer add|remove <user_id>", run: cmdReviewer},
		"setwarnings": {requires: permissions.SuperAdmin, usage: "/setwarnings <user_id> <count>", run: cmdSetWarnings},
		"warnings":    {requires: anyReviewer, usage: "/warnings <user_id>", run: cmdWarnings},
		"history":     {requires: anyReviewer, usage: "/history [user_id]", run: cmdHistory},
	}
}

func cmdHelp(_ context.Context, _ *Admin, in invocation) (string, error) {
	lines := make([]string, 0, len(commands))
	for name, cmd := range commands {
		if name == "start" || !in.caps.Any(cmd.requires) {
			continue
		}
		lines = append(lines, cmd.usage)
	}
	sort.Strings(lines)
	return "Available commands:\n" + strings.Join(lines, "\n"), nil
}

func cmdRegister(ctx context.Context, a *Admin, in invocation) (string, error) {
	if len(in.args) != 1 {
		return "", errs.InvalidArgument("expected exactly one group id")
	}
	groupID, err := parseID(in.args[0])
	if err != nil {
		return "", err
	}
	created, err := a.store.RegisterGroup(ctx, groupID)
	if err != nil {
		return "", err
	}
	a.pending.put(in.user.ID, pendingGroupTitle, groupID)

	status := "registered"
	if !created {
		status = "was already registered"
	}
	return fmt.Sprintf("Group %d %s. Send the group name as your next message, or /cancel to skip.", groupID, status), nil
}

func cmdCancel(_ context.Context, a *Admin, in invocation) (string, error) {
	if a.pending.drop(in.user.ID) {
		return "Cancelled.", nil
	}
	return "Nothing to cancel.", nil
}

func cmdTitle(ctx context.Context, a *Admin, in invocation) (string, error) {
	if len(in.args) < 2 {
		return "", errs.InvalidArgument("expected a group id and a name")
	}
	groupID, err := parseID(in.args[0])
	if err != nil {
		return "", err
	}
	title := strings.Join(in.args[1:], " ")
	if err := a.store.SetGroupTitle(ctx, groupID, title); err != nil {
		return "", notRegistered(err, groupID)
	}
	return fmt.Sprintf("Group %d is now named %q.", groupID, title), nil
}

func cmdModeration(ctx context.Context, a *Admin, in invocation) (string, error) {
	if len(in.args) != 2 {
		return "", errs.InvalidArgument("expected a group id and on or off")
	}
	groupID, err := parseID(in.args[0])
	if err != nil {
		return "", err
	}
	enabled, err := parseSwitch(in.args[1])
	if err != nil {
		return "", err
	}
	if err := a.store.SetGroupModeration(ctx, groupID, enabled); err != nil {
		return "", notRegistered(err, groupID)
	}
	return fmt.Sprintf("Deleting violating messages in group %d is now %s.", groupID, onOff(enabled)), nil
}

func cmdGroups(ctx context.Context, a *Admin, _ invocation) (string, error) {
	groups, err := a.store.ListGroups(ctx)
	if err != nil {
		return "", err
	}
	if len(groups) == 0 {
		return "No groups registered.", nil
	}
	lines := make([]string, 0, len(groups)+1)
	lines = append(lines, "Registered groups:")
	for _, g := range groups {
		title := g.Title
		if title == "" {
			title = "(no name)"
		}
		lines = append(lines, fmt.Sprintf("%d %s, deletion %s", g.ID, title, onOff(g.ModerationEnabled)))
	}
	return strings.Join(lines, "\n"), nil
}

func cmdLink(ctx context.Context, a *Admin, in invocation) (string, error) {
	reviewerID, groupID, err := parsePair(in.args)
	if err != nil {
		return "", err
	}
	group, err := a.store.GetGroup(ctx, groupID)
	if err != nil {
		return "", err
	}
	if group == nil {
		return "", fmt.Errorf("%w: group %d is not registered", errs.ErrNotFound, groupID)
	}
	if err := a.store.LinkReviewer(ctx, reviewerID, groupID); err != nil {
		return "", err
	}
	return fmt.Sprintf("Reviewer %d linked to group %d.", reviewerID, groupID), nil
}

func cmdUnlink(ctx context.Context, a *Admin, in invocation) (string, error) {
	reviewerID, groupID, err := parsePair(in.args)
	if err != nil {
		return "", err
	}
	removed, err := a.store.UnlinkReviewer(ctx, reviewerID, groupID)
	if err != nil {
		return "", err
	}
	if removed == 0 {
		return fmt.Sprintf("Reviewer %d is not linked to group %d.", reviewerID, groupID), nil
	}
	return fmt.Sprintf("Reviewer %d unlinked from group %d.", reviewerID, groupID), nil
}

func cmdGlobal(ctx context.Context, a *Admin, in invocation) (string, error) {
	return editAllowList(ctx, in.args, "global reviewers", a.store.AddGlobalReviewer, a.store.RemoveGlobalReviewer)
}

func cmdReviewer(ctx context.Context, a *Admin, in invocation) (string, error) {
	return editAllowList(ctx, in.args, "reviewers", a.store.AddNormalReviewer, a.store.RemoveNormalReviewer)
}

func editAllowList(ctx context.Context, args []string, list string, add, remove func(context.Context, int64) error) (string, error) {
	if len(args) != 2 {
		return "", errs.InvalidArgument("expected add or remove and a user id")
	}
	userID, err := parseID(args[1])
	if err != nil {
		return "", err
	}
	switch args[0] {
	case "add":
		if err := add(ctx, userID); err != nil {
			return "", err
		}
		return fmt.Sprintf("User %d added to %s.", userID, list), nil
	case "remove":
		if err := remove(ctx, userID); err != nil {
			return "", err
		}
		return fmt.Sprintf("User %d removed from %s.", userID, list), nil
	default:
		return "", errs.InvalidArgument("unknown action %q", args[0])
	}
}

func cmdSetWarnings(ctx context.Context, a *Admin, in invocation) (string, error) {
	if len(in.args) != 2 {
		return "", errs.InvalidArgument("expected a user id and a count")
	}
	userID, err := parseID(in.args[0])
	if err != nil {
		return "", err
	}
	value, err := strconv.Atoi(in.args[1])
	if err != nil {
		return "", errs.InvalidArgument("%q is not a number", in.args[1])
	}
	if err := a.ledger.SetCount(ctx, userID, value); err != nil {
		return "", err
	}
	return fmt.Sprintf("Warning count for user %d set to %d.", userID, value), nil
}

func cmdWarnings(ctx context.Context, a *Admin, in invocation) (string, error) {
	if len(in.args) != 1 {
		return "", errs.InvalidArgument("expected exactly one user id")
	}
	userID, err := parseID(in.args[0])
	if err != nil {
		return "", err
	}
	if in.caps.Has(permissions.GlobalReviewer) {
		count, err := a.ledger.GetCount(ctx, userID)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("User %d has %d warning(s).", userID, count), nil
	}

	filter, err := a.historyFilter(ctx, in, &userID)
	if err != nil {
		return "", err
	}
	entries, err := a.ledger.History(ctx, filter)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("User %d has %d warning(s) in your groups.", userID, len(entries)), nil
}

func cmdHistory(ctx context.Context, a *Admin, in invocation) (string, error) {
	var userID *int64
	switch len(in.args) {
	case 0:
	case 1:
		id, err := parseID(in.args[0])
		if err != nil {
			return "", err
		}
		userID = &id
	default:
		return "", errs.InvalidArgument("expected at most one user id")
	}

	filter, err := a.historyFilter(ctx, in, userID)
	if err != nil {
		return "", err
	}
	entries, err := a.ledger.History(ctx, filter)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "No warnings recorded.", nil
	}
	if len(entries) > historyReplyLimit {
		entries = entries[len(entries)-historyReplyLimit:]
	}
	lines := make([]string, 0, len(entries)+1)
	lines = append(lines, "Warning history (oldest first):")
	for _, e := range entries {
		lines = append(lines, formatEntry(e))
	}
	return strings.Join(lines, "\n"), nil
}

// historyFilter scopes reviewers without the global role to their linked groups.
func (a *Admin) historyFilter(ctx context.Context, in invocation, userID *int64) (db.HistoryFilter, error) {
	filter := db.HistoryFilter{UserID: userID}
	if in.caps.Has(permissions.GlobalReviewer) {
		return filter, nil
	}
	groups, err := a.store.GroupsForReviewer(ctx, in.user.ID)
	if err != nil {
		return filter, err
	}
	filter.GroupIDs = append([]int64{}, groups...)
	return filter, nil
}

func formatEntry(e *db.WarningEntry) string {
	origin := "admin override"
	if !e.IsOverride() {
		origin = "group " + formatID(*e.GroupID)
	}
	return fmt.Sprintf("%s user %d #%d (%s)", e.Timestamp, e.UserID, e.WarningNumber, origin)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errs.InvalidArgument("%q is not a valid id", s)
	}
	return id, nil
}

func parsePair(args []string) (int64, int64, error) {
	if len(args) != 2 {
		return 0, 0, errs.InvalidArgument("expected a reviewer id and a group id")
	}
	reviewerID, err := parseID(args[0])
	if err != nil {
		return 0, 0, err
	}
	groupID, err := parseID(args[1])
	if err != nil {
		return 0, 0, err
	}
	return reviewerID, groupID, nil
}

func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "1", "yes":
		return true, nil
	case "off", "false", "0", "no":
		return false, nil
	}
	return false, errs.InvalidArgument("%q is not on or off", s)
}

func notRegistered(err error, groupID int64) error {
	if errors.Is(err, errs.ErrNotFound) {
		return fmt.Errorf("%w: group %d is not registered", errs.ErrNotFound, groupID)
	}
	return err
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
