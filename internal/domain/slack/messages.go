package slack

import (
	"fmt"
	"strings"
	"time"

	"github.com/diegoclair/support-roster-bot/internal/domain/entity"
)

const rosterSeparator = "-----------------------------------------"

// RosterMark selects which pointer a roster listing highlights
type RosterMark int

const (
	// MarkCurrent highlights this week's assignee, the member before the tick,
	// once the team has been announced
	MarkCurrent RosterMark = iota
	// MarkNext highlights the member the tick points at
	MarkNext
)

// Messages renders every user-facing text of the bot
type Messages struct {
	BotName  string
	Teams    []entity.TeamID
	Schedule string
}

func (m Messages) mention() string {
	return "@" + m.BotName
}

// TeamLabel renders a team id the way messages show it
func TeamLabel(id entity.TeamID) string {
	return strings.ToUpper(string(id))
}

func (m Messages) teamChoices() string {
	names := make([]string, len(m.Teams))
	for i, t := range m.Teams {
		names[i] = string(t)
	}
	return strings.Join(names, "|")
}

func (m Messages) Help() string {
	teams := m.teamChoices()
	bot := m.mention()

	var b strings.Builder
	b.WriteString("Here's a list of my available commands:\n")
	fmt.Fprintf(&b, "• `%s showCurrentRoster [all|%s]` - Lists a roster with this week's assignee\n", bot, teams)
	fmt.Fprintf(&b, "• `%s showNextRoster [all|%s]` - Lists a roster with the next assignee\n", bot, teams)
	fmt.Fprintf(&b, "• `%s start` - Starts the weekly announcements (%s)\n", bot, m.Schedule)
	fmt.Fprintf(&b, "• `%s pause` - Pauses the weekly announcements (the roster state is remembered)\n", bot)
	fmt.Fprintf(&b, "• `%s recall` - Recalls this week's assignees\n", bot)
	fmt.Fprintf(&b, "• `%s add [@user] [%s]` - Adds a user to a team roster\n", bot, teams)
	fmt.Fprintf(&b, "• `%s remove [@user] [%s]` - Removes a user from a team roster\n", bot, teams)
	fmt.Fprintf(&b, "• `%s skip [%s]` - Moves a team queue forward one\n", bot, teams)
	fmt.Fprintf(&b, "• `%s back [%s]` - Moves a team queue back one", bot, teams)
	return b.String()
}

func (m Messages) UnknownCommand() string {
	return fmt.Sprintf("Sorry, I didn't understand that command.\nType `%s help` to learn more.", m.mention())
}

func (m Messages) InvalidTeam(token string) string {
	if token == "" {
		return fmt.Sprintf("Please tell me which team: `%s`.", m.teamChoices())
	}
	return fmt.Sprintf("%s is not a valid team, please try again.", strings.ToUpper(token))
}

func (m Messages) UserNotMatched() string {
	return "Sorry I couldn't match that user, please try again."
}

func (m Messages) InternalError() string {
	return ":ambulance: He's dead Jim - please check the logs for errors..."
}

func (m Messages) Added(member entity.Member, team entity.TeamID) string {
	return fmt.Sprintf("I've just added %s to the %s roster!", member.DisplayName, TeamLabel(team))
}

func (m Messages) AlreadyPresent(userID string, team entity.TeamID) string {
	return fmt.Sprintf("<@%s> is already a part of the %s team!", userID, TeamLabel(team))
}

func (m Messages) Removed(removal entity.Removal, team entity.TeamID) string {
	text := fmt.Sprintf("I've just removed %s from the %s roster!", removal.Member.DisplayName, TeamLabel(team))
	if removal.TickMoved {
		text += fmt.Sprintf(" I've just updated the tick index to %d.", removal.Tick)
	}
	return text
}

func (m Messages) NotFound(userID string, team entity.TeamID) string {
	return fmt.Sprintf("<@%s> wasn't found in the %s team!", userID, TeamLabel(team))
}

func (m Messages) TickMoved(team entity.TeamID, forward bool, next entity.Member, hasNext bool) string {
	direction := "back"
	if forward {
		direction = "forward"
	}
	text := fmt.Sprintf("I've just moved the %s roster queue %s one!", TeamLabel(team), direction)
	if hasNext {
		text += fmt.Sprintf(" Next up: %s", next.DisplayName)
	}
	return text
}

func (m Messages) Started(next, now time.Time) string {
	return "I've started! Next assignment in " + untilText(next, now)
}

func (m Messages) AlreadyRunning(next *time.Time, now time.Time) string {
	if next == nil {
		return "I'm already running!"
	}
	return "I'm already running! Next assignment in " + untilText(*next, now)
}

func (m Messages) Paused() string {
	return fmt.Sprintf("I've paused! Type `%s start` to resume", m.mention())
}

// Assignees renders the weekly broadcast and the recall reply
func (m Messages) Assignees(assignees []entity.TeamAssignee) string {
	if len(assignees) == 0 {
		return "No teams are configured."
	}

	var b strings.Builder
	b.WriteString("*This week's intercom assignees:*\n")
	for _, a := range assignees {
		if !a.HasMember {
			fmt.Fprintf(&b, "%s - _No members yet_\n", TeamLabel(a.Team))
			continue
		}
		fmt.Fprintf(&b, "%s - %s - <@%s>\n", TeamLabel(a.Team), a.Member.DisplayName, a.Member.ID)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Roster renders team listings. It never returns an empty string: empty teams
// and an empty registry have their own wording. Nobody is marked current on a
// team that has never been announced.
func (m Messages) Roster(rosters []entity.TeamRoster, mark RosterMark) string {
	if len(rosters) == 0 {
		return "No teams are configured."
	}

	label := "Current"
	if mark == MarkNext {
		label = "Next"
	}

	sections := make([]string, 0, len(rosters))
	for _, r := range rosters {
		var b strings.Builder
		fmt.Fprintf(&b, "*%s roster:*\n", TeamLabel(r.Team))

		if len(r.Members) == 0 {
			b.WriteString("_No members yet_")
			sections = append(sections, b.String())
			continue
		}

		highlighted := highlightIndex(r, mark)
		for i, member := range r.Members {
			if i == highlighted {
				fmt.Fprintf(&b, "- *%s - %s*\n", member.DisplayName, label)
				continue
			}
			fmt.Fprintf(&b, "- %s\n", member.DisplayName)
		}
		if highlighted < 0 {
			b.WriteString("_Nobody has been announced yet_")
		}
		sections = append(sections, strings.TrimRight(b.String(), "\n"))
	}

	return strings.Join(sections, "\n"+rosterSeparator+"\n")
}

// highlightIndex returns -1 when there is nothing to mark
func highlightIndex(r entity.TeamRoster, mark RosterMark) int {
	n := len(r.Members)
	tick := r.CurrentTick
	if tick < 0 || tick >= n {
		tick = 0
	}
	if mark == MarkNext {
		return tick
	}
	if r.LastAnnouncedAt == nil {
		return -1
	}
	return (tick - 1 + n) % n
}

func untilText(next, now time.Time) string {
	d := next.Sub(now)
	if d < 0 {
		d = 0
	}
	days := int(d / (24 * time.Hour))
	hours := int(d%(24*time.Hour)) / int(time.Hour)
	minutes := int(d%time.Hour) / int(time.Minute)
	return fmt.Sprintf("%d days, %d hours & %d minutes", days, hours, minutes)
}
