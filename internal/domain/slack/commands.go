package slack

import (
	"regexp"
	"strings"

	"github.com/diegoclair/support-roster-bot/internal/domain"
)

type Action string

const (
	ActionUnknown           Action = ""
	ActionHelp              Action = "help"
	ActionShowCurrentRoster Action = "showCurrentRoster"
	ActionShowNextRoster    Action = "showNextRoster"
	ActionStart             Action = "start"
	ActionPause             Action = "pause"
	ActionRecall            Action = "recall"
	ActionAdd               Action = "add"
	ActionRemove            Action = "remove"
	ActionSkip              Action = "skip"
	ActionBack              Action = "back"
)

// Keyword binds a command token to the action it triggers
type Keyword struct {
	Token  string
	Action Action
}

// DefaultActionKeywords is the recognised action vocabulary. "list" is kept
// for people used to the previous bot.
var DefaultActionKeywords = []Keyword{
	{Token: "help", Action: ActionHelp},
	{Token: "showCurrentRoster", Action: ActionShowCurrentRoster},
	{Token: "showNextRoster", Action: ActionShowNextRoster},
	{Token: "list", Action: ActionShowCurrentRoster},
	{Token: "start", Action: ActionStart},
	{Token: "pause", Action: ActionPause},
	{Token: "recall", Action: ActionRecall},
	{Token: "add", Action: ActionAdd},
	{Token: "remove", Action: ActionRemove},
	{Token: "skip", Action: ActionSkip},
	{Token: "back", Action: ActionBack},
}

// MentionExtractor resolves a raw token into an opaque user id
type MentionExtractor func(token string) (string, bool)

var slackMentionRegex = regexp.MustCompile(`^<@([A-Za-z0-9]+)(\|[^>]*)?>$`)

// SlackMention extracts the user id from "<@U123>" or "<@U123|name>"
func SlackMention(token string) (string, bool) {
	match := slackMentionRegex.FindStringSubmatch(token)
	if match == nil {
		return "", false
	}
	return match[1], true
}

// Command is the interpreted form of a mention text
type Command struct {
	Action  Action
	Team    string
	HasTeam bool
	UserRef string
	Raw     string
}

// Interpreter derives commands from free text. A keyword only matches when no
// other keyword of the same category is present, so ambiguous input such as
// "add remove" matches nothing.
type Interpreter struct {
	actions        []Keyword
	teamTokens     []string
	extractMention MentionExtractor
}

type Option func(*Interpreter)

// WithActionKeywords replaces the action vocabulary
func WithActionKeywords(keywords []Keyword) Option {
	return func(i *Interpreter) {
		i.actions = keywords
	}
}

// WithMentionExtractor plugs a platform specific mention parser
func WithMentionExtractor(fn MentionExtractor) Option {
	return func(i *Interpreter) {
		i.extractMention = fn
	}
}

// NewInterpreter builds an interpreter for the given team keywords ("all" included)
func NewInterpreter(teamKeywords []string, opts ...Option) *Interpreter {
	i := &Interpreter{
		actions:        DefaultActionKeywords,
		teamTokens:     teamKeywords,
		extractMention: SlackMention,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// DeriveAction returns the single action named in text, or ActionUnknown
func (i *Interpreter) DeriveAction(text string) Action {
	tokens := tokenize(text)

	var found Action
	for _, kw := range i.actions {
		if !tokens[kw.Token] {
			continue
		}
		if found != ActionUnknown && found != kw.Action {
			return ActionUnknown
		}
		found = kw.Action
	}
	return found
}

// DeriveTeam returns the single team selector named in text
func (i *Interpreter) DeriveTeam(text string) (string, bool) {
	return matchOne(tokenize(text), i.teamTokens)
}

// Parse interprets text into a Command. ErrUnknownCommand is returned when no
// single action matches; ErrUserRefNotResolved when add/remove lack a usable mention.
func (i *Interpreter) Parse(text string) (*Command, error) {
	cmd := &Command{
		Action: i.DeriveAction(text),
		Raw:    text,
	}
	cmd.Team, cmd.HasTeam = i.DeriveTeam(text)

	if cmd.Action == ActionUnknown {
		return cmd, domain.ErrUnknownCommand
	}

	if cmd.Action == ActionAdd || cmd.Action == ActionRemove {
		userRef, ok := i.userRef(text, cmd.Action)
		if !ok {
			return cmd, domain.ErrUserRefNotResolved
		}
		cmd.UserRef = userRef
	}

	return cmd, nil
}

// userRef reads the token following the action keyword, which is the third
// token in the usual "<@bot> add <@user> team" form.
func (i *Interpreter) userRef(text string, action Action) (string, bool) {
	fields := strings.Fields(text)
	for idx, field := range fields {
		if !i.isActionToken(field, action) || idx+1 >= len(fields) {
			continue
		}
		return i.extractMention(fields[idx+1])
	}
	return "", false
}

func (i *Interpreter) isActionToken(token string, action Action) bool {
	for _, kw := range i.actions {
		if kw.Token == token && kw.Action == action {
			return true
		}
	}
	return false
}

func tokenize(text string) map[string]bool {
	fields := strings.Fields(text)
	tokens := make(map[string]bool, len(fields))
	for _, f := range fields {
		tokens[f] = true
	}
	return tokens
}

func matchOne(tokens map[string]bool, keywords []string) (string, bool) {
	found := ""
	for _, kw := range keywords {
		if !tokens[kw] {
			continue
		}
		if found != "" && found != kw {
			return "", false
		}
		found = kw
	}
	return found, found != ""
}
