// Package rosterfile reads and writes rosters as YAML documents keyed by team:
//
//	cr:
//	  members: [[Ann, U01], [Bob, U02]]
//	  currentTick: 1
//
// Members are [display name, Slack id] pairs. JSON documents of the same
// shape are accepted on read.
package rosterfile

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/diegoclair/support-roster-bot/internal/domain"
	"github.com/diegoclair/support-roster-bot/internal/domain/entity"
	"github.com/diegoclair/support-roster-bot/internal/domain/registry"
	"gopkg.in/yaml.v3"
)

type teamDoc struct {
	Members     [][]string `yaml:"members,flow"`
	CurrentTick int        `yaml:"currentTick"`
}

// Parse decodes a roster document. Every team must be registered; teams
// missing from the document are absent from the result.
func Parse(r io.Reader, reg *registry.Registry) (entity.RosterState, error) {
	var doc map[string]teamDoc
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return entity.RosterState{}, nil
		}
		return nil, fmt.Errorf("failed to decode roster: %w", err)
	}

	state := make(entity.RosterState, len(doc))
	for key, team := range doc {
		id, err := reg.Lookup(key)
		if err != nil {
			return nil, err
		}

		members, err := parseMembers(id, team.Members)
		if err != nil {
			return nil, err
		}

		state[id] = &entity.Team{Members: members, CurrentTick: team.CurrentTick}
	}

	return state, nil
}

func parseMembers(id entity.TeamID, pairs [][]string) ([]entity.Member, error) {
	members := make([]entity.Member, 0, len(pairs))
	seen := make(map[string]bool, len(pairs))

	for i, pair := range pairs {
		if len(pair) != 2 {
			return nil, fmt.Errorf("team %s member %d: expected [name, id], got %d values", id, i, len(pair))
		}

		name, userID := strings.TrimSpace(pair[0]), strings.TrimSpace(pair[1])
		if userID == "" {
			return nil, fmt.Errorf("team %s member %d: empty id", id, i)
		}
		if seen[userID] {
			return nil, fmt.Errorf("team %s member %s: %w", id, userID, domain.ErrMemberAlreadyPresent)
		}
		seen[userID] = true

		if name == "" {
			name = userID
		}
		members = append(members, entity.Member{DisplayName: name, ID: userID})
	}

	return members, nil
}

// Write encodes the given teams of state in order
func Write(w io.Writer, state entity.RosterState, teams []entity.TeamID) error {
	root := &yaml.Node{Kind: yaml.MappingNode}

	for _, id := range teams {
		team, ok := state[id]
		if !ok || team == nil {
			team = &entity.Team{}
		}

		doc := teamDoc{Members: make([][]string, 0, len(team.Members)), CurrentTick: team.CurrentTick}
		for _, member := range team.Members {
			doc.Members = append(doc.Members, []string{member.DisplayName, member.ID})
		}

		var value yaml.Node
		if err := value.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode team %s: %w", id, err)
		}

		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: string(id)},
			&value,
		)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return fmt.Errorf("failed to write roster: %w", err)
	}
	return enc.Close()
}
