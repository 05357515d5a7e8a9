package rosterfile

import (
	"bytes"
	"strings"
	"testing"

	"github.com/diegoclair/support-roster-bot/internal/domain"
	"github.com/diegoclair/support-roster-bot/internal/domain/entity"
	"github.com/diegoclair/support-roster-bot/internal/domain/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()

	reg, err := registry.New("cr", "rum", "apm", "ss")
	require.NoError(t, err)
	return reg
}

func TestParse_JSON(t *testing.T) {
	input := `{"cr":{"members":[["Ann","UA"],["Bob","UB"]],"currentTick":1},"rum":{"members":[],"currentTick":0}}`

	state, err := Parse(strings.NewReader(input), testRegistry(t))
	require.NoError(t, err)
	require.Len(t, state, 2)

	assert.Equal(t, []entity.Member{{DisplayName: "Ann", ID: "UA"}, {DisplayName: "Bob", ID: "UB"}}, state["cr"].Members)
	assert.Equal(t, 1, state["cr"].CurrentTick)
	assert.Empty(t, state["rum"].Members)
}

func TestParse_YAML(t *testing.T) {
	input := `
apm:
  members: [[Carol, UC]]
  currentTick: 0
ss:
  members:
    - [" ", UD]
`

	state, err := Parse(strings.NewReader(input), testRegistry(t))
	require.NoError(t, err)
	assert.Equal(t, []entity.Member{{DisplayName: "Carol", ID: "UC"}}, state["apm"].Members)
	// a blank name falls back to the id
	assert.Equal(t, []entity.Member{{DisplayName: "UD", ID: "UD"}}, state["ss"].Members)
}

func TestParse_Empty(t *testing.T) {
	state, err := Parse(strings.NewReader(""), testRegistry(t))
	require.NoError(t, err)
	assert.Empty(t, state)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "unknown team", input: `{"ops":{"members":[]}}`, wantErr: domain.ErrInvalidTeam},
		{name: "reserved selector", input: `{"all":{"members":[]}}`, wantErr: domain.ErrInvalidTeam},
		{name: "duplicate member", input: `{"cr":{"members":[["Ann","UA"],["Ann","UA"]]}}`, wantErr: domain.ErrMemberAlreadyPresent},
		{name: "short pair", input: `{"cr":{"members":[["Ann"]]}}`},
		{name: "empty id", input: `{"cr":{"members":[["Ann",""]]}}`},
		{name: "malformed", input: `{"cr": [`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input), testRegistry(t))
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestWrite(t *testing.T) {
	state := entity.RosterState{
		"rum": {Members: []entity.Member{{DisplayName: "Ann", ID: "UA"}, {DisplayName: "Bob", ID: "UB"}}, CurrentTick: 1},
	}

	var buf bytes.Buffer
	err := Write(&buf, state, []entity.TeamID{"rum", "cr"})
	require.NoError(t, err)

	want := `rum:
  members: [[Ann, UA], [Bob, UB]]
  currentTick: 1
cr:
  members: []
  currentTick: 0
`
	assert.Equal(t, want, buf.String())

	// written documents parse back to the same roster
	parsed, err := Parse(&buf, testRegistry(t))
	require.NoError(t, err)
	assert.Equal(t, state["rum"].Members, parsed["rum"].Members)
	assert.Equal(t, 1, parsed["rum"].CurrentTick)
	assert.Empty(t, parsed["cr"].Members)
}
