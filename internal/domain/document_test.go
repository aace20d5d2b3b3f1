package domain

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDocument(t *testing.T) {
	doc := DefaultDocument()

	assert.Equal(t, "intro", doc.Scene)
	assert.Equal(t, "00:00", doc.MatchTime)
	assert.Empty(t, doc.Killfeed)
	for _, team := range []Team{doc.TeamA, doc.TeamB} {
		assert.Equal(t, 0, team.Score)
		assert.Equal(t, "", team.Logo)
		require.Len(t, team.Players, PlayersPerTeam)
		for _, p := range team.Players {
			assert.Equal(t, Player{}, p)
		}
	}
}

func TestParseTeamID(t *testing.T) {
	id, err := ParseTeamID("team_b")
	require.NoError(t, err)
	assert.Equal(t, TeamB, id)

	_, err = ParseTeamID("scene")
	assert.ErrorIs(t, err, ErrInvalidTeamID)
}

func TestDocument_MarshalJSON_FieldOrderAndExtras(t *testing.T) {
	doc := DefaultDocument()
	doc.Extra = map[string]json.RawMessage{
		"zeta":  json.RawMessage(`1`),
		"alpha": json.RawMessage(`{"x":true}`),
	}

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	var keys []string
	dec := json.NewDecoder(bytes.NewReader(data))
	_, err = dec.Token()
	require.NoError(t, err)
	for dec.More() {
		tok, err := dec.Token()
		require.NoError(t, err)
		keys = append(keys, tok.(string))
		var skip json.RawMessage
		require.NoError(t, dec.Decode(&skip))
	}

	assert.Equal(t, []string{"scene", "team_a", "team_b", "match_time", "killfeed", "alpha", "zeta"}, keys)
}

func TestDocument_MarshalJSON_NilKillfeedIsEmptyArray(t *testing.T) {
	doc := DefaultDocument()
	doc.Killfeed = nil

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"killfeed":[]`)
}

func TestDocument_JSONRoundTrip(t *testing.T) {
	doc := DefaultDocument()
	doc.Scene = "game"
	doc.TeamA.Players[2] = Player{Name: "Derke", Agent: "Raze", Kills: 3, Deaths: 1, Assists: 2, Weapon: "Phantom"}
	doc.Killfeed = []json.RawMessage{json.RawMessage(`{"killer":"Derke"}`)}
	doc.Extra = map[string]json.RawMessage{"map_name": json.RawMessage(`"Bind"`)}

	data, err := json.MarshalIndent(doc, "", "  ")
	require.NoError(t, err)

	var decoded Document
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, doc.Scene, decoded.Scene)
	assert.Equal(t, doc.TeamA, decoded.TeamA)
	assert.Equal(t, doc.TeamB, decoded.TeamB)
	require.Len(t, decoded.Killfeed, 1)
	assert.JSONEq(t, `{"killer":"Derke"}`, string(decoded.Killfeed[0]))
	assert.JSONEq(t, `"Bind"`, string(decoded.Extra["map_name"]))
}

func TestDocument_UnmarshalJSON_NormalizesRoster(t *testing.T) {
	var doc Document
	err := json.Unmarshal([]byte(`{"scene":"intro","team_a":{"name":"A","players":[{"name":"one"}]},"team_b":{"players":[{},{},{},{},{},{},{}]}}`), &doc)
	require.NoError(t, err)

	assert.Len(t, doc.TeamA.Players, PlayersPerTeam)
	assert.Equal(t, "one", doc.TeamA.Players[0].Name)
	assert.Len(t, doc.TeamB.Players, PlayersPerTeam)
	assert.NotNil(t, doc.Killfeed)
}

func TestDocument_UnmarshalJSON_Malformed(t *testing.T) {
	var doc Document
	assert.Error(t, json.Unmarshal([]byte(`{"scene":`), &doc))
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &doc))
	assert.Error(t, json.Unmarshal([]byte(`null`), &doc))
	assert.ErrorIs(t, json.Unmarshal([]byte(`{"team_a":"nope"}`), &doc), ErrInvalidPatch)
}

func TestDocument_UnmarshalJSON_CompactsRawValues(t *testing.T) {
	var doc Document
	data := []byte(`{"killfeed":[ { "killer": "TenZ" } ],"caster": {
		"name": "Sam"
	}}`)
	require.NoError(t, json.Unmarshal(data, &doc))

	require.Len(t, doc.Killfeed, 1)
	assert.Equal(t, `{"killer":"TenZ"}`, string(doc.Killfeed[0]))
	assert.Equal(t, `{"name":"Sam"}`, string(doc.Extra["caster"]))
}

func TestDocument_UnmarshalJSON_SkipsReservedKey(t *testing.T) {
	var doc Document
	require.NoError(t, json.Unmarshal([]byte(`{"type":"oops","scene":"live"}`), &doc))

	assert.Equal(t, "live", doc.Scene)
	assert.Empty(t, doc.Extra)
}

func TestDocument_SetField_InvalidRawValue(t *testing.T) {
	doc := DefaultDocument()
	assert.ErrorIs(t, doc.SetField("caster", json.RawMessage(`{"name":`)), ErrInvalidPatch)
	assert.ErrorIs(t, doc.SetField(FieldKillfeed, json.RawMessage(`[{"a":}]`)), ErrInvalidPatch)
}

func TestDocument_CloneIsDeep(t *testing.T) {
	doc := DefaultDocument()
	doc.Killfeed = []json.RawMessage{json.RawMessage(`{"a":1}`)}
	doc.Extra = map[string]json.RawMessage{"k": json.RawMessage(`"v"`)}

	clone := doc.Clone()
	clone.TeamA.Players[0].Name = "changed"
	clone.Killfeed[0][2] = 'b'
	clone.Extra["k"] = json.RawMessage(`"w"`)

	assert.Equal(t, "", doc.TeamA.Players[0].Name)
	assert.Equal(t, `{"a":1}`, string(doc.Killfeed[0]))
	assert.Equal(t, `"v"`, string(doc.Extra["k"]))
}

func TestDecodeTeamPatch(t *testing.T) {
	patch, err := DecodeTeamPatch(json.RawMessage(`{"score":5,"players":[{"kills":3},null]}`))
	require.NoError(t, err)

	require.NotNil(t, patch.Score)
	assert.Equal(t, 5, *patch.Score)
	assert.Nil(t, patch.Name)
	require.Len(t, patch.Players, 2)
	require.NotNil(t, patch.Players[0].Kills)
	assert.Equal(t, 3, *patch.Players[0].Kills)
	assert.Nil(t, patch.Players[0].Agent)
	assert.Equal(t, PlayerPatch{}, patch.Players[1])

	_, err = DecodeTeamPatch(json.RawMessage(`{"score":"five"}`))
	assert.ErrorIs(t, err, ErrInvalidPatch)
}

func TestTeamPatch_Validate(t *testing.T) {
	neg := -1
	assert.ErrorIs(t, TeamPatch{Score: &neg}.Validate(), ErrInvalidPatch)
	assert.ErrorIs(t, TeamPatch{Players: []PlayerPatch{{}, {Assists: &neg}}}.Validate(), ErrInvalidPatch)
	assert.NoError(t, TeamPatch{}.Validate())
}

func TestTeamPatch_Validate_IgnoresPositionsPastRoster(t *testing.T) {
	neg, kills := -1, 4
	players := make([]PlayerPatch, PlayersPerTeam+1)
	players[0] = PlayerPatch{Kills: &kills}
	players[PlayersPerTeam] = PlayerPatch{Deaths: &neg}

	assert.NoError(t, TeamPatch{Players: players}.Validate())
}
