package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
)

// PlayersPerTeam is the fixed roster size. A Team never holds more or fewer players.
const PlayersPerTeam = 5

// TeamID names one of the two teams of the match.
type TeamID string

const (
	TeamA TeamID = "team_a"
	TeamB TeamID = "team_b"
)

// ParseTeamID converts a string to a TeamID, rejecting anything but the two known teams.
func ParseTeamID(s string) (TeamID, error) {
	switch TeamID(s) {
	case TeamA, TeamB:
		return TeamID(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTeamID, s)
	}
}

// Player is identified by its position in the team roster, not by name.
type Player struct {
	Name    string `json:"name"`
	Agent   string `json:"agent"`
	Kills   int    `json:"kills"`
	Deaths  int    `json:"deaths"`
	Assists int    `json:"assists"`
	Weapon  string `json:"weapon"`
}

func (p Player) validate() error {
	if p.Kills < 0 || p.Deaths < 0 || p.Assists < 0 {
		return fmt.Errorf("%w: player counters must not be negative", ErrInvalidPatch)
	}
	return nil
}

type Team struct {
	Name    string   `json:"name"`
	Score   int      `json:"score"`
	Logo    string   `json:"logo"`
	Players []Player `json:"players"`
}

// NewTeam returns a team with the given name, zero score and blank players.
func NewTeam(name string) Team {
	return Team{Name: name, Players: make([]Player, PlayersPerTeam)}
}

// Normalize returns a copy whose roster holds exactly PlayersPerTeam players,
// padding with blank players or dropping the surplus.
func (t Team) Normalize() Team {
	players := make([]Player, PlayersPerTeam)
	copy(players, t.Players)
	t.Players = players
	return t
}

// Validate checks the non-negative counters of the team and its players.
func (t Team) Validate() error {
	if t.Score < 0 {
		return fmt.Errorf("%w: score must not be negative", ErrInvalidPatch)
	}
	for _, p := range t.Players {
		if err := p.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (t Team) Clone() Team {
	t.Players = slices.Clone(t.Players)
	return t
}

// Document is the shared scoreboard state pushed to every viewer.
//
// Extra holds top-level keys that are not part of the model. Bulk updates may
// add them; they are persisted and broadcast like any other field.
type Document struct {
	Scene     string
	TeamA     Team
	TeamB     Team
	MatchTime string
	Killfeed  []json.RawMessage
	Extra     map[string]json.RawMessage
}

const (
	FieldScene     = "scene"
	FieldTeamA     = string(TeamA)
	FieldTeamB     = string(TeamB)
	FieldMatchTime = "match_time"
	FieldKillfeed  = "killfeed"

	// FieldType is the message discriminator that full-sync frames put next to the
	// document fields. A document never carries it.
	FieldType = "type"
)

// IsReservedField reports whether key may not be stored as a document field.
func IsReservedField(key string) bool {
	return key == FieldType
}

// DefaultDocument is the state seeded when no usable snapshot exists.
func DefaultDocument() Document {
	return Document{
		Scene:     "intro",
		TeamA:     NewTeam("Team A"),
		TeamB:     NewTeam("Team B"),
		MatchTime: "00:00",
		Killfeed:  []json.RawMessage{},
	}
}

// Team returns a pointer to the team field named by id.
func (d *Document) Team(id TeamID) (*Team, error) {
	switch id {
	case TeamA:
		return &d.TeamA, nil
	case TeamB:
		return &d.TeamB, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidTeamID, id)
	}
}

// Clone returns a deep copy; mutating the copy never affects d.
func (d Document) Clone() Document {
	out := d
	out.TeamA = d.TeamA.Clone()
	out.TeamB = d.TeamB.Clone()
	out.Killfeed = make([]json.RawMessage, len(d.Killfeed))
	for i, event := range d.Killfeed {
		out.Killfeed[i] = bytes.Clone(event)
	}
	if d.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(d.Extra))
		for k, v := range d.Extra {
			out.Extra[k] = bytes.Clone(v)
		}
	}
	return out
}

// SetField overwrites one top-level field with the decoded raw value. Teams are
// normalized to the fixed roster size; unknown keys land in Extra verbatim.
func (d *Document) SetField(key string, raw json.RawMessage) error {
	switch key {
	case FieldScene:
		return decodeField(key, raw, &d.Scene)
	case FieldMatchTime:
		return decodeField(key, raw, &d.MatchTime)
	case FieldTeamA, FieldTeamB:
		var team Team
		if err := decodeField(key, raw, &team); err != nil {
			return err
		}
		team = team.Normalize()
		if err := team.Validate(); err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
		target, _ := d.Team(TeamID(key))
		*target = team
		return nil
	case FieldKillfeed:
		var events []json.RawMessage
		if err := decodeField(key, raw, &events); err != nil {
			return err
		}
		if events == nil {
			events = []json.RawMessage{}
		}
		for i, event := range events {
			compacted, err := compactRaw(key, event)
			if err != nil {
				return err
			}
			events[i] = compacted
		}
		d.Killfeed = events
		return nil
	default:
		compacted, err := compactRaw(key, raw)
		if err != nil {
			return err
		}
		if d.Extra == nil {
			d.Extra = make(map[string]json.RawMessage)
		}
		d.Extra[key] = compacted
		return nil
	}
}

// compactRaw strips insignificant whitespace so raw values read back from an
// indented snapshot equal the values that were saved.
func compactRaw(key string, raw json.RawMessage) (json.RawMessage, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, fmt.Errorf("%w: field %q is not valid JSON", ErrInvalidPatch, key)
	}
	return buf.Bytes(), nil
}

func decodeField(key string, raw json.RawMessage, target any) error {
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("%w: field %q: %v", ErrInvalidPatch, key, err)
	}
	return nil
}

type documentJSON struct {
	Scene     string            `json:"scene"`
	TeamA     Team              `json:"team_a"`
	TeamB     Team              `json:"team_b"`
	MatchTime string            `json:"match_time"`
	Killfeed  []json.RawMessage `json:"killfeed"`
}

// MarshalJSON writes the model fields in a fixed order followed by the sorted Extra keys.
func (d Document) MarshalJSON() ([]byte, error) {
	killfeed := d.Killfeed
	if killfeed == nil {
		killfeed = []json.RawMessage{}
	}
	base, err := json.Marshal(documentJSON{
		Scene:     d.Scene,
		TeamA:     d.TeamA,
		TeamB:     d.TeamB,
		MatchTime: d.MatchTime,
		Killfeed:  killfeed,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	if len(d.Extra) == 0 {
		return base, nil
	}

	extra, err := json.Marshal(d.Extra)
	if err != nil {
		return nil, fmt.Errorf("marshal document extras: %w", err)
	}

	// {"scene":...} + {"x":...} -> {"scene":...,"x":...}
	var buf bytes.Buffer
	buf.Grow(len(base) + len(extra))
	buf.Write(base[:len(base)-1])
	buf.WriteByte(',')
	buf.Write(extra[1:])
	return buf.Bytes(), nil
}

func (d *Document) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return errors.New("unmarshal document: document must be a JSON object, got null")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("unmarshal document: %w", err)
	}

	doc := Document{Killfeed: []json.RawMessage{}}
	for _, key := range slices.Sorted(maps.Keys(fields)) {
		if IsReservedField(key) {
			continue
		}
		if err := doc.SetField(key, fields[key]); err != nil {
			return fmt.Errorf("unmarshal document: %w", err)
		}
	}
	doc.TeamA = doc.TeamA.Normalize()
	doc.TeamB = doc.TeamB.Normalize()

	*d = doc
	return nil
}
