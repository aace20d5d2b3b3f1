package domain

import (
	"encoding/json"
	"fmt"
)

// PlayerPatch carries only the player fields to change; nil means "leave as is".
type PlayerPatch struct {
	Name    *string `json:"name,omitempty"`
	Agent   *string `json:"agent,omitempty"`
	Kills   *int    `json:"kills,omitempty"`
	Deaths  *int    `json:"deaths,omitempty"`
	Assists *int    `json:"assists,omitempty"`
	Weapon  *string `json:"weapon,omitempty"`
}

func (p PlayerPatch) Validate() error {
	for _, v := range []*int{p.Kills, p.Deaths, p.Assists} {
		if v != nil && *v < 0 {
			return fmt.Errorf("%w: player counters must not be negative", ErrInvalidPatch)
		}
	}
	return nil
}

// TeamPatch is the partial team record sent by controllers over the live connection.
// A nil Players slice means the roster is untouched.
type TeamPatch struct {
	Name    *string       `json:"name,omitempty"`
	Score   *int          `json:"score,omitempty"`
	Logo    *string       `json:"logo,omitempty"`
	Players []PlayerPatch `json:"players,omitempty"`
}

func (p TeamPatch) Validate() error {
	if p.Score != nil && *p.Score < 0 {
		return fmt.Errorf("%w: score must not be negative", ErrInvalidPatch)
	}
	// Positions past the roster are never merged, so they are not checked either.
	for i, player := range p.Players[:min(len(p.Players), PlayersPerTeam)] {
		if err := player.Validate(); err != nil {
			return fmt.Errorf("player %d: %w", i, err)
		}
	}
	return nil
}

// DecodeTeamPatch parses the data part of an update_team message.
func DecodeTeamPatch(raw json.RawMessage) (TeamPatch, error) {
	var patch TeamPatch
	if len(raw) == 0 {
		return patch, nil
	}
	if err := json.Unmarshal(raw, &patch); err != nil {
		return TeamPatch{}, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	return patch, nil
}

// DocumentPatch maps top-level Document keys to their replacement values.
type DocumentPatch map[string]json.RawMessage
