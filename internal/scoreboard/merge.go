package scoreboard

import "github.com/pscheid92/scorecast/internal/domain"

// MergeTeam returns team with patch applied. Fields absent from the patch keep their
// value. Player patches are applied by position; positions past the roster size are
// ignored and the roster length never changes.
func MergeTeam(team domain.Team, patch domain.TeamPatch) domain.Team {
	merged := team.Normalize()

	if patch.Name != nil {
		merged.Name = *patch.Name
	}
	if patch.Score != nil {
		merged.Score = *patch.Score
	}
	if patch.Logo != nil {
		merged.Logo = *patch.Logo
	}

	if patch.Players == nil {
		return merged
	}
	for i := 0; i < min(len(patch.Players), domain.PlayersPerTeam); i++ {
		incoming := patch.Players[i]
		// An update silent about the agent must never erase a chosen agent.
		if incoming.Agent == nil && merged.Players[i].Agent != "" {
			agent := merged.Players[i].Agent
			incoming.Agent = &agent
		}
		merged.Players[i] = MergePlayer(merged.Players[i], incoming)
	}
	return merged
}

// MergePlayer applies the fields present in patch to player.
func MergePlayer(player domain.Player, patch domain.PlayerPatch) domain.Player {
	if patch.Name != nil {
		player.Name = *patch.Name
	}
	if patch.Agent != nil {
		player.Agent = *patch.Agent
	}
	if patch.Kills != nil {
		player.Kills = *patch.Kills
	}
	if patch.Deaths != nil {
		player.Deaths = *patch.Deaths
	}
	if patch.Assists != nil {
		player.Assists = *patch.Assists
	}
	if patch.Weapon != nil {
		player.Weapon = *patch.Weapon
	}
	return player
}
