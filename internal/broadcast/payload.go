package broadcast

import (
	"encoding/json"
	"fmt"

	"github.com/pscheid92/scorecast/internal/domain"
)

var fullSyncPrefix = []byte(`{"type":"` + string(domain.MessageInitialData) + `"`)

// EncodeFullSync renders doc as an initial_data frame: the document's own fields with
// "type" placed first.
func EncodeFullSync(doc domain.Document) ([]byte, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode full sync: %w", err)
	}

	out := make([]byte, 0, len(fullSyncPrefix)+len(body)+1)
	out = append(out, fullSyncPrefix...)
	if len(body) > 2 {
		out = append(out, ',')
	}
	return append(out, body[1:]...), nil
}

func EncodeTeamUpdate(id domain.TeamID, team domain.Team) ([]byte, error) {
	data, err := json.Marshal(domain.TeamUpdateMessage{Type: domain.MessageUpdateTeam, Team: id, Data: team})
	if err != nil {
		return nil, fmt.Errorf("encode team update: %w", err)
	}
	return data, nil
}

func EncodeError(message string) ([]byte, error) {
	data, err := json.Marshal(domain.ErrorMessage{Type: domain.MessageError, Error: message})
	if err != nil {
		return nil, fmt.Errorf("encode error message: %w", err)
	}
	return data, nil
}
