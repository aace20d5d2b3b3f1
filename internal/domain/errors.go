package domain

import "errors"

var (
	ErrInvalidTeamID  = errors.New("invalid team id")
	ErrInvalidPatch   = errors.New("invalid patch")
	ErrHubStopped     = errors.New("hub stopped")
	ErrTooManyClients = errors.New("too many clients")

	ErrSnapshotNotFound = errors.New("snapshot not found")
)
