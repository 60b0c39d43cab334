package admin

import "context"

// ConfirmPhrase must be sent verbatim to purge business data.
const ConfirmPhrase = "DELETE ALL"

type Repository interface {
	// PurgeBusinessData empties every business table in one transaction and
	// returns the rows removed per table. User profiles are kept.
	PurgeBusinessData(ctx context.Context) (map[string]int64, error)
}

type UseCase interface {
	DeleteAll(ctx context.Context, confirm, actorID string) (map[string]int64, error)
}
