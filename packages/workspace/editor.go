package workspace

import (
	"context"
	"errors"

	"github.com/abdul-hamid-achik/hitdesk/packages/core/env"
	"github.com/abdul-hamid-achik/hitdesk/packages/model"
)

// Repository persists edited entities.
type Repository interface {
	SaveRequest(ctx context.Context, req *model.Request) error
	SaveEnvironments(ctx context.Context, set *env.Set) error
}

// ChangeFunc receives the dirty state after every edit, save and revert.
type ChangeFunc func(dirty bool)

// ErrIndexOutOfRange is returned by entry edits that address a missing row.
var ErrIndexOutOfRange = errors.New("entry index out of range")
