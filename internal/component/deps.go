// internal/component/deps.go
package component

import (
	"go.uber.org/zap"

	"github.com/yanizio/impact/internal/config"
	"github.com/yanizio/impact/internal/draft"
	"github.com/yanizio/impact/internal/form"
	"github.com/yanizio/impact/internal/restapi"
)

// Deps exposes process-wide services to Components during Init.
type Deps struct {
	Config    *config.Config
	Validator *form.Validator
	CSRF      *form.CSRF
	Drafts    draft.Store

	Projects *restapi.Collection[restapi.Project]
	Donors   *restapi.Collection[restapi.Donor]
	Impacts  *restapi.Collection[restapi.ImpactEntry]
	Settings *restapi.Collection[restapi.Setting]

	Log *zap.SugaredLogger
}

func (d Deps) logger() *zap.SugaredLogger {
	if d.Log == nil {
		return zap.S()
	}
	return d.Log
}
