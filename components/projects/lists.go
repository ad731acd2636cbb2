package projects

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/impact/internal/form"
	"github.com/yanizio/impact/internal/restapi"
)

// listHandler serves the cached collection, loading it on first use or
// when ?refresh=1 is set.
func listHandler[T restapi.Entity[T]](list *restapi.Collection[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !list.Loaded() || r.URL.Query().Get("refresh") == "1" {
			if err := list.Refresh(r.Context()); err != nil {
				zap.S().Warnw("list refresh failed", "path", r.URL.Path, "err", err)
				writeError(w, http.StatusBadGateway, "could not load records")
				return
			}
		}
		items := list.Items()
		if items == nil {
			items = []T{}
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func (c *Component) listTemplates(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, form.TemplateNames())
}

// deleteProject removes a project from the list at once and from the
// backend.  The list is restored when the backend refuses.
func (c *Component) deleteProject(w http.ResponseWriter, r *http.Request) {
	id := restapi.ID(chi.URLParam(r, "id"))
	err := c.deps.Projects.Delete(r.Context(), id)
	switch {
	case err == nil:
		c.deps.Log.Infow("project deleted", "project", id)
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, restapi.ErrNotFound):
		writeError(w, http.StatusNotFound, "project not found")
	default:
		c.deps.Log.Warnw("project delete failed", "project", id, "err", err)
		writeError(w, http.StatusBadGateway, "could not delete project")
	}
}
