package server

import (
	"net/http"

	"github.com/jrsteele09/go-portal-server/catalog"
)

// AppsHandler returns the catalog filtered to the caller's groups,
// refreshing the access token first when it is close to expiry.
func (s *Server) AppsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionFromContext(r)
		if err := s.guard.RequireAuthenticated(r.Context(), session); err != nil {
			writeAuthError(w, err)
			return
		}

		visible := catalog.VisibleCatalog(s.catalog.Categories(), s.catalog.CategoriesWithApps(), session.UserGroups)
		writeJSON(w, http.StatusOK, map[string]any{"categories": visible})
	}
}

// CategoriesHandler returns the category headers the caller can see, apps
// omitted.
func (s *Server) CategoriesHandler() http.HandlerFunc {
	type categoryHeader struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Icon  string `json:"icon"`
		Order int    `json:"order"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionFromContext(r)
		if err := s.guard.RequireAuthenticated(r.Context(), session); err != nil {
			writeAuthError(w, err)
			return
		}

		visible := catalog.VisibleCatalog(s.catalog.Categories(), s.catalog.CategoriesWithApps(), session.UserGroups)
		headers := make([]categoryHeader, 0, len(visible))
		for _, entry := range visible {
			headers = append(headers, categoryHeader{
				ID:    entry.Category.ID,
				Name:  entry.Category.Name,
				Icon:  entry.Category.Icon,
				Order: entry.Category.Order,
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"categories": headers})
	}
}

// SearchHandler matches apps by name or description, scoped to what the
// caller can already see.
func (s *Server) SearchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionFromContext(r)
		if err := s.guard.RequireAuthenticated(r.Context(), session); err != nil {
			writeAuthError(w, err)
			return
		}

		query := r.URL.Query().Get("q")
		if query == "" {
			writeJSONError(w, "invalid_request", "q parameter is required", http.StatusBadRequest)
			return
		}

		results := catalog.Search(query, s.catalog.Categories(), s.catalog.CategoriesWithApps(), session.UserGroups)
		writeJSON(w, http.StatusOK, map[string]any{"apps": results})
	}
}
