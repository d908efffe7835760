package server

import "net/http"

// handleCampus serves the playable map content. Correct locations are part
// of the shared document model, so the photo pool is served as-is; clients
// are trusted the same way they are trusted to resolve rounds.
func handleCampus(svcs Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := svcs.Content.Campus(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}
