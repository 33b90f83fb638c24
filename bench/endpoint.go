package bench

import (
	"encoding/json"
	"net/http"
)

// CreateGetRunEndpoint serves GET /runs/{source}?page=N.
func CreateGetRunEndpoint(service Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		source := r.PathValue("source")
		page := r.URL.Query().Get("page")

		run := service.GetRunForSource(source, page)

		if run == nil {
			http.Error(w, "no run for source", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")

		if err := json.NewEncoder(w).Encode(run); err != nil {
			return
		}
	}
}
