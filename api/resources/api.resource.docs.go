package resources

import (
	"net/http"

	_ "github.com/itsatony/sensorhub/docs"
	"github.com/itsatony/sensorhub/internal/errors"
	"github.com/swaggo/swag"
)

// ServeDocs serves the registered OpenAPI document
func ServeDocs(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		respondWithError(w, r, errors.NewInternalError("failed to render api documentation", err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(doc))
}
