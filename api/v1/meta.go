package v1

import (
	"net/http"

	"github.com/irc-library/maktaba/http/response"
	"github.com/irc-library/maktaba/log"
	"go.uber.org/zap"
)

// getLibraryMeta serves the denormalized collection summary backing the
// subject filter and the counters on the landing page.
func (h *Handler) getLibraryMeta(w http.ResponseWriter, r *http.Request) {
	meta, err := h.store.GetLibraryMeta()
	if err != nil {
		log.Error("Failed to get library meta", zap.Error(err))
		response.ServerError(w, r, err)
		return
	}

	response.OK(w, r, meta)
}
