package v1

import (
	"encoding/json"
	"net/http"

	"github.com/irc-library/maktaba/http/request"
	"github.com/irc-library/maktaba/http/response"
	"github.com/irc-library/maktaba/lending"
	"github.com/irc-library/maktaba/log"
	"github.com/irc-library/maktaba/model"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// updateBookStatus runs one lending transition. The actor comes from the
// access token, never from the request body.
func (h *Handler) updateBookStatus(w http.ResponseWriter, r *http.Request) {
	bookID := request.RouteStringParam(r, "id")

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		log.Error("Failed to decode request body", zap.Error(err))
		response.BadRequest(w, r, err)
		return
	}

	actor := request.GetIdentity(r)
	book, err := h.lending.UpdateStatus(actor, bookID, body.Status)
	if err != nil {
		switch {
		case errors.Is(err, lending.ErrUnauthenticated):
			response.Unauthorized(w, r)
		case errors.Is(err, lending.ErrNotAllowed):
			response.Forbidden(w, r)
		case errors.Is(err, lending.ErrUpdateInFlight):
			response.Conflict(w, r, err)
		case errors.Is(err, lending.ErrBookNotFound):
			response.NotFound(w, r)
		case errors.Is(err, lending.ErrEmptyStatus):
			response.BadRequest(w, r, err)
		default:
			response.ServerError(w, r, err)
		}
		return
	}

	response.OK(w, r, book)
}

func (h *Handler) listBookLoans(w http.ResponseWriter, r *http.Request) {
	bookID := request.RouteStringParam(r, "id")

	entries, err := h.store.ListLoanEntries(&model.FindLoanEntry{BookID: &bookID})
	if err != nil {
		log.Error("Failed to list loan entries", zap.Error(err))
		response.ServerError(w, r, err)
		return
	}

	response.OK(w, r, entries)
}
