package v1

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/irc-library/maktaba/http/request"
	"github.com/irc-library/maktaba/http/response"
	"github.com/irc-library/maktaba/log"
	"github.com/irc-library/maktaba/model"
	"github.com/irc-library/maktaba/util"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func (h *Handler) listReaders(w http.ResponseWriter, r *http.Request) {
	if !h.requireLibrarian(w, r) {
		return
	}

	readers, err := h.store.ListReaders(&model.FindReader{})
	if err != nil {
		log.Error("Failed to list readers", zap.Error(err))
		response.ServerError(w, r, err)
		return
	}

	response.OK(w, r, readers)
}

func (h *Handler) createReader(w http.ResponseWriter, r *http.Request) {
	if !h.requireLibrarian(w, r) {
		return
	}

	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		log.Error("Failed to decode request body", zap.Error(err))
		response.BadRequest(w, r, err)
		return
	}

	body.Name = strings.TrimSpace(body.Name)
	if body.Name == "" {
		response.BadRequest(w, r, errors.New("name is required"))
		return
	}
	if body.Password == "" {
		response.BadRequest(w, r, errors.New("password is required"))
		return
	}
	if body.Email != "" && !util.ValidateEmail(body.Email) {
		response.BadRequest(w, r, errors.New("invalid email address"))
		return
	}

	existing, err := h.store.GetReader(&model.FindReader{Name: &body.Name})
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	if existing != nil {
		response.Conflict(w, r, errors.Errorf("reader %q already exists", body.Name))
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		response.ServerError(w, r, err)
		return
	}

	reader, err := h.store.AddReader(&model.Reader{
		Name:         body.Name,
		Email:        body.Email,
		PasswordHash: string(passwordHash),
	})
	if err != nil {
		log.Error("Failed to add reader", zap.Error(err))
		response.ServerError(w, r, err)
		return
	}

	response.Created(w, r, reader)
}

// deleteReader removes the reader record only. Books the reader still
// holds keep their status; the name simply stops resolving to a record.
func (h *Handler) deleteReader(w http.ResponseWriter, r *http.Request) {
	if !h.requireLibrarian(w, r) {
		return
	}
	readerID := request.RouteStringParam(r, "id")

	reader, err := h.store.GetReader(&model.FindReader{ID: &readerID})
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	if reader == nil {
		response.NotFound(w, r)
		return
	}

	if err := h.store.RemoveReader(readerID); err != nil {
		log.Error("Failed to remove reader", zap.Error(err))
		response.ServerError(w, r, err)
		return
	}

	response.NoContent(w, r)
}

func (h *Handler) listReaderRequests(w http.ResponseWriter, r *http.Request) {
	if !h.requireLibrarian(w, r) {
		return
	}

	find := &model.FindReaderRequest{}
	if status := request.QueryStringParam(r, "status", ""); status != "" {
		requestStatus := model.RequestStatus(status)
		find.Status = &requestStatus
	}

	requests, err := h.store.ListReaderRequests(find)
	if err != nil {
		log.Error("Failed to list reader requests", zap.Error(err))
		response.ServerError(w, r, err)
		return
	}

	response.OK(w, r, requests)
}

// approveReaderRequest materializes a reader record from a pending
// request. The request row itself stays, marked approved.
func (h *Handler) approveReaderRequest(w http.ResponseWriter, r *http.Request) {
	if !h.requireLibrarian(w, r) {
		return
	}
	requestID := request.RouteStringParam(r, "id")

	readerRequest, err := h.store.GetReaderRequest(requestID)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	if readerRequest == nil {
		response.NotFound(w, r)
		return
	}
	if readerRequest.Status != model.RequestPending {
		response.Conflict(w, r, errors.Errorf("request already %s", readerRequest.Status))
		return
	}

	existing, err := h.store.GetReader(&model.FindReader{Name: &readerRequest.Name})
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	if existing != nil {
		response.Conflict(w, r, errors.Errorf("reader %q already exists", readerRequest.Name))
		return
	}

	if _, err := h.store.AddReader(&model.Reader{
		Name:         readerRequest.Name,
		Email:        readerRequest.Email,
		PasswordHash: readerRequest.PasswordHash,
	}); err != nil {
		log.Error("Failed to add reader", zap.Error(err))
		response.ServerError(w, r, err)
		return
	}

	readerRequest, err = h.store.SetReaderRequestStatus(requestID, model.RequestApproved)
	if err != nil {
		log.Error("Failed to update reader request", zap.Error(err))
		response.ServerError(w, r, err)
		return
	}

	response.OK(w, r, readerRequest)
}

func (h *Handler) rejectReaderRequest(w http.ResponseWriter, r *http.Request) {
	if !h.requireLibrarian(w, r) {
		return
	}
	requestID := request.RouteStringParam(r, "id")

	readerRequest, err := h.store.GetReaderRequest(requestID)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	if readerRequest == nil {
		response.NotFound(w, r)
		return
	}
	if readerRequest.Status != model.RequestPending {
		response.Conflict(w, r, errors.Errorf("request already %s", readerRequest.Status))
		return
	}

	readerRequest, err = h.store.SetReaderRequestStatus(requestID, model.RequestRejected)
	if err != nil {
		log.Error("Failed to update reader request", zap.Error(err))
		response.ServerError(w, r, err)
		return
	}

	response.OK(w, r, readerRequest)
}
