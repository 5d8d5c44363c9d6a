package v1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/irc-library/maktaba/api/auth"
	"github.com/irc-library/maktaba/http/request"
	"github.com/irc-library/maktaba/http/response"
	"github.com/irc-library/maktaba/log"
	"github.com/irc-library/maktaba/model"
	"github.com/irc-library/maktaba/util"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type signInRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInResponse struct {
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	Role        string `json:"role"`
	AccessToken string `json:"accessToken"`
}

// signIn handles both account kinds: a name means an approved reader
// record, otherwise the email must match the librarian account. Both
// paths require the password set for the account.
func (h *Handler) signIn(w http.ResponseWriter, r *http.Request) {
	var signin signInRequest
	if err := json.NewDecoder(r.Body).Decode(&signin); err != nil {
		log.Error("Failed to decode request body", zap.Error(err))
		response.BadRequest(w, r, err)
		return
	}

	var identity *model.Identity
	var err error
	if strings.TrimSpace(signin.Name) != "" {
		identity, err = h.signInReader(signin)
	} else {
		identity, err = h.signInLibrarian(signin)
	}
	if err != nil {
		log.Warn("Sign-in rejected", zap.String("name", signin.Name), zap.Error(err))
		response.Unauthorized(w, r)
		return
	}

	expireTime := time.Now().Add(auth.AccessTokenDuration)
	accessToken, err := auth.GenerateAccessToken(*identity, expireTime, h.secret)
	if err != nil {
		log.Error("Failed to generate access token", zap.Error(err))
		response.ServerError(w, r, err)
		return
	}

	cookie := buildAccessTokenCookie(accessToken, expireTime, r.Header.Get("Origin"))
	w.Header().Set("Set-Cookie", cookie)

	response.OK(w, r, signInResponse{
		Name:        identity.Name,
		Email:       identity.Email,
		Role:        string(identity.Role),
		AccessToken: accessToken,
	})
}

func (h *Handler) signInLibrarian(signin signInRequest) (*model.Identity, error) {
	librarian, err := h.store.GetLibrarian(signin.Email)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get librarian")
	}
	if librarian == nil {
		return nil, errors.New("librarian not found")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(librarian.PasswordHash), []byte(signin.Password)); err != nil {
		return nil, errors.New("invalid password")
	}

	return &model.Identity{
		Name:  librarian.Email,
		Email: librarian.Email,
		Role:  model.RoleLibrarian,
	}, nil
}

func (h *Handler) signInReader(signin signInRequest) (*model.Identity, error) {
	name := strings.TrimSpace(signin.Name)
	if name == "" {
		return nil, errors.New("name is required")
	}

	reader, err := h.store.GetReader(&model.FindReader{Name: &name})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get reader")
	}
	if reader == nil {
		return nil, errors.New("reader not found")
	}

	// A reader with no stored hash cannot sign in until a librarian
	// resets the credential.
	if reader.PasswordHash == "" {
		return nil, errors.New("no credential on record")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(reader.PasswordHash), []byte(signin.Password)); err != nil {
		return nil, errors.New("invalid password")
	}

	return &model.Identity{
		Name:  reader.Name,
		Email: reader.Email,
		Role:  model.RoleReader,
	}, nil
}

func (h *Handler) signOut(w http.ResponseWriter, r *http.Request) {
	if sessionID := request.SessionID(r); sessionID != "" {
		h.catalog.Drop(sessionID)
	}

	cookie := buildAccessTokenCookie("", time.Time{}, r.Header.Get("Origin"))
	w.Header().Set("Set-Cookie", cookie)
	response.NoContent(w, r)
}

// register files a reader self-registration for librarian review.
// Duplicate names are allowed here; uniqueness is enforced only when a
// librarian approves the request.
func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var registration struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&registration); err != nil {
		log.Error("Failed to decode request body", zap.Error(err))
		response.BadRequest(w, r, err)
		return
	}

	registration.Name = strings.TrimSpace(registration.Name)
	if registration.Name == "" {
		response.BadRequest(w, r, errors.New("name is required"))
		return
	}
	if registration.Password == "" {
		response.BadRequest(w, r, errors.New("password is required"))
		return
	}
	if registration.Email != "" && !util.ValidateEmail(registration.Email) {
		response.BadRequest(w, r, errors.New("invalid email address"))
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(registration.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		response.ServerError(w, r, err)
		return
	}

	readerRequest, err := h.store.AddReaderRequest(&model.ReaderRequest{
		Name:         registration.Name,
		Email:        registration.Email,
		PasswordHash: string(passwordHash),
	})
	if err != nil {
		log.Error("Failed to add reader request", zap.Error(err))
		response.ServerError(w, r, err)
		return
	}

	response.Created(w, r, readerRequest)
}

func buildAccessTokenCookie(accessToken string, expireTime time.Time, origin string) string {
	attrs := []string{
		fmt.Sprintf("%s=%s", auth.AccessTokenCookieName, accessToken),
		"Path=/",
		"HttpOnly",
	}
	if expireTime.IsZero() {
		attrs = append(attrs, "Expires=Thu, 01 Jan 1970 00:00:00 GMT")
	} else {
		attrs = append(attrs, "Expires="+expireTime.Format(time.RFC1123))
	}

	if strings.HasPrefix(origin, "https://") {
		attrs = append(attrs, "SameSite=None", "Secure")
	} else {
		attrs = append(attrs, "SameSite=Strict")
	}
	return strings.Join(attrs, "; ")
}
