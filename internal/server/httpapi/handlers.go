package httpapi

import (
	"net/http"

	"github.com/VentixeAssignment/authservice/internal/common"
	"github.com/VentixeAssignment/authservice/internal/server/auth"
	"github.com/VentixeAssignment/authservice/internal/server/services"
	"github.com/go-chi/chi/v5"
)

// Payloads only bound lengths and types. Blank values reach the
// orchestrator, which owns the messages for them.
type signInRequest struct {
	UserName string `json:"userName" validate:"max=256"`
	Email    string `json:"email" validate:"max=256"`
	Password string `json:"password" validate:"max=1024"`
}

type createUserRequest struct {
	Email     string `json:"email" validate:"max=256"`
	Password  string `json:"password" validate:"max=1024"`
	UserName  string `json:"userName" validate:"max=256"`
	FirstName string `json:"firstName" validate:"max=256"`
	LastName  string `json:"lastName" validate:"max=256"`
}

type updateUserRequest struct {
	Email string `json:"email" validate:"max=256"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"max=1024"`
	NewPassword     string `json:"newPassword" validate:"max=1024"`
}

type changeActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

type emailRequest struct {
	Email string `json:"email" validate:"max=256"`
}

type verifyEmailRequest struct {
	Email string `json:"email" validate:"max=256"`
	Code  string `json:"code" validate:"max=32"`
}

type tokenRequest struct {
	Token string `json:"token" validate:"max=4096"`
}

type handlers struct {
	svc services.Orchestrator
	dec *decoder
}

func (h *handlers) signIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if !h.dec.decode(w, r, &req) {
		return
	}
	login := req.UserName
	if login == "" {
		login = req.Email
	}

	res := h.svc.SignIn(r.Context(), login, req.Password)
	writeResult(w, res, http.StatusOK, func(out *response) {
		out.Token = res.Token
		if res.Data != nil {
			out.ID, out.Email = res.Data.ID, res.Data.Email
		}
	})
}

func (h *handlers) signOut(w http.ResponseWriter, r *http.Request) {
	writeResult(w, h.svc.SignOut(r.Context()), http.StatusOK, nil)
}

// validateToken takes the token from the body, or from the Authorization
// header when the body has none. A rejected token is a 401.
func (h *handlers) validateToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if !h.dec.decode(w, r, &req) {
		return
	}
	token := req.Token
	if token == "" {
		token = auth.BearerToken(r.Header.Get(common.AuthorizationHeaderName))
	}

	res := h.svc.ValidateToken(r.Context(), token)
	if !res.Success && res.Kind == common.KindUnauthorized {
		writeError(w, http.StatusUnauthorized, res.Message)
		return
	}
	writeResult(w, res, http.StatusOK, func(out *response) {
		if res.Data != nil {
			out.UserID, out.Email = res.Data.ID, res.Data.Email
		}
	})
}

func (h *handlers) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !h.dec.decode(w, r, &req) {
		return
	}

	res := h.svc.CreateUser(r.Context(), services.CreateUserParams{
		Email:     req.Email,
		Password:  req.Password,
		UserName:  req.UserName,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	writeResult(w, res, http.StatusCreated, func(out *response) {
		if res.Data != nil {
			out.ID = res.Data.ID
		}
	})
}

func (h *handlers) updateUser(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if !h.dec.decode(w, r, &req) {
		return
	}
	writeResult(w, h.svc.UpdateUser(r.Context(), chi.URLParam(r, "id"), req.Email), http.StatusOK, nil)
}

func (h *handlers) changePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if !h.dec.decode(w, r, &req) {
		return
	}
	res := h.svc.ChangePassword(r.Context(), chi.URLParam(r, "id"), req.CurrentPassword, req.NewPassword)
	writeResult(w, res, http.StatusOK, nil)
}

func (h *handlers) changeActive(w http.ResponseWriter, r *http.Request) {
	var req changeActiveRequest
	if !h.dec.decode(w, r, &req) {
		return
	}
	writeResult(w, h.svc.ChangeActive(r.Context(), chi.URLParam(r, "id"), *req.Active), http.StatusOK, nil)
}

func (h *handlers) deleteUser(w http.ResponseWriter, r *http.Request) {
	writeResult(w, h.svc.DeleteUser(r.Context(), chi.URLParam(r, "id")), http.StatusOK, nil)
}

func (h *handlers) getUserEmail(w http.ResponseWriter, r *http.Request) {
	res := h.svc.GetUserEmail(r.Context(), chi.URLParam(r, "id"))
	writeResult(w, res, http.StatusOK, func(out *response) {
		if res.Data != nil {
			out.Email = res.Data.Email
		}
	})
}

// userExists answers 200 with exists=false for an unknown address.
func (h *handlers) userExists(w http.ResponseWriter, r *http.Request) {
	res := h.svc.UserExists(r.Context(), r.URL.Query().Get("email"))
	if !res.Success && res.Kind != common.KindNotFound {
		writeResult(w, res, http.StatusOK, nil)
		return
	}
	exists := res.Success
	writeJSON(w, http.StatusOK, response{
		Success:    true,
		StatusCode: http.StatusOK,
		Message:    res.Message,
		Exists:     &exists,
	})
}

func (h *handlers) sendVerificationCode(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !h.dec.decode(w, r, &req) {
		return
	}
	writeResult(w, h.svc.SendVerificationCode(r.Context(), req.Email), http.StatusOK, nil)
}

func (h *handlers) verifyEmail(w http.ResponseWriter, r *http.Request) {
	var req verifyEmailRequest
	if !h.dec.decode(w, r, &req) {
		return
	}
	writeResult(w, h.svc.VerifyEmail(r.Context(), req.Email, req.Code), http.StatusOK, nil)
}

func health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, response{Success: true, StatusCode: http.StatusOK, Message: "ok"})
}
