package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/contactbook/internal/common"
)

// --- auth ---

func (s *HTTPServer) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(r.Context(), w, fmt.Errorf("%w: invalid json", common.ErrorInvalidArgument))
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		s.writeError(r.Context(), w, fmt.Errorf("%w: username, email and password are required", common.ErrorInvalidArgument))
		return
	}

	user, err := s.users.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	confirmToken, err := s.users.GenerateConfirmToken(user.Email)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	s.logger.Info(r.Context(), "user registered", "username", user.Username)
	s.writeJSON(r.Context(), w, http.StatusCreated, signupResponse{
		userResponse: toUserResponse(user),
		ConfirmToken: confirmToken,
	})
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(r.Context(), w, fmt.Errorf("%w: invalid json", common.ErrorInvalidArgument))
		return
	}

	pair, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	s.writeJSON(r.Context(), w, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (s *HTTPServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(r.Context(), w, fmt.Errorf("%w: invalid json", common.ErrorInvalidArgument))
		return
	}

	pair, err := s.users.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	s.writeJSON(r.Context(), w, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (s *HTTPServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		s.writeError(r.Context(), w, common.ErrorUnauthorized)
		return
	}

	if err := s.users.Logout(r.Context(), userID); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	s.writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (s *HTTPServer) handleConfirmEmail(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.ConfirmEmailToken(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	s.logger.Info(r.Context(), "email confirmed", "username", user.Username)
	s.writeJSON(r.Context(), w, http.StatusOK, toUserResponse(user))
}

// --- contacts ---

func (s *HTTPServer) contactID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "contactID"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: contact id must be an integer", common.ErrorInvalidArgument)
	}
	return id, nil
}

func (s *HTTPServer) handleListContacts(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	skip, limit := 0, 100
	if v, err := strconv.Atoi(r.URL.Query().Get("skip")); err == nil && v >= 0 {
		skip = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v >= 0 {
		limit = v
	}

	list, err := s.contacts.List(r.Context(), userID, skip, limit)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	s.writeJSON(r.Context(), w, http.StatusOK, toContactResponses(list))
}

func (s *HTTPServer) handleGetContact(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	id, err := s.contactID(r)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	contact, err := s.contacts.Get(r.Context(), userID, id)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	s.writeJSON(r.Context(), w, http.StatusOK, toContactResponse(contact))
}

func (s *HTTPServer) handleCreateContact(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	var payload contactPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(r.Context(), w, fmt.Errorf("%w: invalid json", common.ErrorInvalidArgument))
		return
	}
	fields, err := payload.toFields()
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	contact, err := s.contacts.Create(r.Context(), userID, fields)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	s.writeJSON(r.Context(), w, http.StatusCreated, toContactResponse(contact))
}

func (s *HTTPServer) handleUpdateContact(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	id, err := s.contactID(r)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	var payload contactPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(r.Context(), w, fmt.Errorf("%w: invalid json", common.ErrorInvalidArgument))
		return
	}
	fields, err := payload.toFields()
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	contact, err := s.contacts.Update(r.Context(), userID, id, fields)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	s.writeJSON(r.Context(), w, http.StatusOK, toContactResponse(contact))
}

func (s *HTTPServer) handleDeleteContact(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	id, err := s.contactID(r)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	contact, err := s.contacts.Delete(r.Context(), userID, id)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	s.writeJSON(r.Context(), w, http.StatusOK, toContactResponse(contact))
}

func (s *HTTPServer) handleSearchContacts(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	field := chi.URLParam(r, "field")
	value := chi.URLParam(r, "value")

	list, err := s.contacts.Search(r.Context(), userID, field, value)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	s.writeJSON(r.Context(), w, http.StatusOK, toContactResponses(list))
}

func (s *HTTPServer) handleUpcomingBirthdays(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	list, err := s.contacts.UpcomingBirthdays(r.Context(), userID, time.Now())
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	s.writeJSON(r.Context(), w, http.StatusOK, toContactResponses(list))
}

// --- avatar ---

func (s *HTTPServer) handleAvatarUploadURL(w http.ResponseWriter, r *http.Request) {
	key, url, err := s.avatars.PresignedPutURL(r.Context())
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	s.writeJSON(r.Context(), w, http.StatusOK, avatarUploadResponse{Key: key, UploadURL: url})
}

func (s *HTTPServer) handleAvatarComplete(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	var req avatarCompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Key == "" {
		s.writeError(r.Context(), w, fmt.Errorf("%w: key is required", common.ErrorInvalidArgument))
		return
	}

	user, err := s.users.GetByID(r.Context(), userID)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	updated, err := s.users.SetAvatar(r.Context(), user.Email, s.avatars.ObjectURL(req.Key))
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	s.writeJSON(r.Context(), w, http.StatusOK, toUserResponse(updated))
}
