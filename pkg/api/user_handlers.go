package api

import (
	"errors"
	"net/http"

	"github.com/storefrontd/storefrontd/pkg/httputil"
	"github.com/storefrontd/storefrontd/pkg/middleware"
	"github.com/storefrontd/storefrontd/pkg/store"
)

type updateProfileRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	subject := middleware.GetSubject(r)
	if subject == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	user, err := s.stores.Users.Get(r.Context(), subject.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteNotFoundError(w, "user not found")
			return
		}
		s.logger.WithError(err).Error("failed to load user")
		httputil.WriteInternalError(w, errors.New("failed to load user"))
		return
	}
	httputil.WriteSuccess(w, user)
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	subject := middleware.GetSubject(r)
	if subject == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	var req updateProfileRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	user, err := s.stores.Users.UpdateProfile(r.Context(), subject.UserID, req.Email, req.FullName)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteNotFoundError(w, "user not found")
			return
		}
		s.logger.WithError(err).Error("failed to update user")
		httputil.WriteInternalError(w, errors.New("failed to update user"))
		return
	}
	httputil.WriteSuccess(w, user)
}

func (s *Server) handleDeleteMe(w http.ResponseWriter, r *http.Request) {
	subject := middleware.GetSubject(r)
	if subject == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	if err := s.stores.Users.Deactivate(r.Context(), subject.UserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteNotFoundError(w, "user not found")
			return
		}
		s.logger.WithError(err).Error("failed to deactivate user")
		httputil.WriteInternalError(w, errors.New("failed to deactivate user"))
		return
	}

	s.logger.WithField("login", subject.Username).Info("user deactivated")
	httputil.WriteNoContent(w)
}
