package api

import (
	"errors"
	"net/http"

	"github.com/storefrontd/storefrontd/pkg/auth"
	"github.com/storefrontd/storefrontd/pkg/httputil"
	"github.com/storefrontd/storefrontd/pkg/middleware"
)

type registerRequest struct {
	Login    string `json:"login"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
}

func (s *Server) newTokenResponse(token string, subject *auth.Subject) tokenResponse {
	return tokenResponse{
		Token:     token,
		ExpiresIn: int64(s.tokens.Lifetime().Seconds()),
		UserID:    subject.UserID,
		Username:  subject.Username,
		Role:      string(subject.Role),
	}
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Login, "login") {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Password, "password") {
		return
	}

	subject, err := s.credentials.Register(r.Context(), req.Login, req.Email, req.Password, auth.RoleUser)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrDuplicateLogin):
			httputil.WriteConflict(w, "login already taken")
		case errors.Is(err, auth.ErrInvalidArgument):
			httputil.WriteBadRequest(w, "invalid registration data")
		default:
			s.logger.WithError(err).Error("registration failed")
			httputil.WriteInternalError(w, errors.New("registration failed"))
		}
		return
	}

	// Registration logs the user in immediately.
	token, err := s.tokens.Issue(*subject)
	if err != nil {
		s.logger.WithError(err).Error("token issue failed after registration")
		httputil.WriteInternalError(w, errors.New("registration failed"))
		return
	}

	s.logger.WithField("login", req.Login).Info("user registered")
	httputil.WriteCreated(w, s.newTokenResponse(token, subject))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	subject, err := s.credentials.Verify(r.Context(), req.Login, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrAuthFailed) {
			s.recordLogin("failure")
			// Same response for unknown login and wrong password.
			httputil.WriteUnauthorized(w, "invalid login or password")
			return
		}
		s.logger.WithError(err).Error("login failed")
		httputil.WriteInternalError(w, errors.New("login failed"))
		return
	}

	token, err := s.tokens.Issue(*subject)
	if err != nil {
		s.logger.WithError(err).Error("token issue failed")
		httputil.WriteInternalError(w, errors.New("login failed"))
		return
	}

	s.recordLogin("success")
	s.logger.WithField("login", req.Login).Info("user logged in")
	httputil.WriteSuccess(w, s.newTokenResponse(token, subject))
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	subject := middleware.GetSubject(r)
	if subject == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	var req changePasswordRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.NewPassword, "new_password") {
		return
	}

	err := s.credentials.ChangePassword(r.Context(), subject.Username, req.OldPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrAuthFailed):
			httputil.WriteUnauthorized(w, "invalid login or password")
		case errors.Is(err, auth.ErrInvalidArgument):
			httputil.WriteBadRequest(w, "invalid password data")
		default:
			s.logger.WithError(err).Error("password change failed")
			httputil.WriteInternalError(w, errors.New("password change failed"))
		}
		return
	}

	s.logger.WithField("login", subject.Username).Info("password changed")
	httputil.WriteNoContent(w)
}

func (s *Server) recordLogin(outcome string) {
	if s.metrics != nil {
		s.metrics.LoginAttemptsTotal.WithLabelValues(outcome).Inc()
	}
}
