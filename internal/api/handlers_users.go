package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/auth"
	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/domain"
)

// POST /api/user/auth/register
func (s *Server) register(w http.ResponseWriter, r *http.Request) error {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	res, err := s.users.Register(r.Context(), req.input())
	if err != nil {
		return err
	}
	return ok(w, http.StatusCreated, "user registered", toAuth(res))
}

// POST /api/user/auth/admin/register
func (s *Server) registerAdmin(w http.ResponseWriter, r *http.Request) error {
	p := auth.FromContext(r.Context())
	if err := auth.Require(p, auth.ActionCreateAdmin, uuid.Nil); err != nil {
		return err
	}
	var req registerRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	u, err := s.users.RegisterAdmin(r.Context(), req.input())
	if err != nil {
		return err
	}
	return ok(w, http.StatusCreated, "admin registered", toUser(u))
}

// POST /api/user/auth/login
func (s *Server) login(w http.ResponseWriter, r *http.Request) error {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	res, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return ok(w, http.StatusOK, "login successful", toAuth(res))
}

// POST /api/user/auth/token/refresh
func (s *Server) refresh(w http.ResponseWriter, r *http.Request) error {
	var req refreshRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	access, exp, err := s.users.Refresh(r.Context(), req.Refresh)
	if err != nil {
		return err
	}
	return ok(w, http.StatusOK, "", tokensResponse{Access: access, AccessExpiresAt: exp})
}

// POST /api/user/auth/google
func (s *Server) googleLogin(w http.ResponseWriter, r *http.Request) error {
	var req googleLoginRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	res, err := s.users.SocialLogin(r.Context(), req.Code, req.AccessToken)
	if err != nil {
		return err
	}
	return ok(w, http.StatusOK, "login successful", toAuth(res))
}

// GET /api/user/profile
func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) error {
	p, err := caller(r)
	if err != nil {
		return err
	}
	u, err := s.users.GetUser(r.Context(), p.UserID)
	if err != nil {
		return err
	}
	return ok(w, http.StatusOK, "", toUser(u))
}

// PUT /api/user/profile
func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) error {
	p, err := caller(r)
	if err != nil {
		return err
	}
	return s.updateUserByID(w, r, p, p.UserID)
}

// GET /api/user/users
func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) error {
	if err := auth.Require(auth.FromContext(r.Context()), auth.ActionListUsers, uuid.Nil); err != nil {
		return err
	}
	users, err := s.users.ListUsers(r.Context())
	if err != nil {
		return err
	}
	return okList(w, mapSlice(users, toUser))
}

// GET /api/user/users/{id}
func (s *Server) getUser(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	if err := auth.Require(auth.FromContext(r.Context()), auth.ActionManageUser, id); err != nil {
		return err
	}
	u, err := s.users.GetUser(r.Context(), id)
	if err != nil {
		return err
	}
	return ok(w, http.StatusOK, "", toUser(u))
}

// PUT /api/user/users/{id}
func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	p := auth.FromContext(r.Context())
	if err := auth.Require(p, auth.ActionManageUser, id); err != nil {
		return err
	}
	return s.updateUserByID(w, r, p, id)
}

func (s *Server) updateUserByID(w http.ResponseWriter, r *http.Request, p auth.Principal, id uuid.UUID) error {
	var req profileRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	// only admins change roles, their own included
	if req.Role != nil && !p.IsAdmin() {
		return domain.ErrForbidden
	}
	u, err := s.users.UpdateUser(r.Context(), id, req.input())
	if err != nil {
		return err
	}
	return ok(w, http.StatusOK, "user updated", toUser(u))
}

// DELETE /api/user/users/{id}
func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	if err := auth.Require(auth.FromContext(r.Context()), auth.ActionManageUser, id); err != nil {
		return err
	}
	if err := s.users.DeleteUser(r.Context(), id); err != nil {
		return err
	}
	return ok(w, http.StatusOK, "user deleted", nil)
}
