package server

import (
	"net/http"

	"github.com/Wahyuw1j4/ziyad-book/internal/services/user"
)

type userPayload struct {
	Email    *string `json:"email"`
	Name     *string `json:"name"`
	Password *string `json:"password"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var body userPayload
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	params := user.CreateParams{}
	if body.Email != nil {
		params.Email = *body.Email
	}
	if body.Name != nil {
		params.Name = *body.Name
	}
	if body.Password != nil {
		params.Password = *body.Password
	}

	created, err := s.userService.CreateUser(r.Context(), params)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSuccess(w, http.StatusCreated, "User created successfully", created)
}

func (s *Server) handleGetUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.userService.GetUsers(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSuccess(w, http.StatusOK, "Users retrieved successfully", users)
}

func (s *Server) handleGetUserByID(w http.ResponseWriter, r *http.Request) {
	u, err := s.userService.GetUserByID(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSuccess(w, http.StatusOK, "User retrieved successfully", u)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var body userPayload
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	updated, err := s.userService.UpdateUser(r.Context(), r.PathValue("id"), user.UpdateParams{
		Email:    body.Email,
		Name:     body.Name,
		Password: body.Password,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSuccess(w, http.StatusOK, "User updated successfully", updated)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := s.userService.DeleteUser(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
