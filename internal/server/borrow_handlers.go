package server

import (
	"net/http"
)

type createBorrowPayload struct {
	UserID string `json:"userId"`
	BookID string `json:"bookId"`
}

func (s *Server) handleCreateBorrow(w http.ResponseWriter, r *http.Request) {
	var body createBorrowPayload
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	created, err := s.borrowService.CreateBorrow(r.Context(), body.UserID, body.BookID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSuccess(w, http.StatusCreated, "Borrow created successfully", created)
}

func (s *Server) handleGetBorrows(w http.ResponseWriter, r *http.Request) {
	borrows, err := s.borrowService.GetBorrows(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSuccess(w, http.StatusOK, "Borrows retrieved successfully", borrows)
}

func (s *Server) handleGetBorrowByID(w http.ResponseWriter, r *http.Request) {
	b, err := s.borrowService.GetBorrowByID(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSuccess(w, http.StatusOK, "Borrow retrieved successfully", b)
}

func (s *Server) handleReturnBorrow(w http.ResponseWriter, r *http.Request) {
	returned, err := s.borrowService.ReturnBorrow(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSuccess(w, http.StatusOK, "Borrow returned successfully", returned)
}

func (s *Server) handleDeleteBorrow(w http.ResponseWriter, r *http.Request) {
	if err := s.borrowService.DeleteBorrow(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
