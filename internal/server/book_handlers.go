package server

import (
	"net/http"

	"github.com/Wahyuw1j4/ziyad-book/internal/services/book"
)

type bookPayload struct {
	Title     *string `json:"title"`
	Author    *string `json:"author"`
	Published *int    `json:"published"`
	Genre     *string `json:"genre"`
	Stock     *int    `json:"stock"`
}

func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	var body bookPayload
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	params := book.CreateParams{}
	if body.Title != nil {
		params.Title = *body.Title
	}
	if body.Author != nil {
		params.Author = *body.Author
	}
	if body.Published != nil {
		params.Published = *body.Published
	}
	if body.Genre != nil {
		params.Genre = *body.Genre
	}
	if body.Stock != nil {
		params.Stock = *body.Stock
	}

	created, err := s.bookService.CreateBook(r.Context(), params)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSuccess(w, http.StatusCreated, "Book created successfully", created)
}

func (s *Server) handleGetBooks(w http.ResponseWriter, r *http.Request) {
	books, err := s.bookService.GetBooks(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSuccess(w, http.StatusOK, "Books retrieved successfully", books)
}

func (s *Server) handleGetBookByID(w http.ResponseWriter, r *http.Request) {
	b, err := s.bookService.GetBookByID(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSuccess(w, http.StatusOK, "Book retrieved successfully", b)
}

func (s *Server) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	var body bookPayload
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	updated, err := s.bookService.UpdateBook(r.Context(), r.PathValue("id"), book.UpdateParams{
		Title:     body.Title,
		Author:    body.Author,
		Published: body.Published,
		Genre:     body.Genre,
		Stock:     body.Stock,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSuccess(w, http.StatusOK, "Book updated successfully", updated)
}

func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	if err := s.bookService.DeleteBook(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSuccess(w, http.StatusOK, "Book deleted successfully", nil)
}
