package http

import (
	"net/http"
	"strings"

	"github.com/aikirias/FinTrack/internal/core"
	"github.com/aikirias/FinTrack/internal/services"
)

type createUserRequest struct {
	Email string `json:"email"`
}

type createUserResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// handleCreateUser registers a user and installs the default category tree
// and accounts. It is the only endpoint that ignores X-User-ID.
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid email"})
		return
	}

	id, err := s.store.CreateUser(r.Context(), email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := services.SeedDefaults(r.Context(), s.store.Queries, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createUserResponse{ID: id, Email: email})
}

type createAccountRequest struct {
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

type createAccountResponse struct {
	ID       int64         `json:"id"`
	Name     string        `json:"name"`
	Currency core.Currency `json:"currency"`
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}

	var req createAccountRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "account name cannot be empty"})
		return
	}
	currency, err := core.ParseCurrency(req.Currency)
	if err != nil {
		writeError(w, r, err)
		return
	}

	id, err := s.store.CreateAccount(r.Context(), uid, name, currency)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createAccountResponse{ID: id, Name: name, Currency: currency})
}

type categoryRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	ParentID *int64 `json:"parent_id"`
}

type categoryResponse struct {
	ID       int64             `json:"id"`
	Name     string            `json:"name"`
	Type     core.CategoryType `json:"type"`
	ParentID *int64            `json:"parent_id"`
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}

	var req categoryRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "category name cannot be empty"})
		return
	}
	typ, err := core.ParseCategoryType(req.Type)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if req.ParentID != nil {
		parent, err := s.store.GetCategory(r.Context(), uid, *req.ParentID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if parent.ParentID != nil {
			writeJSON(w, http.StatusBadRequest,
				errorResponse{Error: "categories nest one level deep"})
			return
		}
	}

	created, err := s.store.CreateCategory(r.Context(), core.Category{
		UserID:   uid,
		Name:     name,
		Type:     typ,
		ParentID: req.ParentID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, categoryResponse{
		ID:       created.ID,
		Name:     created.Name,
		Type:     created.Type,
		ParentID: created.ParentID,
	})
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}

	cats, err := s.store.ListCategories(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]categoryResponse, 0, len(cats))
	for _, c := range cats {
		out = append(out, categoryResponse{
			ID:       c.ID,
			Name:     c.Name,
			Type:     c.Type,
			ParentID: c.ParentID,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
