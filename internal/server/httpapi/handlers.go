package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/dcampelo/storefront/internal/catalog"
	"github.com/dcampelo/storefront/internal/common"
	"github.com/dcampelo/storefront/internal/server/auth"
	"github.com/dcampelo/storefront/internal/server/models"
)

// maxSubmitMemory caps the in-memory portion of a parsed multipart form.
const maxSubmitMemory = 48 << 20

type productResponse struct {
	ID          string   `json:"id"`
	URIID       string   `json:"uri_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Keywords    string   `json:"keywords"`
	Status      string   `json:"status"`
	Category    string   `json:"category"`
	Size        string   `json:"size,omitempty"`
	Images      []string `json:"images"`
	Search      string   `json:"search"`
	CreatedAt   string   `json:"created_at"`
}

func toProductResponse(p *models.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		URIID:       p.URIID,
		Name:        p.Name,
		Description: p.Description,
		Keywords:    p.Keywords,
		Status:      string(p.Status),
		Category:    p.Category,
		Size:        p.Size,
		Images:      p.Images,
		Search:      p.Search,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
	}
}

type submitResponse struct {
	ID      string `json:"id"`
	Images  []bool `json:"images,omitempty"`
	Partial bool   `json:"partial,omitempty"`
	Focus   string `json:"focus,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error(context.Background(), "encode response", "error", err.Error())
	}
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	list, err := s.products.List(r.Context())
	if err != nil {
		s.logger.Error(r.Context(), "list products", "error", err.Error())
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	resp := make([]productResponse, 0, len(list))
	for _, p := range list {
		resp = append(resp, toProductResponse(p))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	p, err := s.products.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		s.logger.Error(r.Context(), "get product", "id", id, "error", err.Error())
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, toProductResponse(p))
}

func (s *Server) handleGetProductBySlug(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]

	p, err := s.products.GetBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		s.logger.Error(r.Context(), "get product by slug", "slug", slug, "error", err.Error())
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, toProductResponse(p))
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := s.products.Delete(r.Context(), id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		s.logger.Error(r.Context(), "delete product", "id", id, "error", err.Error())
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	list, err := s.categories.List(r.Context())
	if err != nil {
		s.logger.Error(r.Context(), "list categories", "error", err.Error())
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

// focusRecorder captures the field the workflow wants the form to focus.
type focusRecorder struct {
	field string
}

func (f *focusRecorder) FocusField(name string) { f.field = name }

// handleSubmit runs the product submission workflow from a multipart form.
//
// Text parts: id (optional), uri_id, name, description, keywords, status,
// category, size, and repeated "images" parts holding the persisted refs of
// the session image list. File parts named "files" are the newly selected
// images; they are appended after the persisted refs in submission order.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxSubmitMemory); err != nil {
		http.Error(w, "malformed multipart form", http.StatusBadRequest)
		return
	}

	var prev *models.Product
	if id := r.FormValue("id"); id != "" {
		p, err := s.products.GetByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			s.logger.Error(r.Context(), "load product", "id", id, "error", err.Error())
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		prev = p
	}

	images, err := s.collectImages(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	cats, err := s.categories.List(r.Context())
	if err != nil {
		s.logger.Error(r.Context(), "list categories", "error", err.Error())
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	focus := &focusRecorder{}
	req := catalog.Request{
		Previous: prev,
		Fields: catalog.Fields{
			URIID:       r.FormValue("uri_id"),
			Name:        r.FormValue("name"),
			Description: r.FormValue("description"),
			Keywords:    r.FormValue("keywords"),
			Status:      r.FormValue("status"),
			Category:    r.FormValue("category"),
			Size:        r.FormValue("size"),
		},
		Images:      images,
		Categories:  cats,
		Credentials: auth.TokenSource{Token: bearerToken(r), Secret: s.secret},
		Focus:       focus,
		OnProgress: func(pct int) {
			s.logger.Debug(r.Context(), "upload progress", "percent", pct)
		},
	}

	out, err := s.submitter.Submit(r.Context(), req)
	switch {
	case errors.Is(err, common.ErrSlugConflict):
		s.writeJSON(w, http.StatusConflict, submitResponse{Focus: focus.field, Error: err.Error()})
	case errors.Is(err, common.ErrSessionInvalid):
		resp := submitResponse{Error: "session invalid"}
		if out != nil {
			resp.ID = out.ProductID
		}
		s.writeJSON(w, http.StatusUnauthorized, resp)
	case err != nil:
		s.writeJSON(w, http.StatusInternalServerError, submitResponse{Error: err.Error()})
	default:
		s.writeJSON(w, http.StatusOK, submitResponse{
			ID:      out.ProductID,
			Images:  out.ImageOK,
			Partial: out.Partial,
		})
	}
}

func (s *Server) collectImages(r *http.Request) ([]models.ImageRef, error) {
	var images []models.ImageRef

	for _, ref := range r.MultipartForm.Value["images"] {
		images = append(images, models.PersistedRef(ref))
	}

	for _, hdr := range r.MultipartForm.File["files"] {
		f, err := hdr.Open()
		if err != nil {
			return nil, errors.New("unreadable file part " + hdr.Filename)
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, errors.New("unreadable file part " + hdr.Filename)
		}
		images = append(images, models.NewPendingFile(hdr.Filename, data))
	}

	return images, nil
}
