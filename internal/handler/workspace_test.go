package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"inkwell/internal/domain"
	"inkwell/internal/domain/models"
	"inkwell/internal/httputil"
)

type stubWorkspaces struct {
	rows map[string]*models.Workspace
}

func (s *stubWorkspaces) Create(_ context.Context, w *models.Workspace) error {
	if w.ID == "" {
		w.ID = "11111111-1111-4111-8111-111111111111"
	}
	s.rows[w.ID] = w
	return nil
}

func (s *stubWorkspaces) GetByID(_ context.Context, id string) (*models.Workspace, error) {
	if err := domain.ValidateID(id); err != nil {
		return nil, err
	}
	w, ok := s.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return w, nil
}

func (s *stubWorkspaces) Update(_ context.Context, id string, patch *models.WorkspaceUpdate) error {
	w, ok := s.rows[id]
	if !ok {
		return domain.ErrNotFound
	}
	if patch.Title != nil {
		w.Title = *patch.Title
	}
	return nil
}

func (s *stubWorkspaces) Delete(_ context.Context, id string) error {
	if _, ok := s.rows[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.rows, id)
	return nil
}

func (s *stubWorkspaces) ListPrivate(_ context.Context, userID string) ([]models.Workspace, error) {
	var out []models.Workspace
	for _, w := range s.rows {
		if w.WorkspaceOwner == userID {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (s *stubWorkspaces) ListCollaborating(context.Context, string) ([]models.Workspace, error) {
	return nil, nil
}

func testMux(repo *stubWorkspaces) *http.ServeMux {
	h := NewWorkspaceHandler(repo, slog.New(slog.NewTextHandler(&strings.Builder{}, nil)))
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/workspaces", h.CreateWorkspace)
	mux.HandleFunc("GET /api/workspaces/{id}", h.GetWorkspace)
	mux.HandleFunc("PATCH /api/workspaces/{id}", h.UpdateWorkspace)
	mux.HandleFunc("DELETE /api/workspaces/{id}", h.DeleteWorkspace)
	return mux
}

func TestCreateWorkspace(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{
			name:       "valid",
			body:       `{"title": "Notes", "icon_id": "📓"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "missing title",
			body:       `{"icon_id": "📓"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed json",
			body:       `{"title":`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := testMux(&stubWorkspaces{rows: map[string]*models.Workspace{}})

			req := httptest.NewRequest(http.MethodPost, "/api/workspaces", strings.NewReader(tt.body))
			req = httputil.WithUserID(req, "22222222-2222-4222-8222-222222222222")
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body)
			}
			if tt.wantStatus == http.StatusCreated {
				var got models.Workspace
				if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
					t.Fatalf("decode response: %v", err)
				}
				if got.WorkspaceOwner != "22222222-2222-4222-8222-222222222222" {
					t.Errorf("owner = %q, want the caller", got.WorkspaceOwner)
				}
			}
		})
	}
}

func TestGetWorkspace_ErrorMapping(t *testing.T) {
	repo := &stubWorkspaces{rows: map[string]*models.Workspace{
		"33333333-3333-4333-8333-333333333333": {ID: "33333333-3333-4333-8333-333333333333", Title: "Notes"},
	}}
	mux := testMux(repo)

	tests := []struct {
		name       string
		id         string
		wantStatus int
	}{
		{"found", "33333333-3333-4333-8333-333333333333", http.StatusOK},
		{"missing row", "44444444-4444-4444-8444-444444444444", http.StatusNotFound},
		{"malformed id", "not-a-uuid", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/workspaces/"+tt.id, nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK && rec.Header().Get("Content-Type") != "application/problem+json" {
				t.Errorf("error content type = %q, want problem+json", rec.Header().Get("Content-Type"))
			}
		})
	}
}

func TestDeleteWorkspace(t *testing.T) {
	repo := &stubWorkspaces{rows: map[string]*models.Workspace{
		"33333333-3333-4333-8333-333333333333": {ID: "33333333-3333-4333-8333-333333333333"},
	}}
	mux := testMux(repo)

	req := httptest.NewRequest(http.MethodDelete, "/api/workspaces/33333333-3333-4333-8333-333333333333", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if len(repo.rows) != 0 {
		t.Error("row survived delete")
	}
}
