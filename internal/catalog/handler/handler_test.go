package handler_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"resmatch/internal/catalog/handler"
	"resmatch/internal/catalog/models"
	"resmatch/internal/catalog/store"
)

func newTestServer(t *testing.T, s store.Store) *httptest.Server {
	t.Helper()

	h := handler.New(s, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	r := chi.NewRouter()
	h.Register(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func seededStore() *store.InMemory {
	s := store.NewInMemory()
	s.SeedDisciplines(
		models.Discipline{DisciplineID: 5, Discipline: "Internal Medicine"},
		models.Discipline{DisciplineID: 9, Discipline: "Family Medicine"},
	)
	s.SeedProgram(models.ProgramDetail{
		Program: models.Program{
			ProgramSummary: models.ProgramSummary{
				ProgramStreamID:   100,
				ProgramName:       "Family Medicine - Toronto",
				ProgramStreamName: "English Stream",
				DisciplineID:      9,
				DisciplineName:    "Family Medicine",
				SchoolID:          3,
				SchoolName:        "University of Toronto",
				ProgramSite:       "Toronto",
				ProgramURL:        "https://example.org/program/1503/100",
			},
			MatchIterationID: 1503,
		},
		Description: &models.DescriptionHeader{
			ProgramDescriptionID: 9,
			SourceURL:            "https://example.org/program/1503/100",
			MatchIterationName:   "R-1 Main Residency Match",
			SectionCount:         1,
		},
		Sections: []models.Section{
			{SectionName: "summary", SectionText: "Overview text"},
		},
	})
	s.SeedProgram(models.ProgramDetail{
		Program: models.Program{
			ProgramSummary: models.ProgramSummary{
				ProgramStreamID:   101,
				ProgramName:       "Internal Medicine - Calgary",
				ProgramStreamName: "English Stream",
				DisciplineID:      5,
				DisciplineName:    "Internal Medicine",
				SchoolID:          7,
				SchoolName:        "University of Calgary",
			},
			MatchIterationID: 1503,
		},
	})
	return s
}

func get(t *testing.T, srv *httptest.Server, path string) (*http.Response, []byte) {
	t.Helper()

	resp, err := http.Get(srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, body
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, store.NewInMemory())

	resp, body := get(t, srv, "/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var got map[string]string
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["status"] != "ok" {
		t.Fatalf("status field = %q, want ok", got["status"])
	}
}

func TestListDisciplines(t *testing.T) {
	srv := newTestServer(t, seededStore())

	resp, body := get(t, srv, "/disciplines")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var got []models.Discipline
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d disciplines, want 2", len(got))
	}
}

func TestListPrograms(t *testing.T) {
	srv := newTestServer(t, seededStore())

	tests := []struct {
		name      string
		path      string
		wantCode  int
		wantCount int
	}{
		{name: "all", path: "/programs", wantCode: 200, wantCount: 2},
		{name: "by discipline", path: "/programs?discipline_id=9", wantCode: 200, wantCount: 1},
		{name: "by school", path: "/programs?school_id=7", wantCode: 200, wantCount: 1},
		{name: "by name substring", path: "/programs?q=calgary", wantCode: 200, wantCount: 1},
		{name: "limit applies", path: "/programs?limit=1", wantCode: 200, wantCount: 1},
		{name: "offset past end", path: "/programs?offset=5", wantCode: 200, wantCount: 0},
		{name: "bad discipline id", path: "/programs?discipline_id=abc", wantCode: 400},
		{name: "limit too large", path: "/programs?limit=201", wantCode: 400},
		{name: "limit zero", path: "/programs?limit=0", wantCode: 400},
		{name: "negative offset", path: "/programs?offset=-1", wantCode: 400},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := get(t, srv, tc.path)
			if resp.StatusCode != tc.wantCode {
				t.Fatalf("status = %d, want %d (body %s)", resp.StatusCode, tc.wantCode, body)
			}
			if tc.wantCode != http.StatusOK {
				return
			}
			var got []models.ProgramSummary
			if err := json.Unmarshal(body, &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if len(got) != tc.wantCount {
				t.Fatalf("got %d programs, want %d", len(got), tc.wantCount)
			}
		})
	}
}

func TestGetProgram(t *testing.T) {
	srv := newTestServer(t, seededStore())

	resp, body := get(t, srv, "/programs/100")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var got models.ProgramDetail
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Program.ProgramStreamID != 100 {
		t.Fatalf("program_stream_id = %d, want 100", got.Program.ProgramStreamID)
	}
	if got.Description == nil || got.Description.ProgramDescriptionID != 9 {
		t.Fatalf("description = %+v, want id 9", got.Description)
	}
	if len(got.Sections) != 1 || got.Sections[0].SectionName != "summary" {
		t.Fatalf("sections = %+v, want one summary section", got.Sections)
	}
}

func TestGetProgramNotFound(t *testing.T) {
	srv := newTestServer(t, seededStore())

	resp, body := get(t, srv, "/programs/999")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 (body %s)", resp.StatusCode, body)
	}

	var got map[string]string
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["error"] != "not_found" {
		t.Fatalf("error = %q, want not_found", got["error"])
	}
}

func TestGetProgramBadID(t *testing.T) {
	srv := newTestServer(t, seededStore())

	resp, _ := get(t, srv, "/programs/abc")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestSearch(t *testing.T) {
	srv := newTestServer(t, seededStore())

	resp, body := get(t, srv, "/search?query=overview")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", resp.StatusCode, body)
	}

	var got []models.SearchHit
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d hits, want 1", len(got))
	}
	if got[0].ProgramStreamID != 100 || got[0].SectionName != "summary" {
		t.Fatalf("hit = %+v, want stream 100 summary section", got[0])
	}
}

func TestSearchValidation(t *testing.T) {
	srv := newTestServer(t, seededStore())

	tests := []struct {
		name string
		path string
	}{
		{name: "missing query", path: "/search"},
		{name: "query too short", path: "/search?query=a"},
		{name: "limit too large", path: "/search?query=overview&limit=101"},
		{name: "bad limit", path: "/search?query=overview&limit=abc"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := get(t, srv, tc.path)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (body %s)", resp.StatusCode, body)
			}
		})
	}
}
