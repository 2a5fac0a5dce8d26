package topology

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jhwagner/mapping-fixtures/pkg/config"
	"github.com/jhwagner/mapping-fixtures/pkg/fixture"
	"github.com/jhwagner/mapping-fixtures/pkg/mapping"
	"github.com/jhwagner/mapping-fixtures/pkg/mapping/mappingtest"
)

func testSession() *config.Session {
	return &config.Session{URL: "http://localhost:6969", Prefix: "rest/mapping", Username: "yoda", Password: "secure123"}
}

func staticLoad(results ...*fixture.Result) LoadFunc {
	return func(ctx context.Context) ([]*fixture.Result, error) {
		return results, nil
	}
}

func TestCreateAndLoad(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	res := &fixture.Result{
		Fixture: "broker",
		Entities: []fixture.Entity{
			{Kind: fixture.KindContainer, Name: "http://localhost:15672", ID: 1},
			{Kind: fixture.KindNode, Name: "/ (vhost)", ID: 2},
		},
	}
	created, err := Create(context.Background(), "lab", testSession(), staticLoad(res))
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if created.GetMetadata().RunID == "" {
		t.Error("expected a run id")
	}

	data, err := os.ReadFile(filepath.Join(home, metadataDir, "lab", metadataFilename))
	if err != nil {
		t.Fatalf("metadata not written: %v", err)
	}
	if strings.Contains(string(data), "secure123") {
		t.Error("metadata must not contain the password")
	}

	loaded, err := Load("lab")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	md := loaded.GetMetadata()
	if md.RunID != created.GetMetadata().RunID {
		t.Errorf("run id = %s, want %s", md.RunID, created.GetMetadata().RunID)
	}
	if md.Service.URL != "http://localhost:6969" || md.Service.Username != "yoda" {
		t.Errorf("unexpected service %+v", md.Service)
	}
	if md.Status != StatusComplete {
		t.Errorf("status = %q, want %q", md.Status, StatusComplete)
	}
	if got := loaded.Count(fixture.KindNode); got != 1 {
		t.Errorf("Count(node) = %d, want 1", got)
	}

	if _, err := Create(context.Background(), "lab", testSession(), staticLoad()); err == nil {
		t.Error("expected error creating a run that already exists")
	}
}

func TestCreateFailure(t *testing.T) {
	partial := &fixture.Result{
		Fixture: "broker",
		Partial: true,
		Entities: []fixture.Entity{
			{Kind: fixture.KindContainer, Name: "http://localhost:15672", ID: 1},
			{Kind: fixture.KindNode, Name: "/ (vhost)", ID: 2},
		},
	}

	tests := []struct {
		name       string
		results    []*fixture.Result
		wantRecord bool
	}{
		{
			name:       "nothing created",
			results:    nil,
			wantRecord: false,
		},
		{
			name:       "partial results",
			results:    []*fixture.Result{partial},
			wantRecord: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			home := t.TempDir()
			t.Setenv("HOME", home)

			loadErr := errors.New("service unavailable")
			topo, err := Create(context.Background(), "broken", testSession(), func(ctx context.Context) ([]*fixture.Result, error) {
				return tt.results, loadErr
			})
			if !errors.Is(err, loadErr) {
				t.Fatalf("Create() error = %v, want %v", err, loadErr)
			}

			if !tt.wantRecord {
				if topo != nil {
					t.Error("expected no topology")
				}
				if _, err := os.Stat(filepath.Join(home, metadataDir, "broken")); !os.IsNotExist(err) {
					t.Errorf("run directory should be removed, stat error: %v", err)
				}
				if _, err := Load("broken"); !errors.Is(err, ErrNotFound) {
					t.Errorf("Load() error = %v, want ErrNotFound", err)
				}
				return
			}

			if topo == nil {
				t.Fatal("expected the failed run to be returned")
			}
			loaded, err := Load("broken")
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			md := loaded.GetMetadata()
			if md.Status != StatusFailed {
				t.Errorf("status = %q, want %q", md.Status, StatusFailed)
			}
			if md.Error != "service unavailable" {
				t.Errorf("error = %q, want %q", md.Error, "service unavailable")
			}
			if got := loaded.Count(fixture.KindNode); got != 1 {
				t.Errorf("Count(node) = %d, want 1", got)
			}
			if !md.Fixtures[0].Partial {
				t.Error("fixture result should be marked partial")
			}
		})
	}
}

func TestCreateRecordsInterruptedLoad(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	srv := mappingtest.NewServer(t)
	srv.FailOn("domain/endpoints", http.StatusInternalServerError)
	client, err := mapping.NewClient(mapping.Options{
		BaseURL:  srv.URL,
		Username: mappingtest.Username,
		Password: mappingtest.Password,
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = Create(context.Background(), "interrupted", testSession(), func(ctx context.Context) ([]*fixture.Result, error) {
		return fixture.NewRun(client).Load(ctx, []config.Fixture{fixture.BrokerFixture()})
	})
	if err == nil {
		t.Fatal("expected the endpoint failure to surface")
	}

	loaded, err := Load("interrupted")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded.GetMetadata().Status != StatusFailed {
		t.Errorf("status = %q, want %q", loaded.GetMetadata().Status, StatusFailed)
	}
	vhostID, ok := loaded.GetMetadata().Fixtures[0].ID(fixture.KindNode, "/ (vhost)")
	if !ok {
		t.Fatal("vhost not recorded")
	}
	if n, _ := srv.NodeByName("/ (vhost)"); n.ID != vhostID {
		t.Errorf("recorded id %d, service id %d", vhostID, n.ID)
	}
}

func TestCreateLoadsFixtures(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	srv := mappingtest.NewServer(t)
	client, err := mapping.NewClient(mapping.Options{
		BaseURL:  srv.URL,
		Username: mappingtest.Username,
		Password: mappingtest.Password,
	})
	if err != nil {
		t.Fatal(err)
	}

	session := testSession()
	session.URL = srv.URL
	topo, err := Create(context.Background(), "broker-run", session, func(ctx context.Context) ([]*fixture.Result, error) {
		return fixture.NewRun(client).Load(ctx, []config.Fixture{fixture.BrokerFixture()})
	})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	loaded, err := Load("broker-run")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got, want := loaded.Count(fixture.KindEndpoint), topo.Count(fixture.KindEndpoint); got != want || got != 2 {
		t.Errorf("endpoints recorded = %d, want 2", got)
	}
	queueID, ok := loaded.GetMetadata().Fixtures[0].ID(fixture.KindNode, "queue A1")
	if !ok {
		t.Fatal("queue A1 not recorded")
	}
	if n, _ := srv.NodeByName("queue A1"); n.ID != queueID {
		t.Errorf("recorded id %d, service id %d", queueID, n.ID)
	}
}

func TestListAndForget(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	runs, err := List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(runs) != 0 {
		t.Fatalf("expected no runs, got %d", len(runs))
	}

	for _, name := range []string{"first", "second"} {
		if _, err := Create(context.Background(), name, testSession(), staticLoad()); err != nil {
			t.Fatalf("Create(%s) error: %v", name, err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	runs, err = List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].GetMetadata().Name != "second" {
		t.Errorf("expected newest run first, got %s", runs[0].GetMetadata().Name)
	}

	if err := runs[0].Forget(); err != nil {
		t.Fatalf("Forget() error: %v", err)
	}
	if _, err := Load("second"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() after Forget error = %v, want ErrNotFound", err)
	}
	runs, _ = List()
	if len(runs) != 1 {
		t.Errorf("expected 1 run after Forget, got %d", len(runs))
	}
}

func TestInvalidRunName(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	for _, name := range []string{"", "..", "a/b"} {
		if _, err := Create(context.Background(), name, testSession(), staticLoad()); err == nil {
			t.Errorf("Create(%q) expected error", name)
		}
	}
}
