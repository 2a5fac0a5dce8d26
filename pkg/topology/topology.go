package topology

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jhwagner/mapping-fixtures/pkg/config"
	"github.com/jhwagner/mapping-fixtures/pkg/fixture"
)

const (
	metadataDir      = ".mapping-fixtures/runs"
	metadataFilename = "metadata.json"
)

// ErrNotFound is returned when no run with the given name was recorded
var ErrNotFound = errors.New("run not found")

// LoadFunc loads fixtures into the mapping service and reports what was created
type LoadFunc func(ctx context.Context) ([]*fixture.Result, error)

// Topology is the record of a run: the fixtures it loaded and the ids the
// mapping service assigned
type Topology struct {
	metadata *Metadata
}

// Create runs load and records its results under name.
//
// When load fails after creating entities, the partial results are recorded
// with a failed status and Create returns the topology along with the load
// error. Nothing is recorded when load fails before creating anything.
func Create(ctx context.Context, name string, session *config.Session, load LoadFunc) (t *Topology, err error) {
	if name == "" {
		return nil, fmt.Errorf("run name is required")
	}

	topologyDir, err := getTopologyDir(name)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(topologyDir); err == nil {
		return nil, fmt.Errorf("run '%s' already exists", name)
	}

	if err := os.MkdirAll(topologyDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}

	// Remove the run directory on error, unless a failed run was recorded
	recorded := false
	defer func() {
		if err != nil && !recorded {
			if rmErr := os.RemoveAll(topologyDir); rmErr != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to remove run directory: %v\n", rmErr)
			}
		}
	}()

	t = &Topology{
		metadata: &Metadata{
			Name:   name,
			RunID:  uuid.NewString(),
			Status: StatusComplete,
			Service: Service{
				URL:      session.URL,
				Prefix:   session.Prefix,
				Username: session.Username,
			},
			CreatedAt: time.Now(),
		},
	}

	results, loadErr := load(ctx)
	t.metadata.Fixtures = results

	if loadErr != nil {
		if len(results) == 0 {
			return nil, loadErr
		}
		t.metadata.Status = StatusFailed
		t.metadata.Error = loadErr.Error()
		if err := t.save(); err != nil {
			return nil, fmt.Errorf("%w (failed to save metadata: %v)", loadErr, err)
		}
		recorded = true
		return t, loadErr
	}

	if err := t.save(); err != nil {
		return nil, fmt.Errorf("failed to save metadata: %w", err)
	}

	return t, nil
}

// Load loads a recorded run from disk
func Load(name string) (*Topology, error) {
	topologyDir, err := getTopologyDir(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(topologyDir, metadataFilename))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var metadata Metadata
	if err := json.Unmarshal(data, &metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}

	return &Topology{
		metadata: &metadata,
	}, nil
}

// List lists all recorded runs, newest first
func List() ([]*Topology, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	entries, err := os.ReadDir(filepath.Join(home, metadataDir))
	if err != nil {
		if os.IsNotExist(err) {
			return []*Topology{}, nil
		}
		return nil, fmt.Errorf("failed to read runs directory: %w", err)
	}

	var topologies []*Topology
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		topo, err := Load(entry.Name())
		if err != nil {
			// Skip entries that fail to load
			continue
		}

		topologies = append(topologies, topo)
	}

	sort.Slice(topologies, func(i, j int) bool {
		return topologies[i].metadata.CreatedAt.After(topologies[j].metadata.CreatedAt)
	})

	return topologies, nil
}

// Forget removes the local record of the run. The mapping service has no
// delete operations, so the entities themselves stay where they are.
func (t *Topology) Forget() error {
	topologyDir, err := getTopologyDir(t.metadata.Name)
	if err != nil {
		return err
	}

	if err := os.RemoveAll(topologyDir); err != nil {
		return fmt.Errorf("failed to remove run directory: %w", err)
	}

	return nil
}

// GetMetadata returns the run metadata
func (t *Topology) GetMetadata() *Metadata {
	return t.metadata
}

// Count returns how many entities of a kind the run touched across fixtures
func (t *Topology) Count(kind fixture.Kind) int {
	n := 0
	for _, res := range t.metadata.Fixtures {
		n += res.Count(kind)
	}
	return n
}

func (t *Topology) save() error {
	topologyDir, err := getTopologyDir(t.metadata.Name)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(t.metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	if err := os.WriteFile(filepath.Join(topologyDir, metadataFilename), data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	return nil
}

// getTopologyDir returns the directory path for a run
func getTopologyDir(name string) (string, error) {
	if name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid run name '%s'", name)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, metadataDir, name), nil
}
