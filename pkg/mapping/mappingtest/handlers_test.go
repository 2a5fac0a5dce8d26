package mappingtest_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/jhwagner/mapping-fixtures/pkg/mapping"
	"github.com/jhwagner/mapping-fixtures/pkg/mapping/mappingtest"
)

func TestServerRejectsInvalidPayloads(t *testing.T) {
	tests := []struct {
		name    string
		send    func(ctx context.Context, c *mapping.Client, containerID, nodeID int64) error
		wantMsg string
	}{
		{
			name: "container without admin gate URL",
			send: func(ctx context.Context, c *mapping.Client, _, _ int64) error {
				_, err := c.CreateContainer(ctx, &mapping.Container{})
				return err
			},
			wantMsg: "container admin gate URL is required",
		},
		{
			name: "node without name",
			send: func(ctx context.Context, c *mapping.Client, containerID, _ int64) error {
				_, err := c.CreateNode(ctx, &mapping.Node{ContainerID: containerID})
				return err
			},
			wantMsg: "node name is required",
		},
		{
			name: "node in unknown container",
			send: func(ctx context.Context, c *mapping.Client, _, _ int64) error {
				_, err := c.CreateNode(ctx, &mapping.Node{Name: "n", ContainerID: 999})
				return err
			},
			wantMsg: "node container does not exist",
		},
		{
			name: "node under unknown parent",
			send: func(ctx context.Context, c *mapping.Client, containerID, _ int64) error {
				_, err := c.CreateNode(ctx, &mapping.Node{Name: "n", ContainerID: containerID, ParentNodeID: 999})
				return err
			},
			wantMsg: "node parent does not exist",
		},
		{
			name: "update of unknown node",
			send: func(ctx context.Context, c *mapping.Client, containerID, _ int64) error {
				_, err := c.CreateNode(ctx, &mapping.Node{ID: 999, Name: "n", ContainerID: containerID})
				return err
			},
			wantMsg: "unknown node id",
		},
		{
			name: "unknown twin node",
			send: func(ctx context.Context, c *mapping.Client, containerID, nodeID int64) error {
				_, err := c.CreateNode(ctx, &mapping.Node{ID: nodeID, Name: "root", ContainerID: containerID, TwinNodeIDs: []int64{999}})
				return err
			},
			wantMsg: "twin node does not exist",
		},
		{
			name: "endpoint without URL",
			send: func(ctx context.Context, c *mapping.Client, _, nodeID int64) error {
				_, err := c.CreateEndpoint(ctx, &mapping.Endpoint{ParentNodeID: nodeID})
				return err
			},
			wantMsg: "endpoint URL is required",
		},
		{
			name: "endpoint under unknown node",
			send: func(ctx context.Context, c *mapping.Client, _, _ int64) error {
				_, err := c.CreateEndpoint(ctx, &mapping.Endpoint{URL: "tcp://x", ParentNodeID: 999})
				return err
			},
			wantMsg: "endpoint parent node does not exist",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := mappingtest.NewServer(t)
			client, err := mapping.NewClient(mapping.Options{
				BaseURL:  srv.URL,
				Username: mappingtest.Username,
				Password: mappingtest.Password,
			})
			if err != nil {
				t.Fatal(err)
			}
			ctx := context.Background()

			containerID, err := client.CreateContainer(ctx, &mapping.Container{AdminGateURL: "http://host:8080"})
			if err != nil {
				t.Fatalf("CreateContainer() error: %v", err)
			}
			nodeID, err := client.CreateNode(ctx, &mapping.Node{Name: "root", ContainerID: containerID})
			if err != nil {
				t.Fatalf("CreateNode() error: %v", err)
			}
			before := srv.Counts()

			err = tt.send(ctx, client, containerID, nodeID)
			var reqErr *mapping.RequestError
			if !errors.As(err, &reqErr) {
				t.Fatalf("expected a RequestError, got %v", err)
			}
			if reqErr.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", reqErr.StatusCode, http.StatusBadRequest)
			}
			if !strings.Contains(reqErr.Body, tt.wantMsg) {
				t.Errorf("body = %q, want it to contain %q", reqErr.Body, tt.wantMsg)
			}
			if got := srv.Counts(); got != before {
				t.Errorf("rejected request changed the store: %+v -> %+v", before, got)
			}
		})
	}
}
