// SPDX-License-Identifier: MPL-2.0

package images

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"

	"github.com/dockerino/dockerino/internal/engineapi"
	"github.com/dockerino/dockerino/internal/query"
	"github.com/dockerino/dockerino/internal/testutil"
)

const integrationImage = "alpine:3.20"

// engineSocket returns the Unix socket testcontainers resolved for the local
// engine, or "" when none is usable.
func engineSocket(ctx context.Context) (socket string) {
	defer func() {
		if r := recover(); r != nil {
			socket = ""
		}
	}()

	provider, err := testcontainers.ProviderDocker.GetProvider()
	if err != nil {
		return ""
	}
	defer provider.Close()

	host := testcontainers.MustExtractDockerHost(ctx)
	path, ok := strings.CutPrefix(host, "unix://")
	if !ok {
		return ""
	}
	return path
}

// TestService_Integration drives the image endpoints against a real engine.
// A container is started first so the test image is guaranteed to be present.
func TestService_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(t.Context(), 3*time.Minute)
	defer cancel()

	socket := engineSocket(ctx)
	if socket == "" {
		t.Skip("skipping image integration tests: no engine reachable over a Unix socket")
	}

	sem := testutil.EngineSemaphore()
	sem <- struct{}{}
	defer func() { <-sem }()

	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image: integrationImage,
			Cmd:   []string{"sleep", "300"},
		},
		Started: true,
	})
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Fatalf("failed to start %s: %v", integrationImage, err)
	}

	client := engineapi.NewClient(socket)
	defer client.Close()
	svc := NewService(client)

	t.Run("List", func(t *testing.T) {
		filters := query.NewListImagesFilterBuilder().Reference(integrationImage).Build()
		got, err := svc.List(ctx, ListOptions{Filters: filters})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(got) == 0 {
			t.Fatalf("List() returned no image for %s", integrationImage)
		}
		if err := got[0].ID.Validate(); err != nil {
			t.Errorf("image ID %q is not a digest: %v", got[0].ID, err)
		}
	})

	t.Run("InspectAndHistory", func(t *testing.T) {
		details, err := svc.Inspect(ctx, integrationImage)
		if err != nil {
			t.Fatalf("Inspect() error = %v", err)
		}
		if details.Os != "linux" {
			t.Errorf("Os = %q, want linux", details.Os)
		}

		history, err := svc.History(ctx, integrationImage)
		if err != nil {
			t.Fatalf("History() error = %v", err)
		}
		if len(history) == 0 {
			t.Error("History() returned no layers")
		}
	})

	t.Run("TagAndDelete", func(t *testing.T) {
		repo := "dockerino-it/alpine"
		tag := fmt.Sprintf("t%d", time.Now().UnixNano())

		if err := svc.Tag(ctx, integrationImage, repo, tag); err != nil {
			t.Fatalf("Tag() error = %v", err)
		}

		deleted, err := svc.Delete(ctx, repo+":"+tag, DeleteOptions{})
		if err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if len(deleted) == 0 || deleted[0].Untagged == "" {
			t.Errorf("Delete() = %+v, want an untag record", deleted)
		}

		_, err = svc.Delete(ctx, repo+":"+tag, DeleteOptions{})
		if !engineapi.IsNotFound(err) {
			t.Errorf("second Delete() error = %v, want 404", err)
		}
	})
}
