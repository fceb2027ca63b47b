package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/krishisahai/sahai/internal/store"
	"github.com/krishisahai/sahai/internal/store/storetest"
)

// TestPostgresStore_Container runs the compliance suite against a throwaway
// Postgres container. Opt-in because it needs a Docker daemon.
func TestPostgresStore_Container(t *testing.T) {
	if os.Getenv("KRISHI_TEST_WITH_DOCKER") == "" {
		t.Skip("KRISHI_TEST_WITH_DOCKER not set; skipping containerized postgres test")
	}
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "sahai",
			"POSTGRES_PASSWORD": "sahai",
			"POSTGRES_DB":       "sahai_test",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp"),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://sahai:sahai@%s:%s/sahai_test?sslmode=disable", host, port.Port())

	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := New(dsn, nil)
		if err != nil {
			t.Fatalf("postgres open: %v", err)
		}
		return s
	})
}
