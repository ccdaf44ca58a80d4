package postgres

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const postgresImage = "postgres:16-alpine"

// testDSN is CAMWATCH_TEST_POSTGRES_DSN, or the DSN of a container started
// for this package. Empty means no database is reachable.
var testDSN string

func TestMain(m *testing.M) {
	testDSN = os.Getenv("CAMWATCH_TEST_POSTGRES_DSN")

	var container testcontainers.Container
	if testDSN == "" && dockerAvailable() {
		var err error
		container, testDSN, err = startPostgres(context.Background())
		if err != nil {
			log.Printf("postgres container unavailable: %v", err)
		}
	}

	code := m.Run()

	if container != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := container.Terminate(ctx); err != nil {
			log.Printf("failed to terminate postgres container: %v", err)
		}
		cancel()
	}
	os.Exit(code)
}

func dockerAvailable() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return exec.CommandContext(ctx, "docker", "info").Run() == nil
}

func startPostgres(ctx context.Context) (testcontainers.Container, string, error) {
	req := testcontainers.ContainerRequest{
		Image:        postgresImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "camwatch",
			"POSTGRES_PASSWORD": "camwatch",
			"POSTGRES_DB":       "camwatch",
		},
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort("5432/tcp"),
		).WithStartupTimeout(2 * time.Minute),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, "", fmt.Errorf("start container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, "", fmt.Errorf("get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, "", fmt.Errorf("get mapped port: %w", err)
	}

	dsn := fmt.Sprintf("host=%s port=%s user=camwatch password=camwatch dbname=camwatch sslmode=disable",
		host, port.Port())
	return container, dsn, nil
}
