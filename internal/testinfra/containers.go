//go:build integration

// Package testinfra levanta dependencias reales en Docker para los tests de integración.
package testinfra

import (
	"context"
	"fmt"
	"os/exec"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	postgresImage = "postgres:16-alpine"
	postgresPort  = "5432/tcp"
	redisImage    = "redis:7-alpine"
	redisPort     = "6379/tcp"
)

// SkipIfNoDocker saltea el test si no hay daemon de Docker.
func SkipIfNoDocker(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if exec.CommandContext(ctx, "docker", "info").Run() != nil {
		t.Skip("docker not available")
	}
}

// StartPostgres devuelve el DSN de un Postgres efímero.
func StartPostgres(t *testing.T) string {
	t.Helper()
	SkipIfNoDocker(t)
	ctx := context.Background()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        postgresImage,
			ExposedPorts: []string{postgresPort},
			Env: map[string]string{
				"POSTGRES_USER":     "petrec",
				"POSTGRES_PASSWORD": "petrec",
				"POSTGRES_DB":       "petrec",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() { terminate(t, c) })

	host := hostOf(t, c)
	mapped, err := c.MappedPort(ctx, postgresPort)
	if err != nil {
		t.Fatalf("mapped port: %v", err)
	}
	return fmt.Sprintf("postgres://petrec:petrec@%s:%s/petrec?sslmode=disable", host, mapped.Port())
}

// StartRedis devuelve host:port de un Redis efímero.
func StartRedis(t *testing.T) string {
	t.Helper()
	SkipIfNoDocker(t)
	ctx := context.Background()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        redisImage,
			ExposedPorts: []string{redisPort},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start redis: %v", err)
	}
	t.Cleanup(func() { terminate(t, c) })

	host := hostOf(t, c)
	mapped, err := c.MappedPort(ctx, redisPort)
	if err != nil {
		t.Fatalf("mapped port: %v", err)
	}
	return host + ":" + mapped.Port()
}

func hostOf(t *testing.T, c testcontainers.Container) string {
	t.Helper()
	host, err := c.Host(context.Background())
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	return host
}

func terminate(t *testing.T, c testcontainers.Container) {
	if err := c.Terminate(context.Background()); err != nil {
		t.Logf("terminate container: %v", err)
	}
}
