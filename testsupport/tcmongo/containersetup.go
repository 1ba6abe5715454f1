//nolint:errcheck // testsetup
package tcmongo

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// SetupTestMongo returns the uri of a mongodb usable for tests.
// TESTMONGO_URL takes precedence over starting a container.
func SetupTestMongo() string {
	if uri := os.Getenv("TESTMONGO_URL"); uri != "" {
		return uri
	}
	ctx := context.Background()
	port, err := nat.NewPort("tcp", "27017")
	if err != nil {
		log.Fatal(err)
	}
	container, err := testcontainers.GenericContainer(ctx,
		testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "mongo:7",
				Name:         "f1-telemetry-service-mongo-test",
				ExposedPorts: []string{port.Port()},
				WaitingFor: wait.ForLog("Waiting for connections").
					WithStartupTimeout(30 * time.Second),
			},
			Started: true,
			Reuse:   true,
		})
	if err != nil {
		log.Fatal(err)
	}
	containerPort, _ := container.MappedPort(ctx, port)
	host, _ := container.Host(ctx)
	return fmt.Sprintf("mongodb://%s:%s", host, containerPort.Port())
}
