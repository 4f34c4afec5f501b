package docker

import (
	"context"
	"fmt"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
)

const composeProjectLabel = "com.docker.compose.project"

// Client defines the subset of Docker SDK methods used for verification.
// This interface enables mocking the Docker client in tests.
type Client interface {
	ContainerList(ctx context.Context, options container.ListOptions) ([]container.Summary, error)
}

// NewClient creates a Docker SDK client from the environment.
func NewClient() (*client.Client, error) {
	return client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
}

// ContainerStatus is the observed state of one stack container.
type ContainerStatus struct {
	Name    string
	State   string
	Running bool
}

// Verifier checks the deployed stack's containers through the engine API.
type Verifier struct {
	client Client
}

// NewVerifier creates a new Verifier.
func NewVerifier(c Client) *Verifier {
	return &Verifier{client: c}
}

// Containers returns the status of every container in the compose project.
// An empty result means the stack was never deployed.
func (v *Verifier) Containers(ctx context.Context, project string) ([]ContainerStatus, error) {
	labelFilter := filters.NewArgs()
	labelFilter.Add("label", fmt.Sprintf("%s=%s", composeProjectLabel, project))

	containers, err := v.client.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: labelFilter,
	})
	if err != nil {
		return nil, fmt.Errorf("container list: %w", err)
	}

	result := make([]ContainerStatus, 0, len(containers))
	for _, ctr := range containers {
		name := ""
		if len(ctr.Names) > 0 {
			name = strings.TrimPrefix(ctr.Names[0], "/")
		}
		result = append(result, ContainerStatus{
			Name:    name,
			State:   ctr.State,
			Running: ctr.State == "running",
		})
	}
	return result, nil
}
