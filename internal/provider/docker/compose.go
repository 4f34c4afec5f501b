package docker

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/groundwork-sh/groundwork/internal/domain/config"
)

// composeService is the rendered service definition.
type composeService struct {
	Image       string   `yaml:"image"`
	Restart     string   `yaml:"restart"`
	Ports       []string `yaml:"ports,omitempty"`
	Environment []string `yaml:"environment,omitempty"`
	Volumes     []string `yaml:"volumes,omitempty"`
	Networks    []string `yaml:"networks,omitempty"`
}

// composeNetwork marks the stack network as externally managed; the network
// step creates it before the compose file is deployed.
type composeNetwork struct {
	External bool `yaml:"external"`
}

// composeDoc is the rendered docker-compose.yml document.
type composeDoc struct {
	Services map[string]composeService `yaml:"services"`
	Networks map[string]composeNetwork `yaml:"networks,omitempty"`
}

// RenderCompose renders the compose file for the stack. The active
// environment profile contributes JAVA_OPTS and the datasource pool size;
// manifest environment entries are merged on top.
func RenderCompose(cfg *ComposeConfig, network string, env config.Environment) ([]byte, error) {
	merged := map[string]string{
		"JAVA_OPTS":                           env.JavaOpts,
		"SPRING_DATASOURCE_MAXIMUM_POOL_SIZE": fmt.Sprintf("%d", env.DBPoolSize),
	}
	for key, val := range cfg.Environment {
		merged[key] = val
	}

	keys := make([]string, 0, len(merged))
	for key := range merged {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	envList := make([]string, 0, len(keys))
	for _, key := range keys {
		envList = append(envList, fmt.Sprintf("%s=%s", key, merged[key]))
	}

	service := composeService{
		Image:       cfg.Image,
		Restart:     "unless-stopped",
		Ports:       cfg.Ports,
		Environment: envList,
		Volumes:     cfg.Volumes,
	}

	doc := composeDoc{
		Services: map[string]composeService{cfg.Service: service},
	}
	if network != "" {
		service.Networks = []string{network}
		doc.Services[cfg.Service] = service
		doc.Networks = map[string]composeNetwork{network: {External: true}}
	}

	return yaml.Marshal(doc)
}
