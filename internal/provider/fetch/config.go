// Package fetch downloads remote artifacts and verifies their integrity.
package fetch

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/groundwork-sh/groundwork/internal/validation"
)

// Supported digest algorithms.
const (
	AlgoSHA256 = "sha256"
	AlgoBLAKE3 = "blake3"
)

// Integrity is a parsed artifact digest pin.
type Integrity struct {
	Algorithm string
	Digest    string // lowercase hex
}

// String returns the canonical "algo:hex" form.
func (i Integrity) String() string {
	return i.Algorithm + ":" + i.Digest
}

// ParseIntegrity parses an "algo:hex" pin. Every artifact must carry one;
// an unverified download is worse than no download.
func ParseIntegrity(raw string) (Integrity, error) {
	algo, digest, ok := strings.Cut(raw, ":")
	if !ok {
		return Integrity{}, fmt.Errorf("integrity must be of the form algorithm:hexdigest, got %q", raw)
	}

	var wantLen int
	switch algo {
	case AlgoSHA256:
		wantLen = 64
	case AlgoBLAKE3:
		wantLen = 64
	default:
		return Integrity{}, fmt.Errorf("unsupported integrity algorithm %q (want sha256 or blake3)", algo)
	}

	digest = strings.ToLower(digest)
	if len(digest) != wantLen {
		return Integrity{}, fmt.Errorf("%s digest must be %d hex characters, got %d", algo, wantLen, len(digest))
	}
	if _, err := hex.DecodeString(digest); err != nil {
		return Integrity{}, fmt.Errorf("integrity digest is not valid hex: %w", err)
	}

	return Integrity{Algorithm: algo, Digest: digest}, nil
}

// Artifact is one remote file to fetch.
type Artifact struct {
	URL       string
	Dest      string
	Integrity Integrity
}

// Config represents the fetch section of the manifest.
type Config struct {
	Artifacts []Artifact
}

// ParseConfig parses the fetch configuration from a raw map.
func ParseConfig(raw map[string]interface{}) (*Config, error) {
	cfg := &Config{Artifacts: make([]Artifact, 0)}

	v, ok := raw["artifacts"]
	if !ok {
		return cfg, nil
	}
	list, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("artifacts must be a list")
	}

	for i, item := range list {
		entry, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("artifact %d must be an object", i)
		}
		artifact, err := parseArtifact(entry)
		if err != nil {
			return nil, fmt.Errorf("artifact %d: %w", i, err)
		}
		cfg.Artifacts = append(cfg.Artifacts, artifact)
	}
	return cfg, nil
}

func parseArtifact(raw map[string]interface{}) (Artifact, error) {
	url, ok := raw["url"].(string)
	if !ok || url == "" {
		return Artifact{}, fmt.Errorf("url is required")
	}
	if err := validation.ValidateURL(url); err != nil {
		return Artifact{}, err
	}

	dest, ok := raw["dest"].(string)
	if !ok || dest == "" {
		return Artifact{}, fmt.Errorf("dest is required")
	}
	if err := validation.ValidatePath(dest); err != nil {
		return Artifact{}, err
	}

	rawIntegrity, ok := raw["integrity"].(string)
	if !ok || rawIntegrity == "" {
		return Artifact{}, fmt.Errorf("integrity is required")
	}
	integrity, err := ParseIntegrity(rawIntegrity)
	if err != nil {
		return Artifact{}, err
	}

	return Artifact{URL: url, Dest: dest, Integrity: integrity}, nil
}
