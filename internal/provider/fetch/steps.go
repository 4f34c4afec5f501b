package fetch

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"path/filepath"

	"github.com/zeebo/blake3"

	"github.com/groundwork-sh/groundwork/internal/domain/provision"
	"github.com/groundwork-sh/groundwork/internal/ports"
)

// ArtifactStep downloads one remote file and pins its digest.
type ArtifactStep struct {
	artifact   Artifact
	id         provision.StepID
	deps       []provision.StepID
	fs         ports.FileSystem
	downloader ports.Downloader
}

// NewArtifactStep creates a new ArtifactStep.
func NewArtifactStep(artifact Artifact, fs ports.FileSystem, downloader ports.Downloader, deps []provision.StepID) *ArtifactStep {
	return &ArtifactStep{
		artifact:   artifact,
		id:         provision.MustNewStepID("fetch:artifact:" + filepath.Base(artifact.Dest)),
		deps:       deps,
		fs:         fs,
		downloader: downloader,
	}
}

// ID returns the step identifier.
func (s *ArtifactStep) ID() provision.StepID {
	return s.id
}

// DependsOn returns the step dependencies.
func (s *ArtifactStep) DependsOn() []provision.StepID {
	return s.deps
}

// Check determines if the destination already holds the pinned content.
func (s *ArtifactStep) Check(_ provision.RunContext) (provision.StepStatus, error) {
	if !s.fs.Exists(s.artifact.Dest) {
		return provision.StatusNeedsApply, nil
	}
	actual, err := s.computeDigest()
	if err != nil {
		return provision.StatusUnknown, err
	}
	if actual == s.artifact.Integrity.Digest {
		return provision.StatusSatisfied, nil
	}
	// A stale or tampered file is re-fetched, not trusted.
	return provision.StatusNeedsApply, nil
}

// Plan returns the diff for this step.
func (s *ArtifactStep) Plan(_ provision.RunContext) (provision.Diff, error) {
	return provision.NewDiff(provision.DiffTypeAdd, "artifact", s.artifact.Dest,
		"", s.artifact.Integrity.String()), nil
}

// Apply downloads the artifact and verifies its digest.
func (s *ArtifactStep) Apply(ctx provision.RunContext) error {
	if err := s.fs.MkdirAll(filepath.Dir(s.artifact.Dest), 0o755); err != nil {
		return provision.NewStepError(provision.ErrCodeConfigWrite, s.id,
			fmt.Sprintf("failed to create directory for %s", s.artifact.Dest)).
			WithUnderlying(err)
	}

	if err := s.downloader.Download(ctx.Context(), s.artifact.URL, s.artifact.Dest); err != nil {
		return provision.NewStepError(provision.ErrCodeNetwork, s.id,
			fmt.Sprintf("failed to download %s", s.artifact.URL)).
			WithSuggestion("Check network connectivity and that the URL is reachable from this host.").
			WithUnderlying(err)
	}

	actual, err := s.computeDigest()
	if err != nil {
		return provision.NewStepError(provision.ErrCodeIntegrity, s.id,
			fmt.Sprintf("failed to read downloaded artifact %s", s.artifact.Dest)).
			WithUnderlying(err)
	}
	if actual != s.artifact.Integrity.Digest {
		// The mismatched file must not survive to be executed or installed.
		_ = s.fs.Remove(s.artifact.Dest)
		return provision.NewStepError(provision.ErrCodeIntegrity, s.id,
			fmt.Sprintf("digest mismatch for %s: want %s, got %s:%s",
				s.artifact.Dest, s.artifact.Integrity, s.artifact.Integrity.Algorithm, actual)).
			WithSuggestion("Verify the pinned digest against the upstream release, then re-run.")
	}
	return nil
}

// Compensation describes how to undo the download.
func (s *ArtifactStep) Compensation() provision.Compensation {
	return provision.Compensation{
		StepID: s.id,
		Action: fmt.Sprintf("rm %s", s.artifact.Dest),
	}
}

func (s *ArtifactStep) computeDigest() (string, error) {
	data, err := s.fs.ReadFile(s.artifact.Dest)
	if err != nil {
		return "", err
	}

	var h hash.Hash
	switch s.artifact.Integrity.Algorithm {
	case AlgoBLAKE3:
		h = blake3.New()
	default:
		h = sha256.New()
	}
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}

var _ provision.CompensableStep = (*ArtifactStep)(nil)
