// Package localdisk is a filesystem-backed LocalRepositoryManager used by
// cmd/resolvectl. It lays artifacts out the way a Maven-style local
// repository does: <base>/<group/path>/<artifactID>/<version>/<file>, and
// tracks which artifacts were registered (as opposed to merely present on
// disk) in a sidecar JSON index so repeated runs can tell "known
// installed" apart from "a stray file happens to be there".
package localdisk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/opencontainers/go-digest"

	"github.com/basalt-build/resolve/pkg/resolve"
)

const indexFileName = ".resolvectl-index.json"

// Manager implements resolve.LocalRepositoryManager against baseDir.
type Manager struct {
	baseDir string
	repo    resolve.Repository

	mu    sync.Mutex
	index map[string]bool // artifact Key() -> registered
}

// New constructs a Manager rooted at baseDir, loading any existing index.
func New(baseDir string) (*Manager, error) {
	m := &Manager{
		baseDir: baseDir,
		repo:    resolve.Repository{ID: "local", URL: baseDir, Kind: resolve.RepositoryKindLocal},
		index:   make(map[string]bool),
	}
	if err := m.loadIndex(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) indexPath() string {
	return filepath.Join(m.baseDir, indexFileName)
}

func (m *Manager) loadIndex() error {
	data, err := os.ReadFile(m.indexPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading local repository index: %w", err)
	}
	return json.Unmarshal(data, &m.index)
}

func (m *Manager) saveIndexLocked() error {
	if err := os.MkdirAll(m.baseDir, 0o755); err != nil {
		return fmt.Errorf("creating local repository directory: %w", err)
	}
	data, err := json.MarshalIndent(m.index, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding local repository index: %w", err)
	}
	if err := os.WriteFile(m.indexPath(), data, 0o644); err != nil {
		return fmt.Errorf("writing local repository index: %w", err)
	}
	return nil
}

// layoutPath returns where a.File for this coordinate would live on disk.
func (m *Manager) layoutPath(a resolve.Artifact) string {
	group := strings.ReplaceAll(a.GroupID, ".", string(filepath.Separator))
	name := a.ArtifactID + "-" + a.Version
	if a.Classifier != "" {
		name += "-" + a.Classifier
	}
	ext := a.Extension
	if ext == "" {
		ext = "jar"
	}
	name += "." + ext
	return filepath.Join(m.baseDir, group, a.ArtifactID, a.Version, name)
}

func (m *Manager) Find(_ context.Context, _ *resolve.Session, a resolve.Artifact, _ []resolve.Repository, _ string) (resolve.LocalArtifactResult, error) {
	path := m.layoutPath(a)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return resolve.LocalArtifactResult{}, nil
		}
		return resolve.LocalArtifactResult{}, fmt.Errorf("checking local artifact %s: %w", a, err)
	}
	if !info.Mode().IsRegular() {
		return resolve.LocalArtifactResult{}, nil
	}

	m.mu.Lock()
	registered := m.index[a.Key()]
	m.mu.Unlock()

	return resolve.LocalArtifactResult{
		File:       path,
		Available:  registered,
		Repository: m.repo,
	}, nil
}

// Add registers reg.Artifact as installed. If reg.Artifact.File differs
// from the layout path (the file currently sits in a download staging
// location), the content is verified against its digest property, if
// present, while it is copied into place; the staged file is left as is.
func (m *Manager) Add(_ context.Context, _ *resolve.Session, reg resolve.RegistrationRequest) error {
	dest := m.layoutPath(reg.Artifact)

	if reg.Artifact.File != "" && reg.Artifact.File != dest {
		if err := m.moveIntoPlace(reg.Artifact, dest); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.index[reg.Artifact.Key()] = true
	return m.saveIndexLocked()
}

func (m *Manager) moveIntoPlace(a resolve.Artifact, dest string) (err error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("creating local repository layout directory: %w", err)
	}

	in, err := os.Open(a.File)
	if err != nil {
		return fmt.Errorf("opening staged artifact %s: %w", a.File, err)
	}
	defer func() { err = errors.Join(err, in.Close()) }()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}

	var verifier digest.Verifier
	w := io.Writer(out)
	if dig, ok := a.Properties["digest"]; ok {
		d, parseErr := digest.Parse(dig)
		if parseErr != nil {
			_ = out.Close()
			return fmt.Errorf("parsing artifact digest %q: %w", dig, parseErr)
		}
		verifier = d.Verifier()
		w = io.MultiWriter(out, verifier)
	}

	if _, err = io.Copy(w, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("staging artifact into local repository: %w", err)
	}
	if err = out.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", dest, err)
	}
	if verifier != nil && !verifier.Verified() {
		_ = os.Remove(dest)
		return fmt.Errorf("digest verification failed for %s", a)
	}
	return nil
}

func (m *Manager) PathForRemoteArtifact(a resolve.Artifact, _ resolve.Repository, _ string) (string, error) {
	return m.layoutPath(a), nil
}

func (m *Manager) Repository() resolve.Repository {
	return m.repo
}
