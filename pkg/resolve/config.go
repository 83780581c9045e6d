package resolve

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the recognized configuration keys from spec.md §6 plus the
// TTL of cached offline decisions. Zero-value Config is invalid;
// use DefaultConfig or LoadConfig.
type Config struct {
	// SnapshotNormalization controls whether PathPolicy rewrites a
	// timestamped snapshot file name to its baseVersion form.
	// Option artifactResolver.snapshotNormalization; top-level YAML key
	// snapshotNormalization. Default true.
	SnapshotNormalization bool `yaml:"snapshotNormalization"`

	// SimpleLrmInterop enables the legacy "register on bare file
	// presence" rule in LocalLookup (spec.md §4.4). Ignored whenever a
	// RemoteRepositoryFilter is active.
	// Option artifactResolver.simpleLrmInterop; top-level YAML key
	// simpleLrmInterop. Default false.
	SimpleLrmInterop bool `yaml:"simpleLrmInterop"`

	// OfflineCheckTTLSeconds bounds how long a cachedOfflineController
	// may reuse a prior offline decision for a repository.
	OfflineCheckTTLSeconds int `yaml:"offlineCheckTTLSeconds"`
}

// DefaultConfig returns the documented defaults from spec.md §6.
func DefaultConfig() Config {
	return Config{
		SnapshotNormalization:  true,
		SimpleLrmInterop:       false,
		OfflineCheckTTLSeconds: 30,
	}
}

// LoadConfig reads a YAML document at path and overlays it onto
// DefaultConfig, the way gotya and the teacher's CLI both load
// configuration: defaults first, then whatever the file actually sets.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading resolver config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing resolver config %s: %w", path, err)
	}

	return cfg, nil
}
