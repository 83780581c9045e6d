package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/basalt-build/resolve/internal/httpconnector"
	"github.com/basalt-build/resolve/internal/localdisk"
	"github.com/basalt-build/resolve/pkg/resolve"
)

const (
	flagLocalRepo  = "local-repo"
	flagRemote     = "remote"
	flagConfig     = "config"
	flagRequestCtx = "context"
)

func newResolveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <groupID:artifactID:extension:version>",
		Short: "Resolve one artifact coordinate to a file",
		Args:  cobra.ExactArgs(1),
		Example: `  # resolve from the local cache only
  resolvectl resolve --local-repo ~/.m2/repository com.example:widget:jar:1.2.3

  # resolve, downloading from a remote repository if not cached
  resolvectl resolve --local-repo ~/.m2/repository --remote https://repo.example.com/releases com.example:widget:jar:1.2.3`,
		RunE: runResolve,
	}

	cmd.Flags().String(flagLocalRepo, "", "local repository directory (required)")
	cmd.Flags().StringSlice(flagRemote, nil, "remote repository URL(s) to fall back to, in preference order")
	cmd.Flags().String(flagConfig, "", "path to a resolvectl config YAML file (optional)")
	cmd.Flags().String(flagRequestCtx, "project", "request context label attached to the registration")
	_ = cmd.MarkFlagRequired(flagLocalRepo)

	return cmd
}

func runResolve(cmd *cobra.Command, args []string) error {
	logger, err := loggerFromFlags(cmd)
	if err != nil {
		return err
	}

	artifact, err := parseCoordinate(args[0])
	if err != nil {
		return err
	}

	localRepoDir, _ := cmd.Flags().GetString(flagLocalRepo)
	remotes, _ := cmd.Flags().GetStringSlice(flagRemote)
	configPath, _ := cmd.Flags().GetString(flagConfig)
	requestContext, _ := cmd.Flags().GetString(flagRequestCtx)

	cfg := resolve.DefaultConfig()
	if configPath != "" {
		cfg, err = resolve.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
	}

	lrm, err := localdisk.New(localRepoDir)
	if err != nil {
		return fmt.Errorf("opening local repository %s: %w", localRepoDir, err)
	}

	repos := make([]resolve.Repository, 0, len(remotes))
	for i, url := range remotes {
		repos = append(repos, resolve.Repository{
			ID:   fmt.Sprintf("remote-%d", i),
			URL:  url,
			Kind: resolve.RepositoryKindRemote,
		})
	}

	orchestrator := resolve.NewOrchestrator(resolve.OrchestratorOptions{
		VersionResolver:         fixedVersionResolver{},
		LocalRepositoryManager:  lrm,
		RemoteRepositoryManager: allowAllRepositoryManager{},
		Connectors:              httpconnector.NewProvider(),
		Config:                  cfg,
		Logger:                  logger,
	})

	session := &resolve.Session{LocalRepositoryBaseDir: localRepoDir, Config: cfg}
	result, err := orchestrator.ResolveArtifact(cmd.Context(), session, resolve.ArtifactRequest{
		Artifact:     artifact,
		Repositories: repos,
		Context:      requestContext,
	})
	if result != nil && result.Artifact.File != "" {
		fmt.Fprintln(cmd.OutOrStdout(), result.Artifact.File)
	}
	if err != nil {
		return err
	}
	return nil
}

// parseCoordinate accepts group:artifact:extension:version or
// group:artifact:classifier:extension:version.
func parseCoordinate(s string) (resolve.Artifact, error) {
	parts := strings.Split(s, ":")
	switch len(parts) {
	case 4:
		return resolve.Artifact{
			GroupID:     parts[0],
			ArtifactID:  parts[1],
			Extension:   parts[2],
			Version:     parts[3],
			BaseVersion: parts[3],
		}, nil
	case 5:
		return resolve.Artifact{
			GroupID:     parts[0],
			ArtifactID:  parts[1],
			Classifier:  parts[2],
			Extension:   parts[3],
			Version:     parts[4],
			BaseVersion: parts[4],
		}, nil
	default:
		return resolve.Artifact{}, fmt.Errorf("invalid coordinate %q: expected group:artifact:extension:version", s)
	}
}

// fixedVersionResolver passes the requested version through unchanged;
// resolvectl has no version-range or metadata support, matching this
// library's stance that version resolution is the caller's concern.
type fixedVersionResolver struct{}

func (fixedVersionResolver) ResolveVersion(_ context.Context, _ *resolve.Session, req resolve.ArtifactRequest) (resolve.VersionResult, error) {
	return resolve.VersionResult{Version: req.Artifact.Version}, nil
}

// allowAllRepositoryManager enables every repository with default policy
// and no mirrors, no checksum enforcement, no failure caching.
type allowAllRepositoryManager struct{}

func (allowAllRepositoryManager) PolicyFor(resolve.Repository, resolve.Artifact) resolve.RepositoryPolicy {
	return resolve.RepositoryPolicy{Enabled: true}
}

func (allowAllRepositoryManager) MirroredRepositories(resolve.Repository) []resolve.Repository {
	return nil
}
