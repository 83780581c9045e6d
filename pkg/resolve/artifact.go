package resolve

import (
	"regexp"
	"strings"
)

// localPathProperty marks an Artifact as pre-hosted: the caller supplies
// the file directly and no collaborator is ever consulted for it.
const localPathProperty = "local_path"

// snapshotVersionPattern matches both a plain "-SNAPSHOT" suffix and a
// timestamped snapshot file version such as "1.0-20240101.120000-3".
var snapshotVersionPattern = regexp.MustCompile(`(?i)(-SNAPSHOT$|-\d{8}\.\d{6}-\d+$)`)

// RepositoryKind distinguishes how a repository participates in version
// pinning (spec.md §4.2 step 3): a remote repository narrows the filtered
// candidate set to itself, a local one empties it.
type RepositoryKind int

const (
	RepositoryKindRemote RepositoryKind = iota
	RepositoryKindLocal
	RepositoryKindOther
)

// Repository describes one candidate source for an artifact.
type Repository struct {
	ID                string
	URL               string
	ContentType       string
	RepositoryManager bool
	Kind              RepositoryKind
}

// CompatibleWith implements the ResolutionGroup compatibility rule from
// spec.md §3: two repositories may share a group iff their url, content
// type, and repository-manager flag are all equal.
func (r Repository) CompatibleWith(o Repository) bool {
	return r.URL == o.URL && r.ContentType == o.ContentType && r.RepositoryManager == o.RepositoryManager
}

// Artifact is the coordinate tuple this library resolves to a file. It is
// immutable only in the sense that each step derives a new value rather
// than mutating shared state in place; Go callers pass it by value.
type Artifact struct {
	GroupID     string
	ArtifactID  string
	Classifier  string
	Extension   string
	Version     string
	BaseVersion string

	Properties map[string]string
	File       string
}

// IsSnapshot derives snapshot-ness from the version string.
func (a Artifact) IsSnapshot() bool {
	return snapshotVersionPattern.MatchString(a.Version)
}

// LocalPath returns the pre-hosted file path set via the local_path
// property, if any.
func (a Artifact) LocalPath() (string, bool) {
	p, ok := a.Properties[localPathProperty]
	return p, ok && p != ""
}

// WithVersion returns a copy of a with Version overwritten.
func (a Artifact) WithVersion(version string) Artifact {
	a.Version = version
	return a
}

// WithFile returns a copy of a with File set.
func (a Artifact) WithFile(file string) Artifact {
	a.File = file
	return a
}

// Key identifies the logical resolution subject shared by every
// ResolutionItem and sync-context lock referring to this artifact,
// independent of which exact version string it currently carries.
func (a Artifact) Key() string {
	return strings.Join([]string{a.GroupID, a.ArtifactID, a.Classifier, a.Extension, a.BaseVersion}, ":")
}

// String renders a human-readable coordinate for logs and error messages.
func (a Artifact) String() string {
	coord := a.GroupID + ":" + a.ArtifactID
	if a.Classifier != "" {
		coord += ":" + a.Classifier
	}
	if a.Extension != "" {
		coord += ":" + a.Extension
	}
	return coord + ":" + a.Version
}
