// Package resolve implements the artifact resolution orchestrator: given a
// batch of artifact coordinates, it decides whether each one lives in the
// in-process workspace, the on-disk local cache, or must be fetched from a
// remote repository, coordinating concurrent callers against the shared
// local cache and batching remote downloads per compatible repository.
//
// Transport, checksum verification, metadata parsing, dependency graph
// computation, authentication and proxying are all out of scope: they are
// modeled as collaborator interfaces (VersionResolver, LocalRepositoryManager,
// WorkspaceReader, ConnectorProvider, UpdateCheckManager, OfflineController,
// RemoteRepositoryFilter) that callers implement.
package resolve
