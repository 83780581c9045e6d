package resolve

import "sync"

// sharedFlag is a small mutex-guarded boolean cell shared by pointer by every
// ResolutionItem that refers to the same logical artifact, so the first
// group to resolve it short-circuits the rest. Deliberately a standalone
// cell with no back-reference to its items (spec.md §9 "Cyclic state /
// shared flags").
type sharedFlag struct {
	mu       sync.Mutex
	resolved bool
}

func (f *sharedFlag) Get() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resolved
}

func (f *sharedFlag) Set() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolved = true
}

// ResolutionItem ties one repository attempt for one artifact request to
// the shared short-circuit flag for that artifact's logical subject.
type ResolutionItem struct {
	Trace       *Trace
	Artifact    Artifact
	Resolved    *sharedFlag
	Result      *ArtifactResult
	Local       LocalArtifactResult
	Repository  Repository
	Download    *Download
	UpdateCheck *UpdateCheck
}

// ResolutionGroup batches ResolutionItems against one compatible remote
// repository so DownloadCoordinator can run a single connector session
// and a single batched get over all of them.
type ResolutionGroup struct {
	Repository Repository
	Items      []*ResolutionItem
}

// GroupScheduler implements spec.md §4.3: it clusters pending download
// work by compatible remote repository, scanning forward from the
// current position (not from the start) so a request's repository
// preference order is kept while still letting a later repository join
// an earlier compatible group.
type GroupScheduler struct {
	groups []*ResolutionGroup
	cursor int
	flags  map[string]*sharedFlag
}

// NewGroupScheduler constructs an empty scheduler for one resolve pass.
func NewGroupScheduler() *GroupScheduler {
	return &GroupScheduler{flags: make(map[string]*sharedFlag)}
}

// StartRequest resets the scan cursor to the front of the group list
// before placing the repositories of one request; subsequent calls to
// Place then scan forward only, preserving the request's preference
// order while still finding a compatible group anywhere after the
// cursor.
func (s *GroupScheduler) StartRequest() {
	s.cursor = 0
}

// Place finds or creates the group for repo, scanning from the current
// cursor. Creating a new group moves the cursor to just past it, so
// later repositories of the same request resume scanning after it
// instead of rechecking groups already known incompatible.
func (s *GroupScheduler) Place(repo Repository) *ResolutionGroup {
	for i := s.cursor; i < len(s.groups); i++ {
		if s.groups[i].Repository.CompatibleWith(repo) {
			s.cursor = i
			return s.groups[i]
		}
	}
	g := &ResolutionGroup{Repository: repo}
	s.groups = append(s.groups, g)
	s.cursor = len(s.groups)
	return g
}

// Groups returns the accumulated groups in formation order.
func (s *GroupScheduler) Groups() []*ResolutionGroup {
	return s.groups
}

// FlagFor returns the shared resolved-flag cell for the given artifact
// key, creating it on first use.
func (s *GroupScheduler) FlagFor(key string) *sharedFlag {
	f, ok := s.flags[key]
	if !ok {
		f = &sharedFlag{}
		s.flags[key] = f
	}
	return f
}
