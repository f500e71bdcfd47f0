package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/compozy/semtag/internal/domain"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"go.uber.org/zap"
)

// TagOptions controls how version tags are written.
type TagOptions struct {
	Annotated   bool
	Message     string
	TaggerName  string
	TaggerEmail string
}

// GitOptions configures a GitRepository.
type GitOptions struct {
	Logger  *zap.Logger
	Token   string
	Tagging TagOptions
}

// gitRepository is the implementation of the GitRepository interface.
type gitRepository struct {
	repo    *git.Repository
	path    string
	log     *zap.Logger
	token   string
	tagging TagOptions
}

// NewGitRepository opens the repository at path.
func NewGitRepository(path string, opts GitOptions) (GitRepository, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository at %s: %w", path, err)
	}
	return newGitRepository(repo, path, opts), nil
}

func newGitRepository(repo *git.Repository, path string, opts GitOptions) *gitRepository {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &gitRepository{
		repo:    repo,
		path:    path,
		log:     log.With(zap.String("repo", path)),
		token:   strings.TrimSpace(opts.Token),
		tagging: opts.Tagging,
	}
}

// Path returns the path the repository was opened from.
func (r *gitRepository) Path() string {
	return r.path
}

// TagNames returns the short names of all tags, sorted.
func (r *gitRepository) TagNames(_ context.Context) ([]string, error) {
	iter, err := r.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("failed to get tags: %w", err)
	}
	var names []string
	if err := iter.ForEach(func(ref *plumbing.Reference) error {
		names = append(names, ref.Name().Short())
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to iterate tags: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// SemanticVersions returns every tag that parses as a semantic version.
func (r *gitRepository) SemanticVersions(ctx context.Context) ([]*domain.Version, error) {
	names, err := r.TagNames(ctx)
	if err != nil {
		return nil, err
	}
	return domain.FilterSemanticVersions(names, func(name string, err error) {
		r.log.Debug("ignoring tag", zap.String("tag", name), zap.Error(err))
	}), nil
}

// TagsAtCommit returns the tags pointing at commit. An empty commit means HEAD.
// Annotated tags are peeled to the commit they reference.
func (r *gitRepository) TagsAtCommit(_ context.Context, commit string) ([]domain.TagReference, error) {
	target, err := r.resolveCommit(commit)
	if err != nil {
		return nil, err
	}
	iter, err := r.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("failed to get tags: %w", err)
	}
	var refs []domain.TagReference
	if err := iter.ForEach(func(ref *plumbing.Reference) error {
		hash, err := r.resolveTagCommit(ref)
		if err != nil {
			r.log.Debug("skipping unresolvable tag", zap.String("tag", ref.Name().Short()), zap.Error(err))
			return nil
		}
		if hash == target {
			refs = append(refs, domain.TagReference{Name: ref.Name().Short(), Commit: hash.String()})
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to iterate tags: %w", err)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
	return refs, nil
}

// SemanticVersionTag returns the semantic version tagged on commit.
// When several semantic version tags point at the commit, the greatest tag
// name wins. The ordering is lexical, not by version precedence, so "2.0.0"
// is picked over "10.0.0"; which of the two should win is still open.
func (r *gitRepository) SemanticVersionTag(ctx context.Context, commit string) (*domain.Version, error) {
	refs, err := r.TagsAtCommit(ctx, commit)
	if err != nil {
		return nil, err
	}
	label := commit
	if label == "" {
		label = "HEAD"
	}
	if len(refs) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrCommitNotTagged, label)
	}
	for i := len(refs) - 1; i >= 0; i-- {
		version, err := domain.ParseVersion(refs[i].Name)
		if err == nil {
			return version, nil
		}
		r.log.Debug("ignoring tag", zap.String("tag", refs[i].Name), zap.Error(err))
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrCommitTagNotSemanticVersion, label)
}

// TagExists checks if a tag exists.
func (r *gitRepository) TagExists(_ context.Context, tag string) (bool, error) {
	_, err := r.repo.Tag(tag)
	if errors.Is(err, git.ErrTagNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check tag %s: %w", tag, err)
	}
	return true, nil
}

// CreateVersionTag tags HEAD with the canonical form of version.
func (r *gitRepository) CreateVersionTag(_ context.Context, version *domain.Version) (domain.TagReference, error) {
	name := version.String()
	head, err := r.repo.Head()
	if err != nil {
		return domain.TagReference{}, fmt.Errorf("failed to get HEAD: %w", err)
	}
	var opts *git.CreateTagOptions
	if r.tagging.Annotated {
		message := r.tagging.Message
		if strings.Contains(message, "%s") {
			message = fmt.Sprintf(message, name)
		}
		opts = &git.CreateTagOptions{
			Message: message,
			Tagger: &object.Signature{
				Name:  r.tagging.TaggerName,
				Email: r.tagging.TaggerEmail,
				When:  time.Now(),
			},
		}
	}
	if _, err := r.repo.CreateTag(name, head.Hash(), opts); err != nil {
		return domain.TagReference{}, fmt.Errorf("failed to create tag %s: %w", name, err)
	}
	r.log.Info("created tag", zap.String("tag", name), zap.String("commit", head.Hash().String()))
	return domain.TagReference{Name: name, Commit: head.Hash().String()}, nil
}

// DeleteTag removes a local tag.
func (r *gitRepository) DeleteTag(_ context.Context, tag string) error {
	if err := r.repo.DeleteTag(tag); err != nil {
		return fmt.Errorf("failed to delete tag %s: %w", tag, err)
	}
	r.log.Info("deleted tag", zap.String("tag", tag))
	return nil
}

// PushVersionTag pushes a single tag to remote.
func (r *gitRepository) PushVersionTag(ctx context.Context, tag domain.TagReference, remote string) error {
	rem, err := r.repo.Remote(remote)
	if errors.Is(err, git.ErrRemoteNotFound) {
		return fmt.Errorf("%w: %s", domain.ErrRemoteNotFound, remote)
	}
	if err != nil {
		return fmt.Errorf("failed to get remote %s: %w", remote, err)
	}
	refSpec := config.RefSpec(fmt.Sprintf("refs/tags/%s:refs/tags/%s", tag.Name, tag.Name))
	err = r.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: remote,
		RefSpecs:   []config.RefSpec{refSpec},
		Auth:       r.getAuth(rem.Config().URLs),
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to push tag %s to %s: %w", tag.Name, remote, err)
	}
	r.log.Info("pushed tag", zap.String("tag", tag.Name), zap.String("remote", remote))
	return nil
}

// GetCurrentBranch returns the name of the checked out branch.
func (r *gitRepository) GetCurrentBranch(_ context.Context) (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return "", fmt.Errorf("%w at %s", domain.ErrDetachedHead, head.Hash())
	}
	return head.Name().Short(), nil
}

// GetHeadCommit returns the SHA of the current HEAD commit.
func (r *gitRepository) GetHeadCommit(_ context.Context) (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD: %w", err)
	}
	return head.Hash().String(), nil
}

func (r *gitRepository) resolveCommit(commit string) (plumbing.Hash, error) {
	if commit == "" {
		head, err := r.repo.Head()
		if err != nil {
			return plumbing.ZeroHash, fmt.Errorf("failed to get HEAD: %w", err)
		}
		return head.Hash(), nil
	}
	hash, err := r.repo.ResolveRevision(plumbing.Revision(commit))
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to resolve commit %s: %w", commit, err)
	}
	return *hash, nil
}

// resolveTagCommit resolves a tag reference to its commit hash.
func (r *gitRepository) resolveTagCommit(tagRef *plumbing.Reference) (plumbing.Hash, error) {
	// Try as lightweight tag first
	if commit, err := r.repo.CommitObject(tagRef.Hash()); err == nil {
		return commit.Hash, nil
	}
	// Try as annotated tag
	if tagObj, err := r.repo.TagObject(tagRef.Hash()); err == nil {
		if commit, err := tagObj.Commit(); err == nil {
			return commit.Hash, nil
		}
	}
	return plumbing.ZeroHash, fmt.Errorf("failed to resolve commit for tag %s", tagRef.Name().Short())
}

// getAuth returns token authentication for http(s) remotes; other
// transports use their own credentials.
func (r *gitRepository) getAuth(urls []string) transport.AuthMethod {
	if r.token == "" || len(urls) == 0 {
		return nil
	}
	if !strings.HasPrefix(urls[0], "https://") && !strings.HasPrefix(urls[0], "http://") {
		return nil
	}
	// Use x-access-token as username for GitHub token authentication
	return &http.BasicAuth{
		Username: "x-access-token",
		Password: r.token,
	}
}
