package docrepo

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docscopilot/docscopilot/internal/git"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func newManagerForDir(t *testing.T, dir string) *Manager {
	t.Helper()
	runner := git.NewRunner(dir, "git", 0, testLogger())
	return NewManager(runner, nil, "docs", "feature_overview", "main", testLogger())
}

// newFixtureRepo creates a repository with one commit and a bare origin so
// pushes succeed.
func newFixtureRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}

	dir := t.TempDir()
	bare := t.TempDir()
	run := func(workdir string, args ...string) {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = workdir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com")
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "git %v: %s", args, out)
	}

	run(bare, "init", "--bare")
	run(dir, "init", "-b", "main")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# repo\n"), 0o644))
	run(dir, "add", "README.md")
	run(dir, "commit", "-m", "initial commit")
	run(dir, "remote", "add", "origin", bare)
	run(dir, "push", "-u", "origin", "main")

	return dir
}

func TestSuggestLocation(t *testing.T) {
	mgr := newManagerForDir(t, t.TempDir())

	tests := []struct {
		name      string
		featureID string
		docType   string
		wantPath  string
	}{
		{"concept", "auth-retry", "concept", "docs/concepts/auth-retry.md"},
		{"task", "Setup", "task", "docs/tasks/setup.md"},
		{"api reference", "users/list", "api_reference", "docs/api/users_list.md"},
		{"release notes", "v2", "release_notes", "docs/releases/v2.md"},
		{"feature overview default", "search", "", "docs/features/search.md"},
		{"configuration", "timeouts", "configuration_reference", "docs/configuration/timeouts.md"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := mgr.SuggestLocation(tt.featureID, tt.docType)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPath, loc.Path)
			assert.Contains(t, loc.Reason, tt.featureID)
		})
	}
}

func TestSuggestLocationRejectsBadInput(t *testing.T) {
	mgr := newManagerForDir(t, t.TempDir())

	_, err := mgr.SuggestLocation("", "concept")
	require.Error(t, err)

	_, err = mgr.SuggestLocation("feat", "tutorial")
	require.Error(t, err)

	_, err = mgr.SuggestLocation("../../etc", "concept")
	require.Error(t, err)
}

func TestWriteDocRoundTrip(t *testing.T) {
	dir := t.TempDir()
	mgr := newManagerForDir(t, dir)

	result, err := mgr.WriteDoc("docs/features/search.md", "# Search\n")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "docs/features/search.md", result.Path)

	content, err := os.ReadFile(filepath.Join(dir, "docs", "features", "search.md"))
	require.NoError(t, err)
	assert.Equal(t, "# Search\n", string(content))
}

func TestWriteDocRejectsEscape(t *testing.T) {
	mgr := newManagerForDir(t, t.TempDir())

	_, err := mgr.WriteDoc("../outside.md", "nope")
	require.Error(t, err)
}

func TestWriteDocReportsIOFailure(t *testing.T) {
	dir := t.TempDir()
	mgr := newManagerForDir(t, dir)

	// A file where the parent directory should go makes MkdirAll fail.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docs"), []byte("not a dir"), 0o644))

	result, err := mgr.WriteDoc("docs/features/search.md", "# Search\n")
	require.NoError(t, err, "I/O failures are reported in the result")
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Message)
}

func TestGenerateBranchNameSanitization(t *testing.T) {
	repo := newFixtureRepo(t)
	mgr := newManagerForDir(t, repo)
	ctx := context.Background()

	tests := []struct {
		name      string
		featureID string
		title     string
		want      string
	}{
		{"feature id wins over title", "AUTH-123", "Document auth", "docs/auth-123"},
		{"title used when no feature id", "", "Add Search Docs", "docs/add-search-docs"},
		{"separators collapse", "", "a b_c/d", "docs/a-b-c-d"},
		{"punctuation dropped", "", "Fix: the thing!", "docs/fix-the-thing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mgr.GenerateBranchName(ctx, repo, tt.featureID, tt.title))
		})
	}
}

func TestGenerateBranchNameAlwaysLegal(t *testing.T) {
	repo := newFixtureRepo(t)
	mgr := newManagerForDir(t, repo)
	ctx := context.Background()

	seeds := []string{
		".lock file update",
		"ends with dot.",
		"a..b@{upstream}",
		strings.Repeat("very long title ", 40),
		"!!!",
		"",
	}

	for _, seed := range seeds {
		branch := mgr.GenerateBranchName(ctx, repo, "", seed)
		assert.NotEmpty(t, branch, "seed %q", seed)
		assert.True(t, strings.HasPrefix(branch, "docs/"), "seed %q produced %q", seed, branch)
		assert.LessOrEqual(t, len(branch), MaxBranchNameLength)
		assert.False(t, strings.HasPrefix(branch, "."), "seed %q produced %q", seed, branch)
		assert.False(t, strings.HasSuffix(branch, "."), "seed %q produced %q", seed, branch)
		assert.False(t, strings.HasSuffix(branch, ".lock"), "seed %q produced %q", seed, branch)
		assert.NotContains(t, branch, "..")
		assert.NotContains(t, branch, "@{")
	}
}

func TestGenerateBranchNameUniqueness(t *testing.T) {
	repo := newFixtureRepo(t)
	mgr := newManagerForDir(t, repo)
	ctx := context.Background()

	first := mgr.GenerateBranchName(ctx, repo, "AUTH-1", "")
	require.True(t, mgr.CreateBranch(ctx, repo, first))

	second := mgr.GenerateBranchName(ctx, repo, "AUTH-1", "")
	assert.NotEqual(t, first, second)
	assert.Equal(t, first+"-1", second)
}

func TestCommitChanges(t *testing.T) {
	repo := newFixtureRepo(t)
	mgr := newManagerForDir(t, repo)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(filepath.Join(repo, "new.md"), []byte("# New\n"), 0o644))
	ok := mgr.CommitChanges(ctx, repo, []string{"new.md"}, "Add new doc", "Longer description")
	require.True(t, ok)

	runner := git.NewRunner(repo, "git", 0, testLogger())
	hashes, err := runner.LogGrep(ctx, repo, "Add new doc")
	require.NoError(t, err)
	require.Len(t, hashes, 1)

	record, err := runner.CommitInfo(ctx, repo, hashes[0])
	require.NoError(t, err)
	assert.Equal(t, "Add new doc", record.Subject)
	assert.Equal(t, "Longer description", record.Body)
}

func TestCommitChangesNothingStaged(t *testing.T) {
	repo := newFixtureRepo(t)
	mgr := newManagerForDir(t, repo)

	ok := mgr.CommitChanges(context.Background(), repo, nil, "Empty", "")
	assert.False(t, ok, "committing with nothing staged fails")
}

// fakeForge records the pull request it was asked to open.
type fakeForge struct {
	supports bool
	url      string
	number   int
	err      error

	gotBranch string
	gotBase   string
	gotTitle  string
}

func (f *fakeForge) Supports(remoteURL string) bool { return f.supports }

func (f *fakeForge) OpenPullRequest(ctx context.Context, remoteURL, branch, base, title, description string) (string, int, error) {
	f.gotBranch = branch
	f.gotBase = base
	f.gotTitle = title
	if f.err != nil {
		return "", 0, f.err
	}
	return f.url, f.number, nil
}

func TestOpenPRFullOrchestration(t *testing.T) {
	repo := newFixtureRepo(t)
	forge := &fakeForge{supports: true, url: "https://example.com/pr/7", number: 7}
	runner := git.NewRunner(repo, "git", 0, testLogger())
	mgr := NewManager(runner, []ForgeClient{forge}, "docs", "feature_overview", "main", testLogger())

	require.NoError(t, os.WriteFile(filepath.Join(repo, "doc.md"), []byte("# Doc\n"), 0o644))

	result := mgr.OpenPR(context.Background(), repo, "AUTH-9", "Document auth", "Details here", "", "", nil)

	require.True(t, result.Success, "message: %s", result.Message)
	assert.Equal(t, "https://example.com/pr/7", result.PRURL)
	assert.Equal(t, 7, result.PRNumber)
	assert.Equal(t, "docs/auth-9", result.Branch)
	assert.Equal(t, "docs/auth-9", forge.gotBranch)
	assert.Equal(t, "main", forge.gotBase)
	assert.Equal(t, "Document auth", forge.gotTitle)
}

func TestOpenPRUsesCallerBranch(t *testing.T) {
	repo := newFixtureRepo(t)
	forge := &fakeForge{supports: true, url: "https://example.com/pr/3", number: 3}
	runner := git.NewRunner(repo, "git", 0, testLogger())
	mgr := NewManager(runner, []ForgeClient{forge}, "docs", "feature_overview", "main", testLogger())

	require.NoError(t, os.WriteFile(filepath.Join(repo, "doc.md"), []byte("# Doc\n"), 0o644))

	result := mgr.OpenPR(context.Background(), repo, "AUTH-9", "Document auth", "Details here", "", "docs/custom-name", nil)

	require.True(t, result.Success, "message: %s", result.Message)
	assert.Equal(t, "docs/custom-name", result.Branch)
	assert.Equal(t, "docs/custom-name", forge.gotBranch)
}

func TestOpenPRNoSupportedForge(t *testing.T) {
	repo := newFixtureRepo(t)
	forge := &fakeForge{supports: false}
	runner := git.NewRunner(repo, "git", 0, testLogger())
	mgr := NewManager(runner, []ForgeClient{forge}, "docs", "feature_overview", "main", testLogger())

	require.NoError(t, os.WriteFile(filepath.Join(repo, "doc.md"), []byte("# Doc\n"), 0o644))

	result := mgr.OpenPR(context.Background(), repo, "AUTH-9", "Document auth", "", "", "", nil)

	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "No supported forge")
}

func TestOpenPRShortCircuitsOnCommitFailure(t *testing.T) {
	repo := newFixtureRepo(t)
	forge := &fakeForge{supports: true, url: "https://example.com/pr/1", number: 1}
	runner := git.NewRunner(repo, "git", 0, testLogger())
	mgr := NewManager(runner, []ForgeClient{forge}, "docs", "feature_overview", "main", testLogger())

	// Nothing to commit; the orchestration stops before the forge call.
	result := mgr.OpenPR(context.Background(), repo, "AUTH-9", "Document auth", "", "", "", nil)

	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "commit")
	assert.Empty(t, forge.gotTitle)
}
