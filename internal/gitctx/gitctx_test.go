package gitctx

import (
	"os"
	"path/filepath"
	"testing"

	git "github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserIdentityFromRepositoryConfig(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	cfg, err := repo.Config()
	require.NoError(t, err)
	cfg.User.Name = "Marcus Ottosson"
	cfg.User.Email = "marcus@example.com"
	require.NoError(t, repo.SetConfig(cfg))

	sub := filepath.Join(dir, "work", "hero")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	id, ok := UserIdentity(sub)
	require.True(t, ok)
	assert.Equal(t, "Marcus Ottosson", id.Name)
	assert.Equal(t, "marcus@example.com", id.Email)
	assert.Equal(t, "repository", id.Scope)
}

func TestUserIdentityGlobalConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("GIT_CONFIG_GLOBAL", filepath.Join(home, ".gitconfig"))
	require.NoError(t, os.WriteFile(filepath.Join(home, ".gitconfig"), []byte("[user]\n\tname = Global User\n"), 0o644))

	id, ok := UserIdentity(t.TempDir())
	require.True(t, ok)
	assert.Equal(t, "Global User", id.Name)
	assert.Equal(t, "global", id.Scope)
}

func TestRepoIdentityOutsideRepository(t *testing.T) {
	_, ok := repoIdentity(t.TempDir())
	assert.False(t, ok)

	_, ok = repoIdentity("")
	assert.False(t, ok)
}
