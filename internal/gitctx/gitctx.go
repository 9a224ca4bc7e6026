package gitctx

import (
	"os/exec"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
)

// Identity is the git user configured for a working directory.
type Identity struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	// Scope is "repository", "global" or "cli", naming where the identity was found.
	Scope string `json:"scope"`
}

// UserIdentity returns the git user for dir. Repository config wins over the
// global config; the git CLI is consulted last. ok is false when no user.name is set.
func UserIdentity(dir string) (Identity, bool) {
	if id, ok := repoIdentity(dir); ok {
		return id, true
	}
	if cfg, err := config.LoadConfig(config.GlobalScope); err == nil && cfg.User.Name != "" {
		return Identity{Name: cfg.User.Name, Email: cfg.User.Email, Scope: "global"}, true
	}
	if _, err := exec.LookPath("git"); err != nil {
		return Identity{}, false
	}
	if name := runGit(dir, "config", "--get", "user.name"); name != "" {
		return Identity{Name: name, Email: runGit(dir, "config", "--get", "user.email"), Scope: "cli"}, true
	}
	return Identity{}, false
}

func repoIdentity(dir string) (Identity, bool) {
	if dir == "" {
		return Identity{}, false
	}
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return Identity{}, false
	}
	cfg, err := repo.Config()
	if err != nil || cfg.User.Name == "" {
		return Identity{}, false
	}
	return Identity{Name: cfg.User.Name, Email: cfg.User.Email, Scope: "repository"}, true
}

func runGit(dir string, args ...string) string {
	cmd := exec.Command("git", args...)
	if dir != "" {
		cmd.Dir = dir
	}
	out, _ := cmd.Output()
	return strings.TrimSpace(string(out))
}
