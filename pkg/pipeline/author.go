package pipeline

import (
	"os"
	"os/user"

	"github.com/pyblish/pyblish-minbender/internal/gitctx"
)

// SetAuthor overrides the detected user name.
func (r *Registry) SetAuthor(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.author = name
}

// Author returns the user operating the pipeline: the configured override,
// then git user.name for the project root, then the OS account name.
func (r *Registry) Author() string {
	r.mu.RLock()
	override, root := r.author, r.root
	r.mu.RUnlock()
	return ResolveAuthor(override, root)
}

// ResolveAuthor applies the author lookup order for a directory.
func ResolveAuthor(override, dir string) string {
	if override != "" {
		return override
	}
	if id, ok := gitctx.UserIdentity(dir); ok {
		return id.Name
	}
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return "unknown"
}
