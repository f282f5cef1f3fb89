package mailer

import (
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"
)

// Vars maps placeholder names to replacement values.
type Vars map[string]string

// Renderer loads HTML templates from an fs.FS and substitutes {{name}}
// placeholders. Parsed templates are cached; unknown placeholders are left
// untouched.
type Renderer struct {
	fs    fs.FS
	dir   string
	cache map[string]string
	mu    sync.RWMutex
}

// NewRenderer creates a renderer reading templates from dir inside fsys.
func NewRenderer(fsys fs.FS, dir string) *Renderer {
	if dir == "" {
		dir = "."
	}
	return &Renderer{
		fs:    fsys,
		dir:   dir,
		cache: make(map[string]string),
	}
}

// Render loads the named template and substitutes vars.
func (r *Renderer) Render(name string, vars Vars) (string, error) {
	tmpl, err := r.template(name)
	if err != nil {
		return "", err
	}
	return Substitute(tmpl, vars), nil
}

func (r *Renderer) template(name string) (string, error) {
	r.mu.RLock()
	if tmpl, ok := r.cache[name]; ok {
		r.mu.RUnlock()
		return tmpl, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring the write lock.
	if tmpl, ok := r.cache[name]; ok {
		return tmpl, nil
	}

	content, err := fs.ReadFile(r.fs, path.Join(r.dir, name))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrTemplateNotFound, name, err)
	}

	r.cache[name] = string(content)
	return r.cache[name], nil
}

// Substitute replaces every {{name}} in s with vars[name] in a single pass,
// so values containing placeholder syntax are not expanded again.
func Substitute(s string, vars Vars) string {
	if len(vars) == 0 {
		return s
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(s)
}
