package scene

import (
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// FileSet is a collection of dropped files keyed by slash-separated names
// relative to the drop. A dropped directory keeps its own name as the first
// path element.
type FileSet map[string]string

// Add records a dropped file or walks a dropped directory.
func (s FileSet) Add(p string) error {
	info, err := os.Stat(p)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		s[filepath.Base(p)] = p
		return nil
	}

	parent := filepath.Dir(p)
	return filepath.WalkDir(p, func(name string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(parent, name)
		if err != nil {
			return err
		}
		s[filepath.ToSlash(rel)] = name
		return nil
	})
}

// Open implements fs.FS.
func (s FileSet) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	p, ok := s[name]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return os.Open(p)
}

// Root returns the first .gltf or .glb entry in name order.
func (s FileSet) Root() (string, error) {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if IsModel(name) {
			return name, nil
		}
	}
	return "", ErrNoRoot
}

// IsModel reports whether name has a .gltf or .glb extension.
func IsModel(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".gltf", ".glb":
		return true
	}
	return false
}

// uriFS resolves resource URIs from a glTF document against a directory.
// URIs may or may not be escaped; they are unescaped before lookup and a
// leading "./" is dropped.
type uriFS struct {
	fsys fs.FS
}

func (u uriFS) Open(name string) (fs.File, error) {
	return u.fsys.Open(resolveURI(name))
}

func resolveURI(uri string) string {
	if s, err := url.PathUnescape(uri); err == nil {
		uri = s
	}
	uri = strings.TrimPrefix(uri, "./")
	uri = strings.TrimPrefix(uri, "/")
	return path.Clean(uri)
}
