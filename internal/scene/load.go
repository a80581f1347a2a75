// Package scene loads glTF documents from file collections and walks their
// node hierarchy.
package scene

import (
	"fmt"
	"io/fs"
	"path"

	"github.com/qmuntal/gltf"
)

// Model is a decoded document and where it came from.
type Model struct {
	Root string
	Doc  *gltf.Document
}

// Load decodes root from fsys. External buffers and images are resolved
// relative to the directory of root inside fsys.
func Load(fsys fs.FS, root string) (*Model, error) {
	f, err := fsys.Open(root)
	if err != nil {
		return nil, fmt.Errorf("open model: %w", err)
	}
	defer f.Close()

	dir := path.Dir(root)
	res := fsys
	if dir != "." {
		if res, err = fs.Sub(fsys, dir); err != nil {
			return nil, fmt.Errorf("resource dir: %w", err)
		}
	}
	resources := uriFS{fsys: res}

	doc := new(gltf.Document)
	if err := gltf.NewDecoderFS(f, resources).Decode(doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", root, err)
	}
	if SceneIndex(doc) < 0 {
		return nil, ErrNoScene
	}
	if err := checkImages(doc, resources); err != nil {
		return nil, err
	}
	return &Model{Root: root, Doc: doc}, nil
}

// SceneIndex returns the default scene, the first scene when no default is
// set, or -1.
func SceneIndex(doc *gltf.Document) int {
	if doc.Scene != nil && int(*doc.Scene) < len(doc.Scenes) {
		return int(*doc.Scene)
	}
	if len(doc.Scenes) > 0 {
		return 0
	}
	return -1
}

func checkImages(doc *gltf.Document, resources fs.FS) error {
	for _, img := range doc.Images {
		if img.URI == "" || img.IsEmbeddedResource() {
			continue
		}
		if _, err := fs.Stat(resources, img.URI); err != nil {
			return &MissingTextureError{Path: img.URI, Err: err}
		}
	}
	return nil
}
