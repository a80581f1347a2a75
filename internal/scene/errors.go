package scene

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"path"
)

var (
	// ErrNoRoot is returned when a file collection holds no .gltf or .glb file.
	ErrNoRoot = errors.New("no .gltf or .glb asset found")
	// ErrNoScene is returned for documents that are valid but have no scene.
	ErrNoScene = errors.New("this model contains no scene, and cannot be viewed here; however, it may contain individual 3D resources")
)

// MissingTextureError reports an image URI that the file collection cannot
// resolve.
type MissingTextureError struct {
	Path string
	Err  error
}

func (e *MissingTextureError) Error() string {
	return fmt.Sprintf("missing texture %q: %v", e.Path, e.Err)
}

func (e *MissingTextureError) Unwrap() error { return e.Err }

// Describe turns a load failure into a message for the user.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var missing *MissingTextureError
	if errors.As(err, &missing) {
		return "Missing texture: " + path.Base(missing.Path)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return fmt.Sprintf("Unable to parse file content. Verify that this file is valid. Error: %q", err.Error())
	}

	var netErr net.Error
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) || errors.As(err, &netErr) {
		return "Unable to retrieve this file. Check the log for details."
	}

	switch {
	case errors.Is(err, ErrNoScene):
		return "This model contains no scene, and cannot be viewed here. However, it may contain individual 3D resources."
	case errors.Is(err, ErrNoRoot):
		return "No .gltf or .glb asset found."
	}
	return err.Error()
}
