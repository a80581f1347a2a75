package main

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"gltf-data-viewer/internal/material"
	"gltf-data-viewer/internal/scene"
)

// Mesh represents a loaded primitive with OpenGL buffers
type Mesh struct {
	VAO         uint32
	VBO         uint32
	EBO         uint32
	Mode        uint32
	IndexCount  int32
	HasIndices  bool
	VertexCount int32
}

// drawItem is one primitive placed in the world. Material is a registry key;
// the registry owns the material itself.
type drawItem struct {
	mesh     *Mesh
	world    mgl32.Mat4
	normal   mgl32.Mat3
	material string
}

// Lights is the camera-attached lighting.
type Lights struct {
	Ambient mgl32.Vec3
	Direct  mgl32.Vec3
}

func lightsFromConfig(c LightConfig) Lights {
	scale := func(hex string, k float32) mgl32.Vec3 {
		col, err := colorful.Hex(hex)
		if err != nil {
			col = colorful.Color{R: 1, G: 1, B: 1}
		}
		return mgl32.Vec3{float32(col.R), float32(col.G), float32(col.B)}.Mul(k)
	}
	return Lights{
		Ambient: scale(c.AmbientColor, c.AmbientIntensity),
		Direct:  scale(c.DirectColor, c.DirectIntensity),
	}
}

// GLBRenderer draws a loaded glTF scene with per-name materials
type GLBRenderer struct {
	ShaderProgram uint32
	Lights        Lights

	meshes map[[2]int]*Mesh
	items  []drawItem
	grid   Mesh
	axes   Mesh

	// Uniform locations
	modelLoc      int32
	viewLoc       int32
	projectionLoc int32
	normalLoc     int32
	colorLoc      int32
	ambientLoc    int32
	directLoc     int32
	lightDirLoc   int32
	unlitLoc      int32
}

const vertexShaderSource = `
#version 410 core
layout (location = 0) in vec3 aPos;
layout (location = 1) in vec3 aNormal;

out vec3 Normal;

uniform mat4 model;
uniform mat4 view;
uniform mat4 projection;
uniform mat3 normalMatrix;

void main() {
    Normal = mat3(view) * normalMatrix * aNormal;
    gl_Position = projection * view * model * vec4(aPos, 1.0);
}
` + "\x00"

const fragmentShaderSource = `
#version 410 core
out vec4 FragColor;

in vec3 Normal;

uniform vec3 baseColor;
uniform vec3 ambient;
uniform vec3 direct;
uniform vec3 lightDir;
uniform bool unlit;

void main() {
    if (unlit) {
        FragColor = vec4(baseColor, 1.0);
        return;
    }
    vec3 norm = normalize(Normal);
    float diff = max(dot(norm, normalize(lightDir)), 0.0);
    vec3 lighting = ambient + direct * diff / 3.14159265;
    FragColor = vec4(baseColor * lighting, 1.0);
}
` + "\x00"

// cameraLightDir is the main light direction in view space, about 60 degrees
// off the view axis.
var cameraLightDir = mgl32.Vec3{0.5, 0, 0.866}

// NewGLBRenderer creates a new GLB renderer
func NewGLBRenderer(lights Lights) (*GLBRenderer, error) {
	r := &GLBRenderer{Lights: lights, meshes: make(map[[2]int]*Mesh)}

	// Compile shaders
	vertexShader, err := compileShader(vertexShaderSource, gl.VERTEX_SHADER)
	if err != nil {
		return nil, fmt.Errorf("vertex shader: %w", err)
	}

	fragmentShader, err := compileShader(fragmentShaderSource, gl.FRAGMENT_SHADER)
	if err != nil {
		return nil, fmt.Errorf("fragment shader: %w", err)
	}

	r.ShaderProgram = gl.CreateProgram()
	gl.AttachShader(r.ShaderProgram, vertexShader)
	gl.AttachShader(r.ShaderProgram, fragmentShader)
	gl.LinkProgram(r.ShaderProgram)

	var status int32
	gl.GetProgramiv(r.ShaderProgram, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(r.ShaderProgram, gl.INFO_LOG_LENGTH, &logLength)
		log := make([]byte, logLength)
		gl.GetProgramInfoLog(r.ShaderProgram, logLength, nil, &log[0])
		return nil, fmt.Errorf("program link: %s", string(log))
	}

	gl.DeleteShader(vertexShader)
	gl.DeleteShader(fragmentShader)

	r.modelLoc = gl.GetUniformLocation(r.ShaderProgram, gl.Str("model\x00"))
	r.viewLoc = gl.GetUniformLocation(r.ShaderProgram, gl.Str("view\x00"))
	r.projectionLoc = gl.GetUniformLocation(r.ShaderProgram, gl.Str("projection\x00"))
	r.normalLoc = gl.GetUniformLocation(r.ShaderProgram, gl.Str("normalMatrix\x00"))
	r.colorLoc = gl.GetUniformLocation(r.ShaderProgram, gl.Str("baseColor\x00"))
	r.ambientLoc = gl.GetUniformLocation(r.ShaderProgram, gl.Str("ambient\x00"))
	r.directLoc = gl.GetUniformLocation(r.ShaderProgram, gl.Str("direct\x00"))
	r.lightDirLoc = gl.GetUniformLocation(r.ShaderProgram, gl.Str("lightDir\x00"))
	r.unlitLoc = gl.GetUniformLocation(r.ShaderProgram, gl.Str("unlit\x00"))

	r.grid = uploadLines(gridLines(50, 50))
	r.axes = uploadLines(axisLines(1))

	return r, nil
}

// LoadModel replaces the drawn scene with m. Every mesh node acquires its
// material from reg, which is reset first.
func (r *GLBRenderer) LoadModel(m *scene.Model, reg *material.Registry) error {
	r.Clear()
	reg.Reset()

	doc := m.Doc
	var loadErr error
	scene.Walk(doc, func(n scene.Node) {
		mn, ok := n.(scene.MeshNode)
		if !ok || loadErr != nil {
			return
		}
		key, _ := reg.Acquire(mn.Name())
		world := mn.World()
		normal := world.Mat3().Inv().Transpose()
		for pi, prim := range doc.Meshes[mn.Mesh].Primitives {
			mesh, err := r.primitive(doc, mn.Mesh, pi, prim)
			if err != nil {
				loadErr = fmt.Errorf("mesh %q primitive %d: %w", mn.Name(), pi, err)
				return
			}
			r.items = append(r.items, drawItem{mesh: mesh, world: world, normal: normal, material: key})
		}
	})
	if loadErr != nil {
		r.Clear()
		reg.Reset()
		return loadErr
	}

	if len(r.items) == 0 {
		return fmt.Errorf("no meshes found in %s", m.Root)
	}
	return nil
}

// MeshCount returns the number of placed primitives.
func (r *GLBRenderer) MeshCount() int { return len(r.items) }

func (r *GLBRenderer) primitive(doc *gltf.Document, meshIdx, primIdx int, prim *gltf.Primitive) (*Mesh, error) {
	if m, ok := r.meshes[[2]int{meshIdx, primIdx}]; ok {
		return m, nil
	}
	m, err := loadPrimitive(doc, prim)
	if err != nil {
		return nil, err
	}
	r.meshes[[2]int{meshIdx, primIdx}] = m
	return m, nil
}

func loadPrimitive(doc *gltf.Document, prim *gltf.Primitive) (*Mesh, error) {
	vertexData, indices, err := readPrimitive(doc, prim)
	if err != nil {
		return nil, err
	}
	m := &Mesh{Mode: glMode(prim.Mode)}
	upload(m, vertexData, indices)
	if !m.HasIndices {
		m.VertexCount = int32(len(vertexData) / 6)
	}
	return m, nil
}

// readPrimitive decodes interleaved position/normal vertices and optional
// indices of prim.
func readPrimitive(doc *gltf.Document, prim *gltf.Primitive) ([]float32, []uint32, error) {
	posAccessorIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, nil, fmt.Errorf("no POSITION attribute")
	}
	posAccessor, err := accessor(doc, posAccessorIdx)
	if err != nil {
		return nil, nil, err
	}
	positions, err := modeler.ReadPosition(doc, posAccessor, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("read positions: %w", err)
	}

	// Normals are optional
	var normals [][3]float32
	if normalIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
		if acr, err := accessor(doc, normalIdx); err == nil {
			normals, err = modeler.ReadNormal(doc, acr, nil)
			if err != nil {
				normals = nil
			}
		}
	}

	// position (3) + normal (3) = 6 floats per vertex
	vertexData := make([]float32, 0, len(positions)*6)
	for i, pos := range positions {
		vertexData = append(vertexData, pos[0], pos[1], pos[2])
		if normals != nil && i < len(normals) {
			vertexData = append(vertexData, normals[i][0], normals[i][1], normals[i][2])
		} else {
			vertexData = append(vertexData, 0, 1, 0)
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		acr, err := accessor(doc, *prim.Indices)
		if err != nil {
			return nil, nil, err
		}
		indices, err = modeler.ReadIndices(doc, acr, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("read indices: %w", err)
		}
	}
	return vertexData, indices, nil
}

func accessor(doc *gltf.Document, idx int) (*gltf.Accessor, error) {
	if idx < 0 || idx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range (%d accessors)", idx, len(doc.Accessors))
	}
	return doc.Accessors[idx], nil
}

func upload(m *Mesh, vertexData []float32, indices []uint32) {
	gl.GenVertexArrays(1, &m.VAO)
	gl.BindVertexArray(m.VAO)

	gl.GenBuffers(1, &m.VBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.VBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertexData)*4, gl.Ptr(vertexData), gl.STATIC_DRAW)

	stride := int32(6 * 4)

	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(0)

	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, stride, 3*4)
	gl.EnableVertexAttribArray(1)

	if len(indices) > 0 {
		gl.GenBuffers(1, &m.EBO)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.EBO)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, gl.Ptr(indices), gl.STATIC_DRAW)
		m.HasIndices = true
		m.IndexCount = int32(len(indices))
	}

	gl.BindVertexArray(0)
}

func uploadLines(vertexData []float32) Mesh {
	m := Mesh{Mode: gl.LINES, VertexCount: int32(len(vertexData) / 6)}
	upload(&m, vertexData, nil)
	return m
}

func glMode(mode gltf.PrimitiveMode) uint32 {
	switch mode {
	case gltf.PrimitivePoints:
		return gl.POINTS
	case gltf.PrimitiveLines:
		return gl.LINES
	case gltf.PrimitiveLineLoop:
		return gl.LINE_LOOP
	case gltf.PrimitiveLineStrip:
		return gl.LINE_STRIP
	case gltf.PrimitiveTriangleStrip:
		return gl.TRIANGLE_STRIP
	case gltf.PrimitiveTriangleFan:
		return gl.TRIANGLE_FAN
	default:
		return gl.TRIANGLES
	}
}

// Frame holds what changes between frames.
type Frame struct {
	View       mgl32.Mat4
	Projection mgl32.Mat4
	Background colorful.Color
	Grid       bool
	GridScale  float32
}

// Render draws the scene with the materials held by reg
func (r *GLBRenderer) Render(f Frame, reg *material.Registry) {
	gl.ClearColor(float32(f.Background.R), float32(f.Background.G), float32(f.Background.B), 1.0)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	gl.UseProgram(r.ShaderProgram)
	gl.UniformMatrix4fv(r.projectionLoc, 1, false, &f.Projection[0])
	gl.UniformMatrix4fv(r.viewLoc, 1, false, &f.View[0])
	gl.Uniform3fv(r.ambientLoc, 1, &r.Lights.Ambient[0])
	gl.Uniform3fv(r.directLoc, 1, &r.Lights.Direct[0])
	gl.Uniform3fv(r.lightDirLoc, 1, &cameraLightDir[0])
	gl.Uniform1i(r.unlitLoc, 0)

	for _, item := range r.items {
		mat, ok := reg.Get(item.material)
		if !ok || !mat.Visible {
			continue
		}
		gl.UniformMatrix4fv(r.modelLoc, 1, false, &item.world[0])
		gl.UniformMatrix3fv(r.normalLoc, 1, false, &item.normal[0])
		gl.Uniform3fv(r.colorLoc, 1, &mat.Color[0])
		draw(item.mesh)
	}

	if f.Grid {
		r.renderHelpers(f.GridScale)
	}
	gl.BindVertexArray(0)
}

func (r *GLBRenderer) renderHelpers(scale float32) {
	gl.Uniform1i(r.unlitLoc, 1)
	ident := mgl32.Ident4()
	normal := mgl32.Ident3()
	gl.UniformMatrix3fv(r.normalLoc, 1, false, &normal[0])

	gray := mgl32.Vec3{0.53, 0.53, 0.53}
	gl.UniformMatrix4fv(r.modelLoc, 1, false, &ident[0])
	gl.Uniform3fv(r.colorLoc, 1, &gray[0])
	draw(&r.grid)

	// Axes are drawn on top.
	gl.Disable(gl.DEPTH_TEST)
	axes := mgl32.Scale3D(scale, scale, scale)
	gl.UniformMatrix4fv(r.modelLoc, 1, false, &axes[0])
	for i, c := range []mgl32.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}} {
		gl.Uniform3fv(r.colorLoc, 1, &c[0])
		gl.BindVertexArray(r.axes.VAO)
		gl.DrawArrays(gl.LINES, int32(i*2), 2)
	}
	gl.Enable(gl.DEPTH_TEST)
}

func draw(m *Mesh) {
	gl.BindVertexArray(m.VAO)
	if m.HasIndices {
		gl.DrawElements(m.Mode, m.IndexCount, gl.UNSIGNED_INT, nil)
	} else {
		gl.DrawArrays(m.Mode, 0, m.VertexCount)
	}
}

// Clear releases the buffers of the current scene. Helper geometry stays.
func (r *GLBRenderer) Clear() {
	for _, mesh := range r.meshes {
		deleteMesh(mesh)
	}
	r.meshes = make(map[[2]int]*Mesh)
	r.items = nil
}

// Destroy cleans up OpenGL resources
func (r *GLBRenderer) Destroy() {
	r.Clear()
	deleteMesh(&r.grid)
	deleteMesh(&r.axes)
	gl.DeleteProgram(r.ShaderProgram)
}

func deleteMesh(m *Mesh) {
	gl.DeleteVertexArrays(1, &m.VAO)
	gl.DeleteBuffers(1, &m.VBO)
	if m.HasIndices {
		gl.DeleteBuffers(1, &m.EBO)
	}
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source)
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := make([]byte, logLength)
		gl.GetShaderInfoLog(shader, logLength, nil, &log[0])
		return 0, fmt.Errorf("compile: %s", string(log))
	}

	return shader, nil
}
