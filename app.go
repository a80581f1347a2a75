package main

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/lucasb-eyer/go-colorful"
	"go.uber.org/zap"

	"gltf-data-viewer/internal/dataset"
	"gltf-data-viewer/internal/material"
	"gltf-data-viewer/internal/scene"
	"gltf-data-viewer/internal/viewer"
)

// sceneRenderer uploads and draws a model. *GLBRenderer implements it.
type sceneRenderer interface {
	LoadModel(m *scene.Model, reg *material.Registry) error
	Render(f Frame, reg *material.Registry)
	MeshCount() int
}

// panelSink receives panel snapshots. *HTTPServer implements it.
type panelSink interface {
	BroadcastSnapshot(snap viewer.Snapshot)
}

type modelResult struct {
	model *scene.Model
	err   error
}

type dataResult struct {
	source string
	data   *dataset.Dataset
	report *dataset.Report
	err    error
}

// App is the viewer state owned by the render loop. Loads run on
// goroutines and report back through channels drained by Tick, so every
// field is only touched on the render thread.
type App struct {
	cfg      Config
	log      *zap.Logger
	renderer sceneRenderer
	panel    panelSink

	// alert shows a blocking error to the user.
	alert func(title, message string)
	// setTitle updates the window caption.
	setTitle func(title string)

	gate       viewer.Gate
	settings   viewer.Settings
	background colorful.Color
	data       *dataset.Dataset
	entities   []string
	registry   *material.Registry
	camera     *viewer.Orbit
	gridScale  float32
	unmatched  []string
	notice     string
	dirty      bool

	models   chan modelResult
	datasets chan dataResult
}

func NewApp(cfg Config, log *zap.Logger, renderer sceneRenderer, panel panelSink) *App {
	a := &App{
		cfg:       cfg,
		log:       log,
		renderer:  renderer,
		panel:     panel,
		alert:     func(string, string) {},
		setTitle:  func(string) {},
		settings:  cfg.Settings(),
		registry:  material.NewRegistry(),
		camera:    viewer.NewOrbit(),
		gridScale: 1,
		entities:  []string{},
		models:    make(chan modelResult, 1),
		datasets:  make(chan dataResult, 1),
	}
	a.background = a.settings.BackgroundColor()
	return a
}

// Fire applies a readiness event. Materials are bound on entering the
// ready state.
func (a *App) Fire(e viewer.Event) {
	from, to := a.gate.Fire(e)
	if from == to {
		return
	}
	a.log.Info("viewer state", zap.Stringer("event", e), zap.Stringer("from", from), zap.Stringer("to", to))
	a.dirty = true
	if to == viewer.StateReady {
		a.bind()
	}
}

// LoadModelAsync decodes root from fsys off the render thread.
func (a *App) LoadModelAsync(fsys fs.FS, root string) {
	a.log.Info("loading model", zap.String("root", root))
	go func() {
		m, err := scene.Load(fsys, root)
		a.models <- modelResult{model: m, err: err}
	}()
}

// LoadDataAsync fetches and normalizes the dataset off the render thread.
func (a *App) LoadDataAsync(ctx context.Context, source string) {
	a.log.Info("loading dataset", zap.String("source", source))
	go func() {
		ds, report, err := dataset.Load(ctx, source)
		a.datasets <- dataResult{source: source, data: ds, report: report, err: err}
	}()
}

// poll hands finished loads to the render thread.
func (a *App) poll() {
	for {
		select {
		case res := <-a.models:
			a.handleModel(res)
		case res := <-a.datasets:
			a.handleData(res)
		default:
			return
		}
	}
}

func (a *App) handleModel(res modelResult) {
	if res.err != nil {
		a.fail(res.err)
		return
	}

	a.Fire(viewer.ModelCleared)
	if err := a.renderer.LoadModel(res.model, a.registry); err != nil {
		a.fail(err)
		return
	}

	lights := 0
	scene.Walk(res.model.Doc, func(n scene.Node) {
		if _, ok := n.(scene.LightNode); ok {
			lights++
		}
	})
	if lights > 0 {
		a.log.Info("model lights are not rendered, using camera lights", zap.Int("lights", lights))
	}

	if box, ok := scene.Bounds(res.model.Doc); ok {
		a.camera.Frame(box)
		a.gridScale = box.Size()
	}
	a.log.Info("model loaded",
		zap.String("root", res.model.Root),
		zap.Int("primitives", a.renderer.MeshCount()),
		zap.Int("materials", a.registry.Len()))
	a.log.Debug("material keys", zap.Strings("keys", a.registry.Keys()))
	a.notice = ""
	a.Fire(viewer.ModelLoaded)
}

func (a *App) handleData(res dataResult) {
	if res.err != nil {
		a.log.Error("dataset load failed", zap.String("source", res.source), zap.Error(res.err))
		a.notice = fmt.Sprintf("Unable to load data: %v", res.err)
		a.dirty = true
		return
	}
	for _, w := range res.report.Warnings {
		a.log.Warn("dataset row adjusted", zap.String("source", res.source), zap.Stringer("warning", w))
	}
	a.data = res.data
	a.refreshList()
	a.log.Info("dataset loaded", zap.String("source", res.source), zap.Int("entities", res.data.Len()))
	a.dirty = true

	if a.gate.CanBind() {
		a.bind()
		return
	}
	a.Fire(viewer.DataLoaded)
}

// fail reports a load failure once, at the top of the load pipeline.
func (a *App) fail(err error) {
	msg := scene.Describe(err)
	a.log.Error("load failed", zap.Error(err))
	a.notice = msg
	a.dirty = true
	a.alert("Unable to load model", msg)
}

func (a *App) bind() {
	if !a.gate.CanBind() {
		return
	}
	res := material.Bind(a.data, a.registry, a.settings.Selection())
	a.unmatched = res.Unmatched
	a.dirty = true
	switch res.Status {
	case material.StatusApplied:
		a.log.Debug("materials bound",
			zap.String("entity", res.Entity),
			zap.Strings("applied", res.Applied),
			zap.Strings("unmatched", res.Unmatched))
		a.setTitle(fmt.Sprintf("%s: Displaying %s", a.cfg.Title, res.Entity))
	default:
		a.log.Debug("materials unchanged", zap.String("entity", res.Entity), zap.Stringer("status", res.Status))
	}
}

// Apply runs one panel command on the render thread.
func (a *App) Apply(cmd viewer.Command) {
	dirty, err := viewer.Apply(&a.settings, cmd)
	if err != nil {
		a.log.Warn("panel command rejected", zap.String("op", cmd.Op), zap.Error(err))
		a.notice = err.Error()
		a.dirty = true
		return
	}
	if dirty.Has(viewer.DirtyBackground) {
		a.background = a.settings.BackgroundColor()
	}
	if dirty.Has(viewer.DirtyList) {
		a.refreshList()
	}
	if dirty.Has(viewer.DirtyMaterials) {
		a.bind()
	}
	a.dirty = true
}

// refreshList recomputes the filtered entity list shown by the panel.
func (a *App) refreshList() {
	a.entities = a.data.Filter(a.settings.Filter)
	if a.entities == nil {
		a.entities = []string{}
	}
}

// Step moves the selection through the filtered entity list, wrapping at
// both ends.
func (a *App) Step(delta int) {
	names := a.entities
	if len(names) == 0 {
		return
	}
	i := 0
	for j, name := range names {
		if name == a.settings.Entity {
			i = (j + delta) % len(names)
			if i < 0 {
				i += len(names)
			}
			break
		}
	}
	a.Apply(viewer.Command{Op: viewer.OpSelect, Text: names[i]})
}

// Snapshot returns the panel view of the current state.
func (a *App) Snapshot() viewer.Snapshot {
	return viewer.Snapshot{
		State:     a.gate.State().String(),
		Settings:  a.settings,
		Entities:  a.entities,
		Total:     a.data.Len(),
		Unmatched: a.unmatched,
		Notice:    a.notice,
	}
}

// Camera returns the orbit camera driven by input.
func (a *App) Camera() *viewer.Orbit { return a.camera }

// Tick runs one frame. Until the gate allows rendering it only collects
// finished loads. commands is drained during the panel step.
func (a *App) Tick(dt float32, commands <-chan viewer.Command, aspect float32) bool {
	a.poll()
	defer a.flush()

	if !a.gate.CanRender() {
		return false
	}

	a.camera.Update(dt, a.settings.AutoRotate)

drain:
	for {
		select {
		case cmd := <-commands:
			a.Apply(cmd)
		default:
			break drain
		}
	}

	a.renderer.Render(Frame{
		View:       a.camera.View(),
		Projection: a.camera.Projection(aspect),
		Background: a.background,
		Grid:       a.settings.Grid,
		GridScale:  a.gridScale,
	}, a.registry)
	return true
}

func (a *App) flush() {
	if !a.dirty || a.gate.State() == viewer.StateWaiting {
		return
	}
	a.dirty = false
	a.panel.BroadcastSnapshot(a.Snapshot())
}
