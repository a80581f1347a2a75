// gltf-data-viewer shows a glTF model and recolors its meshes from a table
// of per-entity values.
//
// Controls:
//
//	Mouse drag  - Orbit
//	Scroll      - Zoom
//	Up/Down     - Previous/next entity in the filtered list
//	R           - Reset camera
//	Drop files  - Load a .gltf (with its resources) or .glb
//
// The control panel is served over HTTP; open the configured address in a
// browser.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/spf13/cobra"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"gltf-data-viewer/internal/dataset"
	"gltf-data-viewer/internal/scene"
	"gltf-data-viewer/internal/viewer"
)

func init() {
	// This is needed to arrange that main() runs on the main thread.
	// OpenGL and SDL2 require this.
	runtime.LockOSThread()
}

type options struct {
	configPath string
	data       string
	httpAddr   string
	staticDir  string
	entity     string
	debug      bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "gltf-data-viewer [model.gltf|model.glb]",
		Short: "glTF viewer that colors meshes from per-entity data",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config(cmd)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				cfg.Model = args[0]
			}
			return run(cfg)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", defaultConfigFile, "TOML configuration file")
	cmd.Flags().StringVar(&opts.data, "data", "", "dataset CSV path or URL")
	cmd.Flags().StringVar(&opts.httpAddr, "http", "", "panel server address")
	cmd.Flags().StringVar(&opts.staticDir, "static", "", "panel static files directory")
	cmd.Flags().StringVar(&opts.entity, "entity", "", "entity selected at startup")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "development logging")

	cmd.AddCommand(newEntitiesCmd())
	return cmd
}

// config loads the config file and applies the flags that were set.
func (o *options) config(cmd *cobra.Command) (Config, error) {
	cfg, err := loadConfig(o.configPath, cmd.Flags().Changed("config"))
	if err != nil {
		return cfg, err
	}
	if o.data != "" {
		cfg.Data = o.data
	}
	if o.httpAddr != "" {
		cfg.HTTPAddr = o.httpAddr
	}
	if o.staticDir != "" {
		cfg.StaticDir = o.staticDir
	}
	if o.entity != "" {
		cfg.Panel.Entity = o.entity
	}
	if o.debug {
		cfg.Debug = true
	}
	return cfg, nil
}

func newEntitiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "entities <data.csv|url>",
		Short: "Print the normalized dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, report, err := dataset.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printEntities(cmd, ds, report)
		},
	}
}

func printEntities(cmd *cobra.Command, ds *dataset.Dataset, report *dataset.Report) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, name := range ds.Names() {
		rec, _ := ds.Lookup(name)
		fmt.Fprintf(w, "%s", name)
		for _, col := range sortedKeys(rec.Values) {
			fmt.Fprintf(w, "\t%s=%.3f", col, rec.Values[col])
		}
		fmt.Fprintln(w)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	for _, warn := range report.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", warn)
	}
	return nil
}

func run(cfg Config) error {
	log, err := newLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize SDL2 with OpenGL
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return fmt.Errorf("initialize SDL2: %w", err)
	}
	defer sdl.Quit()

	sdl.GLSetAttribute(sdl.GL_CONTEXT_MAJOR_VERSION, 4)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_MINOR_VERSION, 1)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_PROFILE_MASK, sdl.GL_CONTEXT_PROFILE_CORE)
	sdl.GLSetAttribute(sdl.GL_DOUBLEBUFFER, 1)
	sdl.GLSetAttribute(sdl.GL_DEPTH_SIZE, 24)
	sdl.GLSetAttribute(sdl.GL_MULTISAMPLEBUFFERS, 1)
	sdl.GLSetAttribute(sdl.GL_MULTISAMPLESAMPLES, 4)

	window, err := sdl.CreateWindow(cfg.Title,
		sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		cfg.Window.Width, cfg.Window.Height,
		sdl.WINDOW_SHOWN|sdl.WINDOW_OPENGL|sdl.WINDOW_RESIZABLE|sdl.WINDOW_ALLOW_HIGHDPI)
	if err != nil {
		return fmt.Errorf("create SDL2 window: %w", err)
	}
	defer window.Destroy()

	glContext, err := window.GLCreateContext()
	if err != nil {
		return fmt.Errorf("create OpenGL context: %w", err)
	}
	defer sdl.GLDeleteContext(glContext)

	if err := gl.Init(); err != nil {
		return fmt.Errorf("initialize OpenGL: %w", err)
	}
	checkCapabilities(log)
	sdl.EventState(sdl.DROPFILE, sdl.ENABLE)

	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.MULTISAMPLE)

	glbRenderer, err := NewGLBRenderer(lightsFromConfig(cfg.Light))
	if err != nil {
		return fmt.Errorf("create GLB renderer: %w", err)
	}
	defer glbRenderer.Destroy()

	httpServer := NewHTTPServer(cfg.HTTPAddr, cfg.StaticDir, log)
	app := NewApp(cfg, log, glbRenderer, httpServer)
	app.alert = func(title, message string) {
		if err := sdl.ShowSimpleMessageBox(sdl.MESSAGEBOX_ERROR, title, message, window); err != nil {
			log.Warn("message box", zap.Error(err))
		}
	}
	app.setTitle = window.SetTitle

	app.LoadDataAsync(ctx, cfg.Data)
	if cfg.Model != "" {
		abs, err := filepath.Abs(cfg.Model)
		if err != nil {
			return fmt.Errorf("model path: %w", err)
		}
		app.LoadModelAsync(os.DirFS(filepath.Dir(abs)), filepath.Base(abs))
	}

	if err := httpServer.Start(); err != nil {
		log.Error("panel server failed to start, panel unavailable", zap.Error(err))
	} else {
		defer httpServer.Stop()
		app.Fire(viewer.UIInitialized)
	}

	ticker := time.NewTicker(cfg.FrameInterval())
	defer ticker.Stop()

	log.Info("starting render loop", zap.String("panel", cfg.HTTPAddr))

	input := &inputState{}
	frameCount := 0
	lastLog := time.Now()
	last := time.Now()

	for {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			if !input.handle(event, app) {
				log.Info("window closed")
				return nil
			}
		}

		select {
		case <-ctx.Done():
			log.Info("shutting down")
			return nil
		case now := <-ticker.C:
			dt := float32(now.Sub(last).Seconds())
			last = now

			winW, winH := window.GLGetDrawableSize()
			gl.Viewport(0, 0, winW, winH)
			aspect := float32(winW) / float32(max(winH, 1))

			if app.Tick(dt, httpServer.Commands(), aspect) {
				window.GLSwap()
				frameCount++
			}

			if time.Since(lastLog) >= 5*time.Second {
				log.Debug("render stats",
					zap.Int("frames", frameCount),
					zap.Int("panels", httpServer.WebSocketClientCount()))
				frameCount = 0
				lastLog = time.Now()
			}
		}
	}
}

// checkCapabilities logs once when the context is weaker than requested.
// Rendering continues regardless.
func checkCapabilities(log *zap.Logger) {
	log.Info("OpenGL",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("glsl", gl.GoStr(gl.GetString(gl.SHADING_LANGUAGE_VERSION))))

	major, err1 := sdl.GLGetAttribute(sdl.GL_CONTEXT_MAJOR_VERSION)
	minor, err2 := sdl.GLGetAttribute(sdl.GL_CONTEXT_MINOR_VERSION)
	if err1 != nil || err2 != nil || major < 4 || (major == 4 && minor < 1) {
		log.Warn("OpenGL 4.1 core is not available, rendering may be broken",
			zap.Int("major", major), zap.Int("minor", minor))
	}
}

// inputState turns SDL events into camera moves, selection steps and drops.
type inputState struct {
	dropping bool
	dropped  scene.FileSet
}

const (
	rotateSpeed = 0.005
	zoomStep    = 0.9
)

// handle returns false when the window should close.
func (in *inputState) handle(event sdl.Event, app *App) bool {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		return false

	case *sdl.MouseMotionEvent:
		if e.State&sdl.ButtonLMask() != 0 {
			app.Camera().Rotate(-float32(e.XRel)*rotateSpeed, float32(e.YRel)*rotateSpeed)
		}

	case *sdl.MouseWheelEvent:
		switch {
		case e.Y > 0:
			app.Camera().Zoom(zoomStep)
		case e.Y < 0:
			app.Camera().Zoom(1 / zoomStep)
		}

	case *sdl.KeyboardEvent:
		if e.Type != sdl.KEYDOWN {
			break
		}
		switch e.Keysym.Sym {
		case sdl.K_r:
			app.Camera().Reset()
		case sdl.K_UP:
			app.Step(-1)
		case sdl.K_DOWN:
			app.Step(1)
		}

	case *sdl.DropEvent:
		in.drop(e, app)
	}
	return true
}

func (in *inputState) drop(e *sdl.DropEvent, app *App) {
	switch e.Type {
	case sdl.DROPBEGIN:
		in.dropping = true
		in.dropped = scene.FileSet{}
		return
	case sdl.DROPFILE:
		if in.dropped == nil {
			in.dropped = scene.FileSet{}
		}
		if err := in.dropped.Add(e.File); err != nil {
			app.fail(err)
		}
		if in.dropping {
			return
		}
	case sdl.DROPCOMPLETE:
		in.dropping = false
	default:
		return
	}

	set := in.dropped
	in.dropped = nil
	if len(set) == 0 {
		return
	}
	root, err := set.Root()
	if err != nil {
		app.fail(err)
		return
	}
	app.LoadModelAsync(set, root)
}
