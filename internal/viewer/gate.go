// Package viewer holds the render-thread state of the viewer: the readiness
// gate, panel settings and commands, and the orbit camera.
package viewer

// State is the readiness of the render loop.
type State int

const (
	// StateWaiting: the panel backend is not initialized yet.
	StateWaiting State = iota
	// StateNoModel: no model has finished loading.
	StateNoModel
	// StateNoData: the model renders but no dataset has loaded.
	StateNoData
	// StateReady: model and dataset are both present; materials may be bound.
	StateReady
)

func (s State) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StateNoModel:
		return "no-model"
	case StateNoData:
		return "no-data"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Event drives the gate.
type Event int

const (
	UIInitialized Event = iota
	ModelLoaded
	ModelCleared
	DataLoaded
)

func (e Event) String() string {
	switch e {
	case UIInitialized:
		return "ui-initialized"
	case ModelLoaded:
		return "model-loaded"
	case ModelCleared:
		return "model-cleared"
	case DataLoaded:
		return "data-loaded"
	default:
		return "unknown"
	}
}

// Gate combines the asynchronous load completions into one state. It is
// owned by the render loop and changed only through Fire.
type Gate struct {
	ui, model, data bool
}

// Fire applies e and returns the previous and the new state.
func (g *Gate) Fire(e Event) (from, to State) {
	from = g.State()
	switch e {
	case UIInitialized:
		g.ui = true
	case ModelLoaded:
		g.model = true
	case ModelCleared:
		g.model = false
	case DataLoaded:
		g.data = true
	}
	return from, g.State()
}

// State returns the current state.
func (g *Gate) State() State {
	switch {
	case !g.ui:
		return StateWaiting
	case !g.model:
		return StateNoModel
	case !g.data:
		return StateNoData
	default:
		return StateReady
	}
}

// CanRender reports whether a tick should do real work.
func (g *Gate) CanRender() bool { return g.ui && g.model }

// CanBind reports whether materials may be bound to data.
func (g *Gate) CanBind() bool { return g.State() == StateReady }
