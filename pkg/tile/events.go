package tile

// World is the game-world context handed to event handlers.
type World interface {
	// Tick is the number of fixed update ticks since the world started.
	Tick() uint64
	// Seconds is the total elapsed time.
	Seconds() float64
	Environment() Environment
	Weather() Weather
	// Trigger asks the world to run a named effect at a cell, for example
	// a random encounter check.
	Trigger(effect string, at Point)
}

// EventHandler receives interaction events for cells holding a kind.
type EventHandler interface {
	OnWalkEnter(w World, meta MetadataStore, at Point)
	OnStandingOn(w World, meta MetadataStore, at Point)
	OnWalkLeave(w World, meta MetadataStore, at Point)
	OnInteract(w World, meta MetadataStore, at Point)
}

// HandlerFunc handles a single event.
type HandlerFunc func(w World, meta MetadataStore, at Point)

// HandlerFuncs adapts optional functions to an EventHandler.
type HandlerFuncs struct {
	WalkEnter  HandlerFunc
	StandingOn HandlerFunc
	WalkLeave  HandlerFunc
	Interact   HandlerFunc
}

func (h HandlerFuncs) OnWalkEnter(w World, meta MetadataStore, at Point) {
	if h.WalkEnter != nil {
		h.WalkEnter(w, meta, at)
	}
}

func (h HandlerFuncs) OnStandingOn(w World, meta MetadataStore, at Point) {
	if h.StandingOn != nil {
		h.StandingOn(w, meta, at)
	}
}

func (h HandlerFuncs) OnWalkLeave(w World, meta MetadataStore, at Point) {
	if h.WalkLeave != nil {
		h.WalkLeave(w, meta, at)
	}
}

func (h HandlerFuncs) OnInteract(w World, meta MetadataStore, at Point) {
	if h.Interact != nil {
		h.Interact(w, meta, at)
	}
}
