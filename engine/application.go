package engine

import (
	"fmt"
	"time"

	"github.com/spaghettifunk/atelier/engine/broker"
	"github.com/spaghettifunk/atelier/engine/cart"
	"github.com/spaghettifunk/atelier/engine/catalog"
	"github.com/spaghettifunk/atelier/engine/core"
	"github.com/spaghettifunk/atelier/engine/diagnostic"
	"github.com/spaghettifunk/atelier/engine/scene"
	"github.com/spaghettifunk/atelier/engine/session"
	"github.com/spaghettifunk/atelier/engine/store"
)

type Stage uint8

const (
	// Application is in an uninitialized state
	StageUninitialized Stage = iota
	// Application is currently initializing
	StageInitializing
	// Application initialization is complete
	StageInitialized
	// Application is currently running
	StageRunning
	// Application is in the process of shutting down
	StageShuttingDown
)

/**
 * @brief Application wires the storefront subsystems together: the durable
 * store, the avatar reference broker, the garment catalog with hot reload,
 * the creation-session adapter, the try-on scene, and the cart.
 */
type Application struct {
	currentStage Stage
	config       *ApplicationConfig

	store   store.Store
	broker  *broker.Broker
	catalog *catalog.Catalog
	watcher *catalog.Watcher
	adapter *session.Adapter
	scene   *scene.Scene
	cart    *cart.Cart

	clock    *core.Clock
	quit     chan struct{}
	unsubRef func()
}

func New(config *ApplicationConfig) (*Application, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &Application{
		currentStage: StageUninitialized,
		config:       config,
		clock:        core.NewClock(),
		quit:         make(chan struct{}),
	}, nil
}

func (a *Application) Initialize() error {
	a.currentStage = StageInitializing

	if !core.EventSystemInitialize() {
		return fmt.Errorf("failed to initialize the event system")
	}
	core.MetricsInitialize()

	core.EventRegister(core.EVENT_CODE_APPLICATION_QUIT, a.onEvent)
	core.EventRegister(core.EVENT_CODE_AVATAR_LOAD_FAILED, a.onEvent)

	sqlStore, err := store.NewSQLiteStore(a.config.StorePath)
	if err != nil {
		core.LogError(err.Error())
		return err
	}
	a.store = sqlStore
	a.broker = broker.New(a.store)
	a.cart = cart.New(a.store)

	a.catalog, err = catalog.Load(a.config.CatalogPath)
	if err != nil {
		core.LogError(err.Error())
		return err
	}
	a.watcher, err = catalog.Watch(a.catalog, a.config.CatalogPath, nil)
	if err != nil {
		core.LogError(err.Error())
		return err
	}

	a.adapter = session.NewAdapter(&session.AdapterConfig{
		CreatorDomain:         a.config.CreatorDomain,
		RequireModelExtension: a.config.RequireModelExtension,
	}, a.broker, a.store)

	fetcher := a.config.Fetcher
	if fetcher == nil {
		fetcher = scene.NewHTTPFetcher(time.Duration(a.config.FetchTimeoutSeconds) * time.Second)
	}
	a.scene = scene.NewScene(&scene.SceneConfig{
		Fetcher:   fetcher,
		TargetFPS: a.config.TargetFPS,
	})

	// Every reference change, whatever initiated it, flows into the scene.
	a.unsubRef = a.broker.Subscribe(func(ref string, ok bool) {
		if !ok {
			a.scene.RemoveGarment()
			return
		}
		if err := a.scene.LoadAvatar(ref); err != nil {
			core.LogError("failed to schedule avatar load: %s", err.Error())
		}
	})

	a.currentStage = StageInitialized
	core.LogInfo("%s initialized (catalog: %d garments)", a.config.Name, a.catalog.Len())
	return nil
}

// Run starts event processing, the session adapter, and the render loop, then
// blocks until an application quit event or a Shutdown call.
func (a *Application) Run() error {
	if a.currentStage != StageInitialized {
		return fmt.Errorf("application not initialized")
	}
	a.currentStage = StageRunning
	a.clock.Start()

	go core.ProcessEvents()
	a.adapter.Start()
	if err := a.scene.StartRenderLoop(); err != nil {
		return err
	}

	// Resume the persisted avatar, if any.
	if ref, ok := a.broker.Get(); ok {
		if err := a.scene.LoadAvatar(ref); err != nil {
			core.LogError("failed to resume persisted avatar: %s", err.Error())
		}
	}

	<-a.quit
	a.clock.Update()
	core.LogInfo("%s ran for %.1fs", a.config.Name, a.clock.Elapsed())
	return nil
}

func (a *Application) Shutdown() error {
	if a.currentStage == StageShuttingDown {
		return nil
	}
	a.currentStage = StageShuttingDown

	select {
	case <-a.quit:
	default:
		close(a.quit)
	}

	if a.unsubRef != nil {
		a.unsubRef()
	}
	if a.adapter != nil {
		a.adapter.Stop()
	}
	if a.scene != nil {
		a.scene.Teardown()
	}
	if a.watcher != nil {
		if err := a.watcher.Close(); err != nil {
			core.LogError("catalog watcher close failed: %s", err.Error())
		}
	}
	if err := core.EventSystemShutdown(); err != nil {
		return err
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			return err
		}
	}
	core.LogInfo("%s shut down", a.config.Name)
	return nil
}

// Diagnose reconciles the avatar reference across the store, the broker, and
// the scene's live avatar.
func (a *Application) Diagnose() diagnostic.Report {
	var local *string
	if av := a.scene.Avatar(); av != nil {
		ref := av.Ref
		local = &ref
	}
	return diagnostic.Reconcile(diagnostic.Collect(a.store, a.broker, local))
}

func (a *Application) Store() store.Store        { return a.store }
func (a *Application) Broker() *broker.Broker    { return a.broker }
func (a *Application) Catalog() *catalog.Catalog { return a.catalog }
func (a *Application) Adapter() *session.Adapter { return a.adapter }
func (a *Application) Scene() *scene.Scene       { return a.scene }
func (a *Application) Cart() *cart.Cart          { return a.cart }

func (a *Application) onEvent(context core.EventContext) {
	switch context.Type {
	case core.EVENT_CODE_APPLICATION_QUIT:
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		select {
		case <-a.quit:
		default:
			close(a.quit)
		}
	case core.EVENT_CODE_AVATAR_LOAD_FAILED:
		if err, ok := context.Data.(error); ok {
			core.LogWarn("avatar load failed: %s", err.Error())
		}
	}
}
