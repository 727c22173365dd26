package scene

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/spaghettifunk/atelier/engine/catalog"
	"github.com/spaghettifunk/atelier/engine/core"
	"github.com/spaghettifunk/atelier/engine/math"
)

// ErrNoAvatar rejects garment operations while the scene has no avatar mesh.
var ErrNoAvatar = errors.New("no avatar loaded in scene")

// Skin tone applied to avatar meshes until real materials are streamed in.
const avatarBaseColor = "#C88F6B"

// Idle spin applied to the avatar by the frame loop, radians per second.
const defaultRotationSpeed = 0.5

/**
 * @brief AvatarMesh is the loaded avatar model: its source reference, its
 * owned geometry and material, and its world transform. The scene centers
 * the mesh on X/Z and rests its feet on the ground plane.
 */
type AvatarMesh struct {
	Ref      string
	Position math.Vec3
	Rotation float32

	geometry *Geometry
	material *Material
}

// Bounds returns the mesh extents in world space.
func (a *AvatarMesh) Bounds() math.Extents3D {
	return a.geometry.Extents.Translate(a.Position)
}

func (a *AvatarMesh) dispose() {
	if a.geometry != nil {
		a.geometry.Destroy()
		a.geometry = nil
	}
	if a.material != nil {
		a.material.Destroy()
		a.material = nil
	}
}

type SceneConfig struct {
	Fetcher       Fetcher
	TargetFPS     int
	RotationSpeed float32
}

/**
 * @brief Scene owns the avatar mesh and at most one garment overlay. All
 * asset loads run on a single worker goroutine; generation counters make the
 * latest request win when loads overlap. Teardown flips the mounted flag so
 * in-flight work lands harmlessly.
 */
type Scene struct {
	mu      sync.Mutex
	config  *SceneConfig
	fetcher Fetcher

	// Cancelled on teardown so in-flight fetches abort instead of running
	// out their timeout.
	ctx    context.Context
	cancel context.CancelFunc

	mounted   bool
	avatar    *AvatarMesh
	overlay   *Overlay
	isLoading bool
	loadErr   error

	loadGeneration    uint64
	overlayGeneration uint64

	tasks chan func()
	quit  chan struct{}
	wg    sync.WaitGroup

	renderRunning bool
	renderDone    chan struct{}
	renderWG      sync.WaitGroup
}

func NewScene(config *SceneConfig) *Scene {
	if config == nil {
		config = &SceneConfig{}
	}
	if config.Fetcher == nil {
		config.Fetcher = NewHTTPFetcher(0)
	}
	if config.TargetFPS <= 0 {
		config.TargetFPS = 60
	}
	if config.RotationSpeed == 0 {
		config.RotationSpeed = defaultRotationSpeed
	}

	s := &Scene{
		config:  config,
		fetcher: config.Fetcher,
		mounted: true,
		tasks:   make(chan func(), 16),
		quit:    make(chan struct{}),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.wg.Add(1)
	go s.worker()
	return s
}

func (s *Scene) worker() {
	defer s.wg.Done()
	for {
		select {
		case <-s.quit:
			return
		case fn := <-s.tasks:
			fn()
		}
	}
}

func (s *Scene) submit(fn func()) {
	select {
	case <-s.quit:
	case s.tasks <- fn:
	}
}

// LoadAvatar schedules an asynchronous fetch-and-install of the avatar model.
// Reloading the reference that is already live is a no-op. When loads
// overlap, only the most recently requested one installs.
func (s *Scene) LoadAvatar(ref string) error {
	s.mu.Lock()
	if !s.mounted {
		s.mu.Unlock()
		return core.ErrNotMounted
	}
	if s.avatar != nil && s.avatar.Ref == ref && s.loadErr == nil && !s.isLoading {
		s.mu.Unlock()
		core.LogDebug("scene: avatar %s already live, skipping reload", ref)
		return nil
	}
	s.isLoading = true
	s.loadErr = nil
	s.loadGeneration++
	gen := s.loadGeneration
	s.mu.Unlock()

	core.LogInfo("scene: loading avatar %s", ref)
	s.submit(func() { s.loadAvatarTask(ref, gen) })
	return nil
}

func (s *Scene) loadAvatarTask(ref string, gen uint64) {
	data, err := s.fetcher.Fetch(s.ctx, ref)

	var (
		extents     math.Extents3D
		vertexCount int
	)
	if err == nil {
		extents, vertexCount, err = parseModelExtents(data)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted || gen != s.loadGeneration {
		// Superseded by a later load or torn down; nothing was installed.
		return
	}
	s.isLoading = false

	if err != nil {
		s.loadErr = fmt.Errorf("loading avatar %s: %w", ref, err)
		core.LogError("scene: %s", s.loadErr.Error())
		core.EventFire(core.EventContext{
			Type: core.EVENT_CODE_AVATAR_LOAD_FAILED,
			Data: s.loadErr,
		})
		return
	}

	// The replacement disposes everything anchored to the old mesh.
	if s.avatar != nil {
		s.avatar.dispose()
		s.avatar = nil
	}
	s.disposeOverlayLocked()
	s.overlayGeneration++

	// Center on X/Z, feet on the ground plane.
	center := extents.Center()
	position := math.NewVec3(-center.X, -extents.Min.Y, -center.Z)

	s.avatar = &AvatarMesh{
		Ref:      ref,
		Position: position,
		geometry: NewMeshGeometry("avatar", vertexCount, extents),
		material: NewFlatMaterial("avatar_skin", avatarBaseColor, 1.0),
	}
	core.LogInfo("scene: avatar %s installed (%d vertices)", ref, vertexCount)
	core.EventFire(core.EventContext{
		Type: core.EVENT_CODE_AVATAR_LOADED,
		Data: ref,
	})
}

// SetGarment replaces the current overlay with one for the given garment.
// The prior overlay's resources are released before the replacement is
// constructed. The overlay image is fetched asynchronously; until it decodes
// (or if it fails), the quad shows a translucent flat-color fallback.
func (s *Scene) SetGarment(garment catalog.GarmentDescriptor, color catalog.Swatch, size string) error {
	s.mu.Lock()
	if !s.mounted {
		s.mu.Unlock()
		return core.ErrNotMounted
	}
	if s.avatar == nil || s.isLoading {
		s.mu.Unlock()
		core.LogWarn("scene: garment %s selected with no avatar live, ignoring", garment.ID)
		return ErrNoAvatar
	}

	s.disposeOverlayLocked()
	s.overlayGeneration++
	gen := s.overlayGeneration
	bounds := s.avatar.Bounds()

	rule := ruleForCategory(garment.Category)
	width, height, position := overlayFrame(rule, bounds)

	fallback := avatarBaseColor
	if color.Value != "" {
		fallback = color.Value
	}
	o := &Overlay{
		Garment:  garment,
		Color:    color,
		Size:     size,
		Position: position,
		Width:    width,
		Height:   height,
		geometry: NewPlaneGeometry(garment.ID+"_overlay", width, height),
		material: NewFlatMaterial(garment.ID+"_fallback", fallback, fallbackOpacity),
	}
	s.overlay = o
	s.mu.Unlock()

	core.EventFire(core.EventContext{
		Type: core.EVENT_CODE_GARMENT_SELECTED,
		Data: garment.ID,
	})

	imageRef := garment.OverlayImage
	if imageRef == "" {
		imageRef = garment.Thumbnail
	}
	if imageRef != "" {
		s.submit(func() { s.textureOverlayTask(garment, imageRef, gen) })
	}
	return nil
}

// textureOverlayTask fetches and decodes the garment image, then swaps the
// fallback quad for a textured one sized to the image's aspect ratio. A
// superseded or torn-down overlay generation discards the result.
func (s *Scene) textureOverlayTask(garment catalog.GarmentDescriptor, imageRef string, gen uint64) {
	data, err := s.fetcher.Fetch(s.ctx, imageRef)
	var tex *Texture
	if err == nil {
		tex, err = decodeTexture(garment.ID, data)
	}
	if err != nil {
		core.LogWarn("scene: garment %s image unavailable, keeping flat color: %s", garment.ID, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted || gen != s.overlayGeneration || s.overlay == nil {
		tex.Destroy()
		return
	}

	// The image's aspect ratio overrides the category height so the garment
	// is never stretched.
	o := s.overlay
	height := o.Width / tex.AspectRatio()

	if o.geometry != nil {
		o.geometry.Destroy()
	}
	if o.material != nil {
		o.material.Destroy()
	}
	o.geometry = NewPlaneGeometry(garment.ID+"_overlay", o.Width, height)
	o.material = NewTexturedMaterial(garment.ID, tex)
	o.texture = tex
	o.Height = height
	o.Textured = true
	core.LogDebug("scene: garment %s textured %gx%g", garment.ID, o.Width, o.Height)
}

// RemoveGarment releases the current overlay, if any.
func (s *Scene) RemoveGarment() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overlayGeneration++
	s.disposeOverlayLocked()
}

func (s *Scene) disposeOverlayLocked() {
	if s.overlay != nil {
		s.overlay.dispose()
		s.overlay = nil
	}
}

// Avatar returns the live avatar mesh, if any. Nil while loading or after a
// failed load that had no prior mesh.
func (s *Scene) Avatar() *AvatarMesh {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.avatar
}

// Overlay returns the installed garment overlay, if any.
func (s *Scene) Overlay() *Overlay {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overlay
}

// IsLoading reports whether an avatar load is in flight.
func (s *Scene) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isLoading
}

// LoadError returns the error from the most recent failed avatar load.
func (s *Scene) LoadError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadErr
}

// WaitIdle blocks until the worker has drained all scheduled tasks.
// Intended for tests and synchronous hosts.
func (s *Scene) WaitIdle() {
	done := make(chan struct{})
	s.submit(func() { close(done) })
	select {
	case <-done:
	case <-s.quit:
	}
}

// StartRenderLoop begins ticking frames at the configured rate, applying the
// idle avatar rotation and feeding the frame metrics. Returns immediately if
// the loop is already running.
func (s *Scene) StartRenderLoop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted {
		return core.ErrNotMounted
	}
	if s.renderRunning {
		return nil
	}
	s.renderRunning = true
	s.renderDone = make(chan struct{})
	done := s.renderDone
	interval := time.Second / time.Duration(s.config.TargetFPS)

	s.renderWG.Add(1)
	go func() {
		defer s.renderWG.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		last := time.Now()
		for {
			select {
			case <-done:
				return
			case now := <-ticker.C:
				delta := now.Sub(last).Seconds()
				last = now
				s.frame(delta)
			}
		}
	}()
	return nil
}

// StopRenderLoop halts frame ticking. The scene contents are untouched.
func (s *Scene) StopRenderLoop() {
	s.mu.Lock()
	if !s.renderRunning {
		s.mu.Unlock()
		return
	}
	s.renderRunning = false
	close(s.renderDone)
	s.mu.Unlock()
	s.renderWG.Wait()
}

func (s *Scene) frame(delta float64) {
	s.mu.Lock()
	if s.mounted && s.avatar != nil {
		s.avatar.Rotation += s.config.RotationSpeed * float32(delta)
	}
	s.mu.Unlock()
	core.MetricsUpdate(delta)
	core.MetricsFrame()
}

// Teardown stops the loops, releases every scene resource, and marks the
// scene unmounted. In-flight loads observe the flag and discard their
// results. Safe to call more than once.
func (s *Scene) Teardown() {
	s.StopRenderLoop()

	s.mu.Lock()
	if !s.mounted {
		s.mu.Unlock()
		return
	}
	s.mounted = false
	s.loadGeneration++
	s.overlayGeneration++
	s.isLoading = false
	if s.avatar != nil {
		s.avatar.dispose()
		s.avatar = nil
	}
	s.disposeOverlayLocked()
	s.mu.Unlock()

	s.cancel()
	close(s.quit)
	s.wg.Wait()
	core.LogInfo("scene: torn down")
}
