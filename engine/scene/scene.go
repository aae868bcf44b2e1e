package scene

import (
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/entity"
	"github.com/Carmen-Shannon/oxy-render/engine/environment"
	"github.com/Carmen-Shannon/oxy-render/engine/light"
	"github.com/Carmen-Shannon/oxy-render/engine/logger"
	"github.com/Carmen-Shannon/oxy-render/engine/node"
)

// Scene owns what a render path draws: the transform tree, the entities placed in it, the
// free-standing lights, the environment volumes and the sky, plus the camera that views them.
// Scenes can be hot-swapped via the Active flag to switch between different views or levels.
// Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// SetName sets the scene's identifier.
	SetName(name string)

	// Active returns whether this scene is currently active for rendering.
	Active() bool

	// SetActive sets whether this scene is active for rendering.
	SetActive(active bool)

	// Camera returns the scene's camera.
	Camera() camera.Camera

	// SetCamera replaces the scene's camera.
	//
	// Parameters:
	//   - cam: the new camera
	SetCamera(cam camera.Camera)

	// Tree returns the transform hierarchy every entity node lives in.
	Tree() node.Tree

	// Count returns the number of entities in the scene.
	Count() int

	// AddEntity adds an entity to the scene. An entity without an ID is assigned the next free
	// one. A node is created in the scene tree and the entity's initial transform is applied to
	// it. Adding an entity that is already present does nothing.
	//
	// Parameters:
	//   - e: the entity to add
	//
	// Returns:
	//   - uint64: the entity ID
	AddEntity(e entity.Entity) uint64

	// Entity returns the entity with the given ID, or nil.
	Entity(id uint64) entity.Entity

	// RemoveEntity removes the entity with the given ID and frees its node. Children of the
	// node keep their world transform.
	//
	// Parameters:
	//   - id: the entity ID
	RemoveEntity(id uint64)

	// Entities returns the entities in insertion order. The slice is a copy.
	Entities() []entity.Entity

	// Clear removes every entity. Lights, volumes and the sky are kept.
	Clear()

	// AddLight adds a free-standing light. Lights attached to entities are picked up through
	// the entity and need not be added.
	AddLight(l light.Light)

	// RemoveLight removes a free-standing light.
	RemoveLight(l light.Light)

	// Lights returns the free-standing lights followed by the lights attached to entities,
	// in insertion order.
	//
	// Returns:
	//   - []light.Light: every light in the scene
	Lights() []light.Light

	// SyncAttachedLights moves every light attached to an entity to the entity's world position.
	SyncAttachedLights()

	// AddEnvironmentVolume adds a volume and assigns it the next creation sequence, which breaks
	// ties when two volumes are equally near a job.
	//
	// Parameters:
	//   - v: the volume to add
	AddEnvironmentVolume(v environment.Volume)

	// RemoveEnvironmentVolume removes a volume.
	RemoveEnvironmentVolume(v environment.Volume)

	// EnvironmentVolumes returns the volumes in creation order. The slice is a copy.
	EnvironmentVolumes() []environment.Volume

	// Sky returns the scene's sky, or nil.
	Sky() environment.Sky

	// SetSky replaces the scene's sky. Nil removes it.
	SetSky(sky environment.Sky)
}

type scene struct {
	mu *sync.RWMutex

	name   string
	active bool

	cam  camera.Camera
	tree node.Tree

	entities []entity.Entity
	byID     map[uint64]entity.Entity
	nextID   uint64

	lights  []light.Light
	volumes []environment.Volume
	nextSeq uint64
	sky     environment.Sky

	// initial holds WithEntities until the tree exists.
	initial []entity.Entity
}

// Ensure scene implements Scene interface.
var _ Scene = &scene{}

// NewScene creates an inactive Scene viewed through cam.
//
// Parameters:
//   - name: the name of the scene
//   - cam: the camera to attach, nil to set one later
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, cam camera.Camera, options ...SceneBuilderOption) Scene {
	s := &scene{
		mu:     &sync.RWMutex{},
		name:   name,
		cam:    cam,
		byID:   make(map[uint64]entity.Entity),
		nextID: 1,
	}

	for _, option := range options {
		option(s)
	}
	if s.tree == nil {
		s.tree = node.NewTree()
	}
	initial := s.initial
	s.initial = nil
	for _, e := range initial {
		s.AddEntity(e)
	}
	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) Camera() camera.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cam
}

func (s *scene) SetCamera(cam camera.Camera) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cam = cam
}

func (s *scene) Tree() node.Tree {
	return s.tree
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entities)
}

func (s *scene) AddEntity(e entity.Entity) uint64 {
	if e == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID() == 0 {
		for s.byID[s.nextID] != nil {
			s.nextID++
		}
		e.SetID(s.nextID)
		s.nextID++
	}
	if existing, ok := s.byID[e.ID()]; ok {
		if existing != e {
			logger.Logger().Warn("entity id already in use", "scene", s.name, "id", e.ID(), "entity", e.Name())
		}
		return e.ID()
	}

	id := s.tree.New()
	pos, rot, scale := e.InitialTransform()
	s.tree.SetTranslation(id, pos, common.TSLocal)
	s.tree.SetOrientation(id, rot, common.TSLocal)
	s.tree.SetScale(id, scale)
	e.SetNodeID(id)

	s.entities = append(s.entities, e)
	s.byID[e.ID()] = e
	return e.ID()
}

func (s *scene) Entity(id uint64) entity.Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byID[id]
}

func (s *scene) RemoveEntity(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.byID[id]
	if !ok {
		return
	}
	delete(s.byID, id)
	s.entities = slices.DeleteFunc(s.entities, func(x entity.Entity) bool { return x == e })
	if s.tree.Valid(e.NodeID()) {
		s.tree.Remove(e.NodeID())
	}
	e.SetNodeID(node.NodeID{})
}

func (s *scene) Entities() []entity.Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.entities)
}

func (s *scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entities {
		if s.tree.Valid(e.NodeID()) {
			s.tree.Remove(e.NodeID())
		}
		e.SetNodeID(node.NodeID{})
	}
	s.entities = nil
	clear(s.byID)
}

func (s *scene) AddLight(l light.Light) {
	if l == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !slices.Contains(s.lights, l) {
		s.lights = append(s.lights, l)
	}
}

func (s *scene) RemoveLight(l light.Light) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lights = slices.DeleteFunc(s.lights, func(x light.Light) bool { return x == l })
}

func (s *scene) Lights() []light.Light {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := slices.Clone(s.lights)
	for _, e := range s.entities {
		if l := e.Light(); l != nil && !slices.Contains(out, l) {
			out = append(out, l)
		}
	}
	return out
}

func (s *scene) SyncAttachedLights() {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.entities {
		l := e.Light()
		if l == nil || !s.tree.Valid(e.NodeID()) {
			continue
		}
		p := s.tree.Translation(e.NodeID(), common.TSWorld)
		l.SetPosition(p[0], p[1], p[2])
	}
}

func (s *scene) AddEnvironmentVolume(v environment.Volume) {
	if v == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Contains(s.volumes, v) {
		return
	}
	s.nextSeq++
	v.SetSequence(s.nextSeq)
	s.volumes = append(s.volumes, v)
}

func (s *scene) RemoveEnvironmentVolume(v environment.Volume) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volumes = slices.DeleteFunc(s.volumes, func(x environment.Volume) bool { return x == v })
}

func (s *scene) EnvironmentVolumes() []environment.Volume {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.volumes)
}

func (s *scene) Sky() environment.Sky {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sky
}

func (s *scene) SetSky(sky environment.Sky) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sky = sky
}
