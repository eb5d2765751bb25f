package doublejump

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// Positioned is implemented by targets that expose their position.
// Zones can only restrict targets implementing it.
type Positioned interface {
	Position() mgl64.Vec3
}

// Zone is an axis-aligned cuboid in a named world.
type Zone struct {
	World string
	Min   mgl64.Vec3
	Max   mgl64.Vec3
}

// NewZone creates a zone spanning two opposite corners in any order.
func NewZone(world string, a, b mgl64.Vec3) Zone {
	return Zone{
		World: world,
		Min:   mgl64.Vec3{math.Min(a[0], b[0]), math.Min(a[1], b[1]), math.Min(a[2], b[2])},
		Max:   mgl64.Vec3{math.Max(a[0], b[0]), math.Max(a[1], b[1]), math.Max(a[2], b[2])},
	}
}

// Contains reports whether pos in the named world lies inside the zone.
// Faces are inclusive.
func (z Zone) Contains(world string, pos mgl64.Vec3) bool {
	if z.World != world {
		return false
	}
	return pos[0] >= z.Min[0] && pos[0] <= z.Max[0] &&
		pos[1] >= z.Min[1] && pos[1] <= z.Max[1] &&
		pos[2] >= z.Min[2] && pos[2] <= z.Max[2]
}

// Zones is a RegionProvider over a set of cuboid zones.
// It is safe for concurrent use.
type Zones struct {
	mu    sync.RWMutex
	zones []Zone
}

// NewZones creates a provider with the given zones.
func NewZones(zones ...Zone) *Zones {
	z := &Zones{}
	z.zones = append(z.zones, zones...)
	return z
}

// Add adds a restricted zone.
func (z *Zones) Add(zone Zone) {
	z.mu.Lock()
	z.zones = append(z.zones, zone)
	z.mu.Unlock()
}

// Len returns the number of zones.
func (z *Zones) Len() int {
	z.mu.RLock()
	defer z.mu.RUnlock()
	return len(z.zones)
}

// InRegion reports whether the target stands in any zone.
// Targets that do not implement Positioned are never in a zone.
func (z *Zones) InRegion(t Target) bool {
	p, ok := t.(Positioned)
	if !ok {
		return false
	}
	pos, name := p.Position(), t.World()

	z.mu.RLock()
	defer z.mu.RUnlock()
	for _, zone := range z.zones {
		if zone.Contains(name, pos) {
			return true
		}
	}
	return false
}
