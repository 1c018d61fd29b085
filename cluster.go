package hazardmap

import "github.com/paulmach/orb"

// DefaultClusterRadiusDp is the default clustering radius in density-independent
// pixels.
const DefaultClusterRadiusDp = 150

// Cluster is a group of markers close enough on screen to be drawn as one
// glyph. Members[0] is the seed the group was built around. Clusters are
// rebuilt every frame and carry no identity beyond their seed.
type Cluster struct {
	Members  []*MarkerState
	Centroid orb.Point
}

// Seed returns the marker the cluster was grown from.
func (c *Cluster) Seed() *MarkerState {
	return c.Members[0]
}

// Len returns the number of members.
func (c *Cluster) Len() int {
	return len(c.Members)
}

// ID returns the cluster's entity id, keyed by its seed marker.
func (c *Cluster) ID() EntityID {
	return EntityID{Kind: EntityCluster, ID: c.Members[0].ID}
}

// Clusterer groups markers by screen-space proximity. It keeps scratch buffers
// between calls; the zero value is ready to use.
type Clusterer struct {
	pool   []int
	screen []Vec2
	keep   []int
}

// Cluster partitions visible into clusters with a single greedy pass: the
// first unclustered marker (in input order) seeds a cluster, and every other
// unclustered marker whose squared screen distance to the seed is at most
// radiusPx² joins it. Membership is tested against the seed only, so two
// members may be farther than radiusPx apart. The result is deterministic for a
// fixed input order, projector state, and radius.
func (c *Clusterer) Cluster(visible []*MarkerState, p Projector, radiusPx float64) []Cluster {
	if len(visible) == 0 {
		return nil
	}

	// Project once; the seed test would otherwise reproject O(n²) times.
	if cap(c.screen) < len(visible) {
		c.screen = make([]Vec2, len(visible))
		c.pool = make([]int, len(visible))
		c.keep = make([]int, 0, len(visible))
	}
	c.screen = c.screen[:len(visible)]
	c.pool = c.pool[:len(visible)]
	for i, m := range visible {
		c.screen[i] = p.Project(m.Coordinate)
		c.pool[i] = i
	}

	r2 := radiusPx * radiusPx
	var out []Cluster
	for len(c.pool) > 0 {
		seed := c.pool[0]
		members := []*MarkerState{visible[seed]}
		sp := c.screen[seed]

		c.keep = c.keep[:0]
		for _, idx := range c.pool[1:] {
			if c.screen[idx].DistSq(sp) <= r2 {
				members = append(members, visible[idx])
			} else {
				c.keep = append(c.keep, idx)
			}
		}
		c.pool = append(c.pool[:0], c.keep...)

		out = append(out, Cluster{Members: members, Centroid: centroid(members)})
	}
	return out
}

// ClusterMarkers is a convenience wrapper around a throwaway Clusterer.
func ClusterMarkers(visible []*MarkerState, p Projector, radiusPx float64) []Cluster {
	var c Clusterer
	return c.Cluster(visible, p, radiusPx)
}

// centroid returns the mean lon/lat of the members.
func centroid(members []*MarkerState) orb.Point {
	var lon, lat float64
	for _, m := range members {
		lon += m.Coordinate.Lon()
		lat += m.Coordinate.Lat()
	}
	n := float64(len(members))
	return orb.Point{lon / n, lat / n}
}

// CullMarkers returns the markers whose coordinate lies inside bounds scaled
// by scale about its center, preserving input order. dst is reused.
func CullMarkers(dst []*MarkerState, markers []*MarkerState, bounds orb.Bound, scale float64) []*MarkerState {
	dst = dst[:0]
	b := ScaleBound(bounds, scale)
	for _, m := range markers {
		if b.Contains(m.Coordinate) {
			dst = append(dst, m)
		}
	}
	return dst
}

// ScaleBound grows (scale > 1) or shrinks b about its center.
func ScaleBound(b orb.Bound, scale float64) orb.Bound {
	c := b.Center()
	hw := (b.Max.Lon() - b.Min.Lon()) * scale / 2
	hh := (b.Max.Lat() - b.Min.Lat()) * scale / 2
	return orb.Bound{
		Min: orb.Point{c.Lon() - hw, c.Lat() - hh},
		Max: orb.Point{c.Lon() + hw, c.Lat() + hh},
	}
}
