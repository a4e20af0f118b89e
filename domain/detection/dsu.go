package detection

// dsu is a frame-local union-find over detection indices.
type dsu struct {
	root []int
	rank []int
}

func newDSU(size int) *dsu {
	d := &dsu{root: make([]int, size), rank: make([]int, size)}
	for i := range d.root {
		d.root[i] = i
	}
	return d
}

func (d *dsu) find(x int) int {
	if d.root[x] == x {
		return x
	}
	d.root[x] = d.find(d.root[x]) // path compression
	return d.root[x]
}

func (d *dsu) union(x, y int) {
	rx, ry := d.find(x), d.find(y)
	if rx == ry {
		return
	}
	switch {
	case d.rank[rx] > d.rank[ry]:
		d.root[ry] = rx
	case d.rank[rx] < d.rank[ry]:
		d.root[rx] = ry
	default:
		d.root[ry] = rx
		d.rank[rx]++
	}
}
