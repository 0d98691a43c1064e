package bake

// Document is one baked clip, ready to be serialized.
type Document struct {
	Name       string
	Length     float32 // seconds
	FrameCount int
	Timelines  []Timeline
}

// PointCount returns the total number of points across all timelines.
func (d *Document) PointCount() int {
	n := 0
	for _, tl := range d.Timelines {
		n += len(tl.Points)
	}
	return n
}

// StaticCount returns how many timelines were collapsed to one point.
func (d *Document) StaticCount() int {
	n := 0
	for _, tl := range d.Timelines {
		if tl.Static() {
			n++
		}
	}
	return n
}
