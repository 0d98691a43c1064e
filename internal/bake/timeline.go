package bake

// Point is one sample of a timeline.
type Point struct {
	Time  float32
	Value Value
}

// Timeline is the time-ordered history of one bone.
type Timeline struct {
	Name   string
	Points []Point
}

// Static reports whether the timeline holds a single point.
func (tl Timeline) Static() bool {
	return len(tl.Points) == 1
}

// Assemble groups frame samples into one timeline per bone name, in the
// order names first appear. Bones are keyed by name alone: two nodes with
// the same name share a timeline.
func Assemble(frames []Frame) []Timeline {
	if len(frames) == 0 {
		return nil
	}

	index := make(map[string]int)
	var timelines []Timeline
	for _, frame := range frames {
		for _, s := range frame {
			i, ok := index[s.Name]
			if !ok {
				i = len(timelines)
				index[s.Name] = i
				timelines = append(timelines, Timeline{Name: s.Name, Points: make([]Point, 0, len(frames))})
			}
			timelines[i].Points = append(timelines[i].Points, Point{Time: s.Time, Value: s.Value})
		}
	}
	return timelines
}

// Compress collapses a timeline whose points all hold the same value to its
// first point. Any other timeline is returned unchanged.
func Compress(tl Timeline) Timeline {
	if len(tl.Points) <= 1 {
		return tl
	}
	first := tl.Points[0]
	for _, p := range tl.Points[1:] {
		if !p.Value.Equal(first.Value) {
			return tl
		}
	}
	return Timeline{Name: tl.Name, Points: []Point{first}}
}

// CompressAll applies Compress to every timeline.
func CompressAll(timelines []Timeline) []Timeline {
	out := make([]Timeline, len(timelines))
	for i, tl := range timelines {
		out[i] = Compress(tl)
	}
	return out
}
