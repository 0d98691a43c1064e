package codec

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/Faultbox/midgard-bake/internal/bake"
	"github.com/Faultbox/midgard-bake/pkg/math"
)

// ErrUnknownFormat is returned by ParseFormat for an unrecognised name.
var ErrUnknownFormat = errors.New("unknown output format")

// Format selects the document layout.
type Format int

const (
	// FormatInterned writes bones as a map of points whose arrays are
	// indices into a trailing :resources list.
	FormatInterned Format = iota
	// FormatInline writes every array in place and adds :frames.
	FormatInline
	// FormatMatrix writes one 16-element matrix per point and adds :frames.
	FormatMatrix
)

var formatNames = map[Format]string{
	FormatInterned: "interned",
	FormatInline:   "inline",
	FormatMatrix:   "matrix",
}

// String returns the config name of the format.
func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat converts a config name into a Format.
func ParseFormat(name string) (Format, error) {
	for f, n := range formatNames {
		if n == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// ParseRotation converts a config name into a rotation mode.
func ParseRotation(name string) (bake.RotationMode, error) {
	switch name {
	case "euler", "":
		return bake.RotationEuler, nil
	case "quaternion":
		return bake.RotationQuaternion, nil
	default:
		return 0, fmt.Errorf("unknown rotation mode %q", name)
	}
}

// Encoder serializes documents. The zero value writes the interned format
// with zero decimals; use NewEncoder for the defaults.
type Encoder struct {
	Format    Format
	Precision int
	Rotation  bake.RotationMode
}

// NewEncoder returns an encoder with DefaultPrecision and Euler rotations.
func NewEncoder(format Format) *Encoder {
	return &Encoder{Format: format, Precision: DefaultPrecision}
}

// Marshal returns the encoded document.
func (e *Encoder) Marshal(doc *bake.Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.Encode(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode writes doc to w. Output depends only on doc and the encoder
// settings.
func (e *Encoder) Encode(w io.Writer, doc *bake.Document) error {
	ew := &errWriter{w: bufio.NewWriter(w)}
	switch e.Format {
	case FormatInterned:
		e.writeInterned(ew, doc)
	case FormatInline:
		e.writeInline(ew, doc)
	case FormatMatrix:
		e.writeMatrix(ew, doc)
	default:
		return fmt.Errorf("%w: %v", ErrUnknownFormat, e.Format)
	}
	if ew.err != nil {
		return ew.err
	}
	return ew.w.Flush()
}

func (e *Encoder) num(v float32) string {
	return FormatFloat(v, e.Precision)
}

func (e *Encoder) writeInterned(w *errWriter, doc *bake.Document) {
	pool := NewPool()

	w.printf("{ :name %s :length %s :bones {", Quote(doc.Name), e.num(doc.Length))
	for _, tl := range doc.Timelines {
		w.printf("\n\t%s [", Quote(tl.Name))
		for _, p := range tl.Points {
			w.printf("\n\t\t[%s [", e.num(p.Time))
			for i, arr := range p.Value.Arrays(e.Rotation) {
				if i > 0 {
					w.printf(" ")
				}
				w.printf("%d", pool.Intern(FormatArray(arr, e.Precision)))
			}
			w.printf("]]")
		}
		w.printf("\n\t]")
	}
	w.printf("\n} :resources [")
	for _, text := range pool.Entries() {
		w.printf("\n\t%s", Quote(text))
	}
	w.printf("\n] }\n")
}

func (e *Encoder) writeInline(w *errWriter, doc *bake.Document) {
	w.printf("{ :name %s :length %s :frames %d :bones [", Quote(doc.Name), e.num(doc.Length), doc.FrameCount)
	for _, tl := range doc.Timelines {
		w.printf("\n\t{:name %s :points [", Quote(tl.Name))
		for _, p := range tl.Points {
			w.printf("\n\t\t[%s", e.num(p.Time))
			for _, arr := range p.Value.Arrays(e.Rotation) {
				w.printf(" %s", FormatArray(arr, e.Precision))
			}
			w.printf("]")
		}
		w.printf("\n\t]}")
	}
	w.printf("\n] }\n")
}

func (e *Encoder) writeMatrix(w *errWriter, doc *bake.Document) {
	w.printf("{ :name %s :length %s :frames %d :bones [", Quote(doc.Name), e.num(doc.Length), doc.FrameCount)
	for _, tl := range doc.Timelines {
		w.printf("\n\t{:name %s\n\t\t[", Quote(tl.Name))
		for _, p := range tl.Points {
			w.printf("\n\t\t\t[%s %s]", e.num(p.Time), FormatArray(matrixOf(p.Value), e.Precision))
		}
		w.printf("\n\t\t]\n\t}")
	}
	w.printf("\n] }\n")
}

// matrixOf flattens any value into 16 matrix elements.
func matrixOf(v bake.Value) []float32 {
	switch t := v.(type) {
	case bake.Matrix:
		return math.Mat4(t).Array()
	case bake.TRS:
		return bake.Transform(t).Matrix().Array()
	default:
		var out []float32
		for _, arr := range v.Arrays(bake.RotationQuaternion) {
			out = append(out, arr...)
		}
		return out
	}
}

// errWriter keeps the first write error so the layout code stays linear.
type errWriter struct {
	w   *bufio.Writer
	err error
}

func (w *errWriter) printf(format string, args ...any) {
	if w.err != nil {
		return
	}
	if len(args) == 0 {
		_, w.err = w.w.WriteString(format)
		return
	}
	_, w.err = fmt.Fprintf(w.w, format, args...)
}
