// Package codec writes baked animation documents as EDN-style text.
//
// The interned format stores every distinct number array once, in a
// trailing resource list, and refers to it by index everywhere else.
package codec

// Pool interns canonical array texts. Indices are assigned in insertion
// order, so the pool order only depends on the order of Intern calls.
type Pool struct {
	index   map[string]int
	entries []string
}

// NewPool returns an empty pool.
func NewPool() *Pool {
	return &Pool{index: make(map[string]int)}
}

// Intern returns the index of text, adding it if it is new.
func (p *Pool) Intern(text string) int {
	if i, ok := p.index[text]; ok {
		return i
	}
	i := len(p.entries)
	p.index[text] = i
	p.entries = append(p.entries, text)
	return i
}

// Entries returns the interned texts in index order.
func (p *Pool) Entries() []string {
	return append([]string(nil), p.entries...)
}

// Len returns the number of distinct texts.
func (p *Pool) Len() int {
	return len(p.entries)
}
