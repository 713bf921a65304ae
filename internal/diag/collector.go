package diag

import (
	"cmp"
	"slices"
	"sync"

	"github.com/roach88/extcheck/internal/ast"
)

// Collector accumulates diagnostics from every analysis stage.
//
// It is append-only and safe for concurrent use: per-function resolver
// workers share one Collector. Identical diagnostics are recorded once.
// Readers get a copy sorted by position, so output does not depend on
// worker scheduling.
type Collector struct {
	mu    sync.Mutex
	items []*Diagnostic
	seen  map[string]bool
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{seen: make(map[string]bool)}
}

// Add records d. Duplicates are dropped.
//
// Thread-safe: Can be called concurrently.
func (c *Collector) Add(d *Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := d.key()
	if c.seen[k] {
		return
	}
	c.seen[k] = true
	c.items = append(c.items, d)
}

// Report records a new diagnostic of kind k and returns it so callers can
// attach related coordinates before anyone reads the collector.
func (c *Collector) Report(k Kind, pos ast.Pos, format string, args ...any) *Diagnostic {
	d := New(k, pos, format, args...)
	c.Add(d)
	return d
}

// Len returns the number of recorded diagnostics.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// HasErrors reports whether any fatal diagnostic was recorded.
func (c *Collector) HasErrors() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range c.items {
		if d.IsError() {
			return true
		}
	}
	return false
}

// All returns every diagnostic in deterministic order.
func (c *Collector) All() []*Diagnostic {
	return c.filter(func(*Diagnostic) bool { return true })
}

// Errors returns the fatal diagnostics in deterministic order.
func (c *Collector) Errors() []*Diagnostic {
	return c.filter((*Diagnostic).IsError)
}

// Warnings returns the non-fatal diagnostics in deterministic order.
func (c *Collector) Warnings() []*Diagnostic {
	return c.filter(func(d *Diagnostic) bool { return !d.IsError() })
}

// Err returns a *List of the fatal diagnostics, or nil.
func (c *Collector) Err() error {
	errs := c.Errors()
	if len(errs) == 0 {
		return nil
	}
	return &List{Diagnostics: errs}
}

func (c *Collector) filter(keep func(*Diagnostic) bool) []*Diagnostic {
	c.mu.Lock()
	out := make([]*Diagnostic, 0, len(c.items))
	for _, d := range c.items {
		if keep(d) {
			out = append(out, d)
		}
	}
	c.mu.Unlock()

	Sort(out)
	return out
}

// Sort orders diagnostics by file, line, column, code and message.
func Sort(list []*Diagnostic) {
	slices.SortStableFunc(list, func(a, b *Diagnostic) int {
		return cmp.Or(
			cmp.Compare(a.Pos.File, b.Pos.File),
			cmp.Compare(a.Pos.Line, b.Pos.Line),
			cmp.Compare(a.Pos.Col, b.Pos.Col),
			cmp.Compare(a.Code, b.Code),
			cmp.Compare(a.Message, b.Message),
		)
	})
}
