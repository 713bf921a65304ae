package symtab

// Clock stamps declare, shadow and undeclare events with increasing tokens.
// An initializer sees only bindings whose token is below the one it
// initializes. A Clock belongs to one Table and is not shared.
type Clock struct {
	last int64
}

// NewClock returns a clock whose first token is 1.
func NewClock() *Clock {
	return &Clock{}
}

// Next issues the next token.
func (c *Clock) Next() int64 {
	c.last++
	return c.last
}

// Current returns the last issued token, or 0 before the first event.
func (c *Clock) Current() int64 {
	return c.last
}
