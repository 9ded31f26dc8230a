// Package runtime is the support library linked into generated conversion
// functions. Call forms the generator recognizes (string formatting, byte
// unpacking, joining, guarded division, math builtins) lower to calls here
// instead of inline expansion, so their semantics live in one tested place
// and emitted functions stay compact.
package runtime

import (
	"github.com/photostructure/convgen/pkg/tagvalue"
)

// Context carries already-computed field values for expressions that read
// sibling fields through $$self{Field}. A nil Context behaves as empty.
type Context struct {
	fields map[string]tagvalue.TagValue
}

// NewContext creates a context over the given field values.
func NewContext(fields map[string]tagvalue.TagValue) *Context {
	return &Context{fields: fields}
}

// Get returns the named field value, or Empty when absent.
func (c *Context) Get(name string) tagvalue.TagValue {
	if c == nil || c.fields == nil {
		return tagvalue.Empty()
	}
	return c.fields[name]
}

// Set stores a field value, allocating the map on first use.
func (c *Context) Set(name string, v tagvalue.TagValue) {
	if c.fields == nil {
		c.fields = make(map[string]tagvalue.TagValue)
	}
	c.fields[name] = v
}
