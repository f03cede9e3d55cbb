// Package protocol implements the client side of the SAM v3 wire grammar.
// Commands are sent to the bridge as single lines of the form
//
//	VERB [ACTION] [KEY=VALUE]...
//
// and replies come back in the same shape. See SAMv3.md for the full
// specification.
package protocol

import (
	"strings"
)

// Command builds a SAM command line to send to the bridge.
// Values containing spaces or quotes are quoted and escaped automatically.
type Command struct {
	verb    string
	action  string
	keys    []string
	options map[string]string
}

// NewCommand creates a command with the given verb (e.g. "SESSION").
func NewCommand(verb string) *Command {
	return &Command{
		verb:    verb,
		options: make(map[string]string),
	}
}

// WithAction sets the action portion of the command (e.g. "CREATE").
func (c *Command) WithAction(action string) *Command {
	c.action = action
	return c
}

// With adds a KEY=VALUE option. Insertion order is preserved; the bridge
// requires STYLE, ID and DESTINATION to precede tunnel options on
// SESSION CREATE.
func (c *Command) With(key, value string) *Command {
	if _, ok := c.options[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.options[key] = value
	return c
}

// String formats the command as a SAM protocol line, newline-terminated.
func (c *Command) String() string {
	parts := []string{c.verb}
	if c.action != "" {
		parts = append(parts, c.action)
	}
	for _, key := range c.keys {
		parts = append(parts, formatOption(key, c.options[key]))
	}
	return strings.Join(parts, " ") + "\n"
}

// Bytes returns the command line as UTF-8 bytes.
func (c *Command) Bytes() []byte {
	return []byte(c.String())
}

// formatOption renders KEY=VALUE, quoting the value when needed.
func formatOption(key, value string) string {
	if needsQuoting(value) {
		return key + "=" + quoteValue(value)
	}
	return key + "=" + value
}

// needsQuoting reports whether a value must be quoted on the wire.
func needsQuoting(value string) bool {
	return value == "" || strings.ContainsAny(value, " \t\"")
}

// quoteValue wraps a value in double quotes, escaping embedded quotes
// and backslashes.
func quoteValue(value string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(value); i++ {
		switch value[i] {
		case '"', '\\':
			b.WriteByte('\\')
		}
		b.WriteByte(value[i])
	}
	b.WriteByte('"')
	return b.String()
}
