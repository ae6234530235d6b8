package scenario

import (
	"fmt"
	"log/slog"
	"sync"
)

// KeyOTP is where the OTP retrieval workflow stores the extracted code.
const KeyOTP = "OTP"

// Context is a per-scenario key/value store shared between steps.
// A fresh Context is created for every scenario.
type Context struct {
	mu     sync.RWMutex
	values map[string]any
}

func NewContext() *Context {
	return &Context{values: make(map[string]any)}
}

// Set stores value under key, replacing any previous value.
func (c *Context) Set(key string, value any) {
	c.mu.Lock()
	c.values[key] = value
	c.mu.Unlock()
	slog.Debug("scenario context set", "key", key)
}

// Get returns the value stored under key. Missing keys report ok=false.
func (c *Context) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

// GetString returns the value under key formatted as a string.
func (c *Context) GetString(key string) (string, bool) {
	v, ok := c.Get(key)
	if !ok {
		return "", false
	}
	if s, isString := v.(string); isString {
		return s, true
	}
	return fmt.Sprint(v), true
}

// Len returns the number of stored keys.
func (c *Context) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.values)
}

// Reset drops every stored value.
func (c *Context) Reset() {
	c.mu.Lock()
	c.values = make(map[string]any)
	c.mu.Unlock()
}
