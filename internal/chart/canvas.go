package chart

import (
	"bytes"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Instance is one rendered chart. It stays readable after disposal; Disposed
// tells callers it has been replaced.
type Instance struct {
	ID        string
	Spec      Spec
	Format    Format
	Image     []byte
	CreatedAt time.Time

	disposed atomic.Bool
}

// Disposed reports whether the canvas has released the instance.
func (i *Instance) Disposed() bool {
	return i != nil && i.disposed.Load()
}

// ContentType is the media type of Image.
func (i *Instance) ContentType() string {
	return i.Format.ContentType()
}

// SpecRenderer draws a spec into w. *Renderer is the go-chart implementation.
type SpecRenderer interface {
	Render(spec Spec, w io.Writer, format Format) error
}

// Canvas owns the single live chart. Drawing a new chart always disposes the
// previous one first, so at most one instance is live at a time.
type Canvas struct {
	renderer SpecRenderer

	mu      sync.Mutex
	current *Instance
}

// NewCanvas creates an empty canvas drawing with renderer, or with a
// default-sized *Renderer when renderer is nil.
func NewCanvas(renderer SpecRenderer) *Canvas {
	if renderer == nil {
		renderer = NewRenderer(0, 0)
	}
	return &Canvas{renderer: renderer}
}

// Draw disposes the current chart and renders spec in its place. On a render
// error the canvas is left empty.
func (c *Canvas) Draw(spec Spec, format Format) (*Instance, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.disposeLocked()

	var buf bytes.Buffer
	if err := c.renderer.Render(spec, &buf, format); err != nil {
		return nil, err
	}

	c.current = &Instance{
		ID:        uuid.NewString(),
		Spec:      spec,
		Format:    format,
		Image:     buf.Bytes(),
		CreatedAt: time.Now(),
	}
	return c.current, nil
}

// Current returns the live chart, or nil.
func (c *Canvas) Current() *Instance {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Dispose releases the live chart, if any.
func (c *Canvas) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disposeLocked()
}

func (c *Canvas) disposeLocked() {
	if c.current != nil {
		c.current.disposed.Store(true)
		c.current = nil
	}
}
