package texture

import (
	"fmt"
)

// Attachment names a framebuffer slot.
type Attachment int

const (
	// ColorAttachment0 is the first colour slot.
	ColorAttachment0 Attachment = iota
	ColorAttachment1
	ColorAttachment2
	ColorAttachment3
	ColorAttachment4
	ColorAttachment5
	ColorAttachment6
	ColorAttachment7
	// DepthAttachment is the depth slot.
	DepthAttachment
	// DepthStencilAttachment is the combined depth/stencil slot.
	DepthStencilAttachment
)

// MaxColorAttachments is the number of colour slots a framebuffer has.
const MaxColorAttachments = 8

// IsColor reports whether a is one of the colour slots.
func (a Attachment) IsColor() bool {
	return a >= ColorAttachment0 && a <= ColorAttachment7
}

// FramebufferSettings sizes a framebuffer and selects its default depth.
type FramebufferSettings struct {
	Width  int
	Height int
	// DepthStencil selects a combined depth/stencil format for the default depth texture.
	DepthStencil bool
	// UseDefaultDepth makes the framebuffer allocate and own a depth texture.
	UseDefaultDepth bool
}

type colorSlot struct {
	target *RenderTarget
	layer  int
}

// Framebuffer is a named set of attachment slots. Colour attachments are borrowed from the
// passes that own them; only the default depth texture is owned by the framebuffer.
type Framebuffer struct {
	name        string
	settings    FramebufferSettings
	colors      [MaxColorAttachments]colorSlot
	depth       *DepthTexture
	ownsDepth   bool
	initialized bool
	generation  uint64
}

// NewFramebuffer creates an uninitialized framebuffer.
func NewFramebuffer(name string) *Framebuffer {
	return &Framebuffer{name: name}
}

// Name returns the debug name.
func (f *Framebuffer) Name() string {
	return f.name
}

// Init sizes the framebuffer. A zero width or height falls back to 1024.
// Calling Init on an initialized framebuffer does nothing.
//
// Parameters:
//   - settings: size and default depth options
func (f *Framebuffer) Init(settings FramebufferSettings) {
	if f.initialized {
		return
	}
	if settings.Width <= 0 {
		settings.Width = 1024
	}
	if settings.Height <= 0 {
		settings.Height = 1024
	}
	f.settings = settings
	if settings.UseDefaultDepth {
		if f.ownsDepth && f.depth != nil {
			f.depth.ReconstructIfNeeded(settings.Width, settings.Height)
		} else {
			f.depth = NewDepthTexture(f.name+"/depth", settings.Width, settings.Height, settings.DepthStencil)
			f.ownsDepth = true
		}
	}
	f.initialized = true
	f.generation++
}

// UnInit marks the framebuffer as needing Init again. Attachments are kept.
func (f *Framebuffer) UnInit() {
	f.initialized = false
}

// Initialized reports whether Init has run.
func (f *Framebuffer) Initialized() bool {
	return f.initialized
}

// ReconstructIfNeeded re-initialises the framebuffer when it is uninitialised or its size differs.
// Calling it again with the same size does nothing.
//
// Parameters:
//   - width, height: the requested size
//
// Returns:
//   - bool: true when the framebuffer was rebuilt
func (f *Framebuffer) ReconstructIfNeeded(width, height int) bool {
	if f.initialized && f.settings.Width == width && f.settings.Height == height {
		return false
	}
	s := f.settings
	s.Width, s.Height = width, height
	f.initialized = false
	f.Init(s)
	return true
}

// Settings returns the current settings.
func (f *Framebuffer) Settings() FramebufferSettings {
	return f.settings
}

// Width returns the framebuffer width.
func (f *Framebuffer) Width() int {
	return f.settings.Width
}

// Height returns the framebuffer height.
func (f *Framebuffer) Height() int {
	return f.settings.Height
}

// Generation changes whenever an attachment or the size changes.
func (f *Framebuffer) Generation() uint64 {
	return f.generation
}

// SetAttachment places rt in a colour slot and resizes the framebuffer to match it.
//
// Parameters:
//   - att: a colour attachment
//   - rt: the target to attach, nil detaches
//
// Returns:
//   - *RenderTarget: the previously attached target or nil
func (f *Framebuffer) SetAttachment(att Attachment, rt *RenderTarget) *RenderTarget {
	return f.SetAttachmentLayer(att, rt, 0)
}

// SetAttachmentLayer attaches one array layer of rt. Used for the shadow atlas.
func (f *Framebuffer) SetAttachmentLayer(att Attachment, rt *RenderTarget, layer int) *RenderTarget {
	if !att.IsColor() {
		panic(fmt.Sprintf("texture: framebuffer %q: %d is not a colour attachment", f.name, att))
	}
	old := f.colors[att].target
	if old == rt && f.colors[att].layer == layer {
		return old
	}
	f.colors[att] = colorSlot{target: rt, layer: layer}
	if rt != nil {
		f.settings.Width, f.settings.Height = rt.Width, rt.Height
	}
	f.generation++
	return old
}

// Attachment returns the target in a colour slot, or nil.
func (f *Framebuffer) Attachment(att Attachment) *RenderTarget {
	if !att.IsColor() {
		return nil
	}
	return f.colors[att].target
}

// AttachmentLayer returns the array layer attached in a colour slot.
func (f *Framebuffer) AttachmentLayer(att Attachment) int {
	if !att.IsColor() {
		return 0
	}
	return f.colors[att].layer
}

// DetachAttachment empties a colour slot and returns what was in it.
func (f *Framebuffer) DetachAttachment(att Attachment) *RenderTarget {
	if !att.IsColor() {
		return nil
	}
	old := f.colors[att].target
	if old != nil {
		f.colors[att] = colorSlot{}
		f.generation++
	}
	return old
}

// ColorAttachments returns the occupied colour slots in slot order.
func (f *Framebuffer) ColorAttachments() []Attachment {
	out := make([]Attachment, 0, MaxColorAttachments)
	for i := range f.colors {
		if f.colors[i].target != nil {
			out = append(out, Attachment(i))
		}
	}
	return out
}

// AttachDepthTexture replaces the depth attachment with a borrowed depth texture.
func (f *Framebuffer) AttachDepthTexture(d *DepthTexture) {
	if f.depth == d {
		return
	}
	f.depth = d
	f.ownsDepth = false
	f.generation++
}

// DepthTexture returns the depth attachment or nil.
func (f *Framebuffer) DepthTexture() *DepthTexture {
	return f.depth
}

// OwnsDepth reports whether the depth texture was allocated by this framebuffer.
func (f *Framebuffer) OwnsDepth() bool {
	return f.ownsDepth
}
