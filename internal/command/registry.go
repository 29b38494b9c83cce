package command

import "github.com/puzpuzpuz/xsync/v3"

// Registry maps command names to their Handler. Safe for concurrent use;
// commands are typically registered once at startup and only read after.
type Registry struct {
	handlers *xsync.MapOf[string, Handler]
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handlers: xsync.NewMapOf[Handler]()}
}

// Register adds h under h.Name(), overwriting any prior handler with the
// same name.
func (r *Registry) Register(h Handler) {
	r.handlers.Store(h.Name(), h)
}

// Get looks up the handler for name.
func (r *Registry) Get(name string) (Handler, bool) {
	return r.handlers.Load(name)
}

// Each calls fn for every registered handler, in no particular order,
// until fn returns false. Used by the help command to enumerate commands
// visible to a given permission level.
func (r *Registry) Each(fn func(Handler) bool) {
	r.handlers.Range(func(_ string, h Handler) bool {
		return fn(h)
	})
}
