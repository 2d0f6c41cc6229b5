package storestate

import "sync"

// Container owns one State and serializes changes to it.
type Container struct {
	mu          sync.Mutex
	state       State
	subscribers map[int]func(State)
	nextID      int
}

// NewContainer returns a container seeded with Initial().
func NewContainer() *Container {
	return &Container{state: Initial(), subscribers: map[int]func(State){}}
}

// State returns the current state. Treat it as read-only.
func (c *Container) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Dispatch reduces action into the current state, then calls every
// subscriber with the new state outside the lock.
func (c *Container) Dispatch(action Action) State {
	c.mu.Lock()
	c.state = Reduce(c.state, action)
	next := c.state
	subscribers := make([]func(State), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		subscribers = append(subscribers, fn)
	}
	c.mu.Unlock()

	for _, fn := range subscribers {
		fn(next)
	}
	return next
}

// Subscribe registers fn for future dispatches and returns a function that
// removes it.
func (c *Container) Subscribe(fn func(State)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.subscribers[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subscribers, id)
	}
}

// Registry keeps one container per user.
type Registry struct {
	mu         sync.Mutex
	containers map[string]*Container
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{containers: map[string]*Container{}}
}

// For returns userID's container, creating it on first use.
func (r *Registry) For(userID string) *Container {
	r.mu.Lock()
	defer r.mu.Unlock()
	container, ok := r.containers[userID]
	if !ok {
		container = NewContainer()
		r.containers[userID] = container
	}
	return container
}

// Forget drops userID's container, e.g. after sign-out.
func (r *Registry) Forget(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.containers, userID)
}
