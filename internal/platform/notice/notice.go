// Package notice collects one-time user notices (toasts) raised while a
// request is handled and returned with its response.
package notice

import (
	"context"
	"strings"
	"sync"
)

// Kind classifies notice presentation.
type Kind string

const (
	KindSuccess Kind = "success"
	KindInfo    Kind = "info"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

// Notice is one toast. Key is a localization key or error code; Message is
// the rendered copy.
type Notice struct {
	Kind    Kind   `json:"kind"`
	Key     string `json:"key,omitempty"`
	Message string `json:"message"`
}

// Success creates a success notice.
func Success(key, message string) Notice {
	return Notice{Kind: KindSuccess, Key: key, Message: message}
}

// Error creates an error notice.
func Error(key, message string) Notice {
	return Notice{Kind: KindError, Key: key, Message: message}
}

// Collector accumulates notices for one request. It is safe for concurrent use.
type Collector struct {
	mu      sync.Mutex
	notices []Notice
}

// Add appends a notice, dropping ones with no message or an unknown kind.
func (c *Collector) Add(n Notice) {
	normalized, ok := normalize(n)
	if !ok || c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notices = append(c.notices, normalized)
}

// Drain returns the collected notices and resets the collector. It never
// returns nil so responses always encode an array.
func (c *Collector) Drain() []Notice {
	if c == nil {
		return []Notice{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.notices
	c.notices = nil
	if out == nil {
		out = []Notice{}
	}
	return out
}

type collectorKey struct{}

// WithCollector returns a context carrying a fresh collector.
func WithCollector(ctx context.Context) (context.Context, *Collector) {
	if ctx == nil {
		ctx = context.Background()
	}
	collector := &Collector{}
	return context.WithValue(ctx, collectorKey{}, collector), collector
}

// FromContext returns the request's collector, or nil.
func FromContext(ctx context.Context) *Collector {
	if ctx == nil {
		return nil
	}
	collector, _ := ctx.Value(collectorKey{}).(*Collector)
	return collector
}

// ContextNotifier adds toasts to the collector carried by the context.
// Toasts raised outside a request are dropped.
type ContextNotifier struct{}

// Toast implements the error handler's notifier.
func (ContextNotifier) Toast(ctx context.Context, n Notice) {
	FromContext(ctx).Add(n)
}

func normalize(n Notice) (Notice, bool) {
	n.Message = strings.TrimSpace(n.Message)
	n.Key = strings.TrimSpace(n.Key)
	if n.Message == "" {
		return Notice{}, false
	}
	n.Kind = Kind(strings.ToLower(strings.TrimSpace(string(n.Kind))))
	switch n.Kind {
	case KindSuccess, KindInfo, KindWarning, KindError:
		return n, true
	default:
		return Notice{}, false
	}
}
