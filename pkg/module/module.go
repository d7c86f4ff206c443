package module

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/rajinweb/contract-esign-sub000/pkg/middleware"
)

// Module serves every request under a path prefix (e.g. "/api" or
// "/esign/api") through an inner router wrapped in its own middleware stack.
// The prefix is stripped before the inner router sees the request.
type Module struct {
	prefix     string
	router     http.Handler
	middleware middleware.System

	once    sync.Once
	handler http.Handler
}

// New creates a Module for prefix. It panics on a prefix that is empty, lacks
// a leading slash, ends in a slash or has empty or dot segments.
func New(prefix string, router http.Handler) *Module {
	if err := validatePrefix(prefix); err != nil {
		panic(err)
	}
	return &Module{
		prefix:     prefix,
		router:     router,
		middleware: middleware.New(),
	}
}

// Handler returns the inner router wrapped with the module's middleware
// stack. The stack is fixed on first use; register middleware before the
// module serves traffic.
func (m *Module) Handler() http.Handler {
	m.once.Do(func() {
		m.handler = m.middleware.Apply(m.router)
	})
	return m.handler
}

// Prefix returns the module's path prefix.
func (m *Module) Prefix() string {
	return m.prefix
}

// Matches reports whether path falls under the module prefix on a segment
// boundary: "/api" matches "/api" and "/api/documents" but not "/apis".
func (m *Module) Matches(path string) bool {
	return path == m.prefix || strings.HasPrefix(path, m.prefix+"/")
}

// Serve strips the module prefix from the request path and dispatches to
// the inner router.
func (m *Module) Serve(w http.ResponseWriter, req *http.Request) {
	m.Handler().ServeHTTP(w, withPath(req, m.strip(req.URL.Path)))
}

// Use adds middleware to the module's stack.
func (m *Module) Use(mw func(http.Handler) http.Handler) {
	m.middleware.Use(mw)
}

func (m *Module) strip(path string) string {
	rest := strings.TrimPrefix(path, m.prefix)
	if rest == "" {
		return "/"
	}
	return rest
}

func withPath(req *http.Request, path string) *http.Request {
	r := req.Clone(req.Context())
	r.URL.Path = path
	r.URL.RawPath = ""
	return r
}

func validatePrefix(prefix string) error {
	if prefix == "" {
		return fmt.Errorf("module prefix cannot be empty")
	}
	if !strings.HasPrefix(prefix, "/") {
		return fmt.Errorf("module prefix must start with /: %s", prefix)
	}
	for seg := range strings.SplitSeq(prefix[1:], "/") {
		if seg == "" || seg == "." || seg == ".." {
			return fmt.Errorf("module prefix has an empty or relative segment: %s", prefix)
		}
	}
	return nil
}
