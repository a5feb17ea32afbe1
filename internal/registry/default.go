package registry

import (
	"github.com/tsugix/tsugix/internal/langparser/dotnet"
	"github.com/tsugix/tsugix/internal/langparser/golang"
	"github.com/tsugix/tsugix/internal/langparser/java"
	"github.com/tsugix/tsugix/internal/langparser/nodejs"
	"github.com/tsugix/tsugix/internal/langparser/php"
	"github.com/tsugix/tsugix/internal/langparser/python"
	"github.com/tsugix/tsugix/internal/langparser/ruby"
	"github.com/tsugix/tsugix/internal/langparser/rust"
	"github.com/tsugix/tsugix/internal/langparser/swift"
)

// Default returns a registry with all nine language parsers registered.
// Registration order only matters as a confidence tie-break; in
// practice the parsers' anchors are distinct enough that ties are rare.
func Default() *Registry {
	r := New()
	r.Register(python.New())
	r.Register(nodejs.New())
	r.Register(dotnet.New())
	r.Register(java.New())
	r.Register(golang.New())
	r.Register(rust.New())
	r.Register(ruby.New())
	r.Register(php.New())
	r.Register(swift.New())
	return r
}
