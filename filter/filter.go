// Package filter provides URL filter expressions using expr-lang/expr.
// Filters let an operator scope which links are annotated or exported,
// e.g. `host endsWith "example.com"` or `path contains "/docs/"`.
package filter

import (
	"fmt"
	"net/url"

	"github.com/expr-lang/expr"
)

// URLEnv is the environment for expression evaluation.
type URLEnv struct {
	URL    string `expr:"url"`
	Scheme string `expr:"scheme"`
	Host   string `expr:"host"`
	Port   string `expr:"port"`
	Path   string `expr:"path"`
	Query  string `expr:"query"`
}

// Compile compiles a filter expression into a predicate over URLs.
// A URL that fails to parse, or an expression that fails at runtime,
// evaluates to false.
func Compile(expression string) (func(string) bool, error) {
	program, err := expr.Compile(expression, expr.Env(URLEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile filter %q: %w", expression, err)
	}

	return func(rawURL string) bool {
		u, err := url.Parse(rawURL)
		if err != nil {
			return false
		}
		env := URLEnv{
			URL:    rawURL,
			Scheme: u.Scheme,
			Host:   u.Hostname(),
			Port:   u.Port(),
			Path:   u.Path,
			Query:  u.RawQuery,
		}
		out, err := expr.Run(program, env)
		if err != nil {
			return false
		}
		match, ok := out.(bool)
		return ok && match
	}, nil
}
