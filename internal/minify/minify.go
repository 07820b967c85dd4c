// Package minify implements the bundler's minification contract: a
// byte-string-to-byte-string transform preserving semantics, backed by
// esbuild's Transform API (the same api.Transform entry point
// internal/transpile is grounded on, here with its Minify* options turned
// on instead of its Loader/JSX options).
package minify

import (
	"fmt"

	"github.com/evanw/esbuild/pkg/api"
)

// Minify compresses code (JS or CSS, chosen by loader) without changing
// observable behavior.
func Minify(code string, loader api.Loader) (string, error) {
	result := api.Transform(code, api.TransformOptions{
		Loader:            loader,
		MinifyWhitespace:  true,
		MinifyIdentifiers: true,
		MinifySyntax:      true,
		Target:            api.ESNext,
		LogLevel:          api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		return "", fmt.Errorf("minify: %s", result.Errors[0].Text)
	}
	return string(result.Code), nil
}

// MinifyJS minifies already-transpiled JavaScript.
func MinifyJS(code string) (string, error) { return Minify(code, api.LoaderJS) }

// MinifyCSS minifies CSS text.
func MinifyCSS(code string) (string, error) { return Minify(code, api.LoaderCSS) }
