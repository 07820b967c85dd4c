package hmr

import _ "embed"

// RuntimeSource is the HMR client runtime served at /@hmr-client. It is
// embedded at build time rather than read from disk so the dev server
// behaves identically regardless of the working directory it's launched
// from.
//
//go:embed embedded/client.js
var RuntimeSource string
