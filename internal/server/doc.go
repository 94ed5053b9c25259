// Package server hosts the Fiber HTTP service: the request middleware chain,
// the JSON endpoints used by the front-end script, static assets, and the
// catch-all route that renders full pages from the site template.
// Diagnostics live under /-/ and are registered by the routes subpackage, so
// keep exports narrow and accept explicit dependencies.
package server
