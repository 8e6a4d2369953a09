// Package scrape is the best-effort fallback position source: it fetches a
// public ship-detail page through an ordered list of CORS relay services and
// pattern-matches coordinates out of the HTML.
//
// The extraction is regex over an untrusted, unversioned external document
// and will break when the target site changes markup. It sits behind
// ais.FallbackResolver so it can be swapped for a real API client without
// touching the lookup client.
package scrape
