// Package credstore persists the live-feed API key under a fixed name in a
// small yaml file, the service-side analogue of browser local storage: read
// once at client construction, rewritten on every credential change.
package credstore
