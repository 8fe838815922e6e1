// Package imagegen wraps the image acquisition service used by the
// rendering stage. The service caches generated assets per project; the
// force_regenerate flag on the job bypasses that cache. Calls are single
// attempt.
package imagegen
