// Package normalize derives secondary artifacts (probe metadata, thumbnails,
// waveforms, proxies, text extracts) from stored originals, dispatched by
// MIME classification. A failed derivative never blocks the others.
package normalize
