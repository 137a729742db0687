// Package audio handles the "@_" sentinel that marks a string for audio playback
// in the rendered lesson.
package audio

import "strings"

// Marker is the two-character prefix carried by audio-enabled strings.
const Marker = "@_"

// HasMarker reports whether s carries the audio marker.
func HasMarker(s string) bool {
	return strings.HasPrefix(s, Marker)
}

// Strip removes the audio marker from s. Stacked markers are all removed.
func Strip(s string) string {
	for strings.HasPrefix(s, Marker) {
		s = s[len(Marker):]
	}
	return s
}

// Apply adds or removes the marker so that s matches want. Empty strings are
// never marked.
func Apply(s string, want bool) string {
	switch {
	case want && s != "" && !HasMarker(s):
		return Marker + s
	case !want && HasMarker(s):
		return Strip(s)
	}
	return s
}
