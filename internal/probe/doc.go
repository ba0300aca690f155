// Package probe wraps ffprobe JSON output in typed structs.
//
// Probing runs through ffmpeg-go's ProbeWithTimeout. Result carries the
// decoded streams and container format plus helpers that resolve a usable
// duration, frame size, frame rate and audio presence.
package probe
