// Package pkg holds the libraries behind blurt, a timed free-writing canvas.
//
// # Overview
//
// A blurt session is a countdown during which every submitted thought
// becomes a note on a canvas. Notes fly in from the input, can be dragged
// and flicked, and are packed into a grid when the session ends.
//
//  1. [layout] - Pure geometry: note heights, random placement, grid packing
//  2. [motion] - Frame loop, easing and animation groups
//  3. [board] - The interactive board: notes, drags, countdown, finalization
//  4. [session] - Session and template types, local/cloud/offline storage
//  5. [export] - PNG, SVG, DOT and JSON renderings of a packed board
//
// Supporting packages: [cache] (file, Redis and null backends for the
// offline copy), [config] (TOML plus BLURT_* environment), [errors] (coded
// errors), [observability] (hooks) and [fonts].
//
// # Data flow
//
//	keyboard / pointer
//	        ↓
//	   [board] ── [motion] frames
//	        ↓
//	   [session] Saver → Repository → file / MongoDB (+ offline cache)
//	        ↓
//	   [layout] Pack → [export] PNG / SVG / DOT / JSON
package pkg
