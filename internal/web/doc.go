// Package web serves the easel HTTP surface: the embedded single-page
// UI, the JSON API, and the SSE stream that carries a generation to the
// browser as it happens.
//
// # Endpoints
//
//	GET  /{$}            embedded UI
//	GET  /static/        embedded assets (css, js)
//	POST /api/generate   run one exchange, streamed as SSE
//	GET  /api/transcript current transcript as JSON
//	GET  /api/preview    current preview document as text/html (204 when blank)
//	POST /api/reset      clear transcript and preview
//	GET  /healthz        liveness probe
//	GET  /readyz         readiness probe
//
// Health probes are registered outside the middleware stack so load
// balancers are never rate limited or logged per request.
//
// # Response envelope
//
// Non-streaming endpoints wrap every body the same way:
//
//	{"data": {...}}
//	{"error": {"code": "stream_active", "message": "..."}}
//
// Error codes are stable API surface; messages are for humans.
//
// # The generate stream
//
// POST /api/generate answers with text/event-stream. Events, in order
// of appearance:
//
//	turn      a transcript turn changed; payload is the full turn
//	preview   the preview document was replaced; payload carries the
//	          document and its version
//	rejected  the response carried no artifact, the raw text stands
//	error     the exchange was refused or lost; payload is the usual
//	          error body
//	done      terminal event of a settled exchange
//
// Validation failures detected before the stream starts (empty prompt,
// oversized prompt, a stream already in flight) are plain JSON errors
// with proper status codes. Failures after the SSE headers are
// committed arrive as error events instead, since the status line is
// already on the wire.
package web
