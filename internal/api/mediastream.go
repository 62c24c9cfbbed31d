package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/snarg/callengine/internal/mediastream"
)

// mountMediaStream wires the optional realtime audio path (spec §6's
// "Media stream (optional, for realtime path)") onto r when enabled.
func mountMediaStream(r chi.Router, h *mediastream.Handler) {
	r.Get("/media-stream", h.ServeHTTP)
}
