package host

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	c "lautenbacher.net/buttonleds/config"
	"lautenbacher.net/buttonleds/controller"
	"lautenbacher.net/buttonleds/pixel"
)

// Handler returns the web API of the device.
func (h *Host) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/config", h.guard(c.ConfigHandler(h.cfile)))
	mux.HandleFunc("/api/schema", c.SchemaHandler)
	mux.Handle("/api/state", h.guard(http.HandlerFunc(h.stateHandler)))
	mux.Handle("/api/info", h.guard(http.HandlerFunc(h.infoHandler)))
	mux.Handle("/api/segment", h.guard(http.HandlerFunc(h.segmentHandler)))
	mux.Handle("/ws", h.guard(http.HandlerFunc(h.wsHandler)))
	return mux
}

// guard refuses requests while brightness selection runs.
func (h *Host) guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Exclusive() {
			slog.Debug("Refusing request during brightness selection", "path", r.URL.Path)
			http.Error(w, "Brightness selection in progress", http.StatusServiceUnavailable)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func (h *Host) stateHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, h.State())
	case http.MethodPost:
		defer r.Body.Close()
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if err := h.MergeState(body, time.Now()); err != nil {
			if errors.Is(err, controller.ErrMalformed) {
				slog.Error("Failed to decode incoming state", "error", err)
				http.Error(w, "Invalid request body", http.StatusBadRequest)
				return
			}
			slog.Warn("Ignored invalid state fields", "error", err)
		}
		writeJSON(w, h.State())
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Host) infoHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, h.Info())
}

type segmentUpdate struct {
	Effect *string `json:"effect"`
	LedRGB []int   `json:"led_rgb"`
}

// segmentHandler shows and changes the native host effect.
func (h *Host) segmentHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		defer r.Body.Close()
		var upd segmentUpdate
		if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		// validate every field before touching the segment
		var effect Effect
		if upd.Effect != nil {
			var err error
			if effect, err = ParseEffect(*upd.Effect); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
		}
		if upd.LedRGB != nil {
			if len(upd.LedRGB) != 3 {
				http.Error(w, "led_rgb must have 3 values", http.StatusBadRequest)
				return
			}
			for _, v := range upd.LedRGB {
				if v < 0 || v > 255 {
					http.Error(w, "led_rgb values must be between 0 and 255", http.StatusBadRequest)
					return
				}
			}
		}
		if upd.Effect != nil {
			h.seg.SetEffect(effect)
		}
		if upd.LedRGB != nil {
			h.seg.SetColor(pixel.Led{Red: byte(upd.LedRGB[0]), Green: byte(upd.LedRGB[1]), Blue: byte(upd.LedRGB[2])})
		}
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, h.seg.State())
}

func (h *Host) wsHandler(w http.ResponseWriter, r *http.Request) {
	h.hub.Serve(w, r, stateMessage(h.State(), time.Now()))
}
