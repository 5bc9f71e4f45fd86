package api

import (
	"net"
	"net/http"
	"strings"

	"realty-marketplace/internal/infra/logging"
	red "realty-marketplace/internal/infra/redis"
)

type chatRequest struct {
	Message  string `json:"message" validate:"required,max=2000"`
	Language string `json:"language" validate:"omitempty,max=16"`
}

type voiceRequest struct {
	// AudioData is base64 in JSON.
	AudioData []byte `json:"audioData" validate:"required"`
	Language  string `json:"language" validate:"omitempty,max=16"`
}

// rateLimit applies the assistant's per-client window. Limiter failures let
// the request through.
func (s *Server) rateLimit(channel string) Middleware {
	return func(next http.Handler) http.Handler {
		if s.Limiter == nil || s.opts.AssistantRateLimit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := red.AssistantKey(channel, clientIP(r))
			ok, err := s.Limiter.Allow(r.Context(), key, s.opts.AssistantRateLimit, s.opts.AssistantRateWindow)
			if err != nil {
				l := logging.With(r.Context(), s.log)
				l.Warn().Err(err).Msg("rate limiter unavailable")
			} else if !ok {
				writeJSON(w, http.StatusTooManyRequests, errorBody{Message: "too many requests, please slow down"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	reply, err := s.Assistant.Chat(r.Context(), req.Message, language(r, req.Language))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) voice(w http.ResponseWriter, r *http.Request) {
	var req voiceRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	reply, err := s.Assistant.Voice(r.Context(), req.AudioData, language(r, req.Language))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

// language prefers the body field, then Accept-Language.
func language(r *http.Request, body string) string {
	if body != "" {
		return body
	}
	al := r.Header.Get("Accept-Language")
	if i := strings.IndexAny(al, ",;"); i >= 0 {
		al = al[:i]
	}
	return strings.TrimSpace(al)
}
