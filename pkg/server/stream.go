package server

import (
	"errors"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/haivivi/voiceid/pkg/voiceprint"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// streamRequest is one identification query on the WebSocket stream.
type streamRequest struct {
	Embedding []float32 `json:"embedding,omitempty"`
	Audio     []float32 `json:"audio,omitempty"`
	ModelTag  string    `json:"model_tag,omitempty"`
	Threshold *float32  `json:"threshold,omitempty"`
}

// streamResponse answers one streamRequest. Exactly one of Match, the empty
// negative (match null with no error), or Error is meaningful.
type streamResponse struct {
	Match *matchJSON `json:"match"`
	Error string     `json:"error,omitempty"`
}

// handleStream serves a WebSocket session of identification queries: the
// client sends one JSON streamRequest per message and receives one
// streamResponse per message, in order. A malformed or failing query
// produces an error response but keeps the session open; the session ends
// when the client closes the connection.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	for {
		var req streamRequest
		if err := conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("websocket read failed", "err", err)
			}
			return
		}

		resp := s.identifyStream(r, req)
		if err := conn.WriteJSON(resp); err != nil {
			s.logger.Warn("websocket write failed", "err", err)
			return
		}
	}
}

func (s *Server) identifyStream(r *http.Request, req streamRequest) streamResponse {
	emb, tag, err := s.resolveInput(r, req.Embedding, req.Audio, req.ModelTag)
	if err != nil {
		return streamResponse{Error: err.Error()}
	}

	threshold := s.threshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	match, err := s.store.Identify(emb, tag, threshold)
	switch {
	case errors.Is(err, voiceprint.ErrNoCandidates):
		return streamResponse{Error: "no_candidates"}
	case err != nil:
		return streamResponse{Error: err.Error()}
	case match == nil:
		return streamResponse{}
	}
	return streamResponse{Match: &matchJSON{
		SpeakerID:   match.SpeakerID,
		SpeakerName: match.SpeakerName,
		Score:       match.Score,
	}}
}
