package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/haivivi/voiceid/pkg/voiceprint"
)

// speakerJSON is the wire form of a voiceprint record. Embeddings are never
// echoed back; they can be large and callers already have them.
type speakerJSON struct {
	SpeakerID    string    `json:"speaker_id"`
	SpeakerName  string    `json:"speaker_name"`
	ModelTag     string    `json:"model_tag"`
	SourceRef    string    `json:"source_ref,omitempty"`
	RegisteredAt time.Time `json:"registered_at"`
	Dimension    int       `json:"dimension"`
}

func toSpeakerJSON(rec voiceprint.Record) speakerJSON {
	return speakerJSON{
		SpeakerID:    rec.SpeakerID,
		SpeakerName:  rec.SpeakerName,
		ModelTag:     rec.ModelTag,
		SourceRef:    rec.SourceRef,
		RegisteredAt: rec.RegisteredAt,
		Dimension:    len(rec.Embedding),
	}
}

type registerRequest struct {
	SpeakerID   string    `json:"speaker_id"`
	SpeakerName string    `json:"speaker_name,omitempty"`
	Embedding   []float32 `json:"embedding,omitempty"`
	Audio       []float32 `json:"audio,omitempty"`
	ModelTag    string    `json:"model_tag,omitempty"`
	SourceRef   string    `json:"source_ref,omitempty"`
}

type identifyRequest struct {
	Embedding []float32 `json:"embedding,omitempty"`
	Audio     []float32 `json:"audio,omitempty"`
	ModelTag  string    `json:"model_tag,omitempty"`
	Threshold *float32  `json:"threshold,omitempty"`
}

type matchJSON struct {
	SpeakerID   string  `json:"speaker_id"`
	SpeakerName string  `json:"speaker_name"`
	Score       float32 `json:"score"`
}

type identifyResponse struct {
	Match *matchJSON `json:"match"`
}

type errorJSON struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"speakers":  s.store.Count(),
		"dimension": s.store.Dimension(),
	})
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	records := s.store.List()
	out := make([]speakerJSON, 0, len(records))
	for _, rec := range records {
		out = append(out, toSpeakerJSON(rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{"speakers": out})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.store.Get(r.PathValue("id"))
	if !ok {
		s.writeError(w, voiceprint.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toSpeakerJSON(rec))
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeBadRequest(w, "invalid JSON: "+err.Error())
		return
	}

	emb, tag, err := s.resolveInput(r, req.Embedding, req.Audio, req.ModelTag)
	if err != nil {
		s.writeError(w, err)
		return
	}

	rec, err := s.store.Register(r.Context(), voiceprint.Registration{
		SpeakerID:   req.SpeakerID,
		SpeakerName: req.SpeakerName,
		Embedding:   emb,
		ModelTag:    tag,
		SourceRef:   req.SourceRef,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSpeakerJSON(*rec))
}

type batchRegisterRequest struct {
	Items []registerRequest `json:"items"`
}

type batchOutcomeJSON struct {
	Index     int          `json:"index"`
	SpeakerID string       `json:"speaker_id,omitempty"`
	Speaker   *speakerJSON `json:"speaker,omitempty"`
	Error     string       `json:"error,omitempty"`
}

func (s *Server) handleBatchRegister(w http.ResponseWriter, r *http.Request) {
	var req batchRegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeBadRequest(w, "invalid JSON: "+err.Error())
		return
	}

	items := make([]voiceprint.BatchItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, voiceprint.BatchItem{
			SpeakerID:   item.SpeakerID,
			SpeakerName: item.SpeakerName,
			SourceRef:   item.SourceRef,
			ModelTag:    item.ModelTag,
			Embedding:   item.Embedding,
			Audio:       item.Audio,
		})
	}

	coord := voiceprint.NewCoordinator(s.store, s.extractor)
	report, err := coord.RegisterAll(r.Context(), items)
	if err != nil {
		s.writeError(w, err)
		return
	}

	outcomes := make([]batchOutcomeJSON, 0, len(report.Outcomes))
	for _, out := range report.Outcomes {
		oj := batchOutcomeJSON{Index: out.Index, SpeakerID: out.SpeakerID}
		if out.Record != nil {
			sj := toSpeakerJSON(*out.Record)
			oj.Speaker = &sj
		}
		if out.Err != nil {
			oj.Error = out.Err.Error()
		}
		outcomes = append(outcomes, oj)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"outcomes": outcomes,
		"failed":   report.Failed,
	})
}

func (s *Server) handleUnregister(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Unregister(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleIdentify(w http.ResponseWriter, r *http.Request) {
	var req identifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeBadRequest(w, "invalid JSON: "+err.Error())
		return
	}

	emb, tag, err := s.resolveInput(r, req.Embedding, req.Audio, req.ModelTag)
	if err != nil {
		s.writeError(w, err)
		return
	}

	threshold := s.threshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	match, err := s.store.Identify(emb, tag, threshold)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := identifyResponse{}
	if match != nil {
		resp.Match = &matchJSON{
			SpeakerID:   match.SpeakerID,
			SpeakerName: match.SpeakerName,
			Score:       match.Score,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// resolveInput reduces a request to an embedding and model tag, running the
// extractor when the request carries raw audio.
func (s *Server) resolveInput(r *http.Request, emb, audio []float32, tag string) ([]float32, string, error) {
	if emb != nil {
		if tag == "" && s.extractor != nil {
			tag = s.extractor.ModelTag()
		}
		if tag == "" {
			return nil, "", errors.New("server: model_tag is required with a precomputed embedding")
		}
		return emb, tag, nil
	}
	if audio == nil {
		return nil, "", errors.New("server: either embedding or audio is required")
	}
	if s.extractor == nil {
		return nil, "", errors.New("server: no extractor configured, send a precomputed embedding")
	}
	out, err := s.extractor.Extract(r.Context(), audio)
	if err != nil {
		return nil, "", err
	}
	if tag == "" {
		tag = s.extractor.ModelTag()
	}
	return out, tag, nil
}

// writeError maps a voiceprint error to an HTTP status and JSON body.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var code string
	var status int
	switch {
	case errors.Is(err, voiceprint.ErrNotFound):
		code, status = "not_found", http.StatusNotFound
	case errors.Is(err, voiceprint.ErrNoCandidates):
		code, status = "no_candidates", http.StatusNotFound
	case errors.Is(err, voiceprint.ErrInvalidEmbedding),
		errors.Is(err, voiceprint.ErrDimensionMismatch),
		errors.Is(err, voiceprint.ErrDegenerateVector),
		errors.Is(err, voiceprint.ErrInvalidThreshold):
		code, status = "invalid_input", http.StatusBadRequest
	case errors.Is(err, voiceprint.ErrExtraction):
		code, status = "extraction_failed", http.StatusUnprocessableEntity
	case errors.Is(err, voiceprint.ErrPersistence):
		code, status = "persistence_failed", http.StatusInternalServerError
		s.logger.Error("persistence failure", "err", err)
	default:
		code, status = "bad_request", http.StatusBadRequest
	}

	var body errorJSON
	body.Error.Code = code
	body.Error.Message = err.Error()
	writeJSON(w, status, body)
}

func (s *Server) writeBadRequest(w http.ResponseWriter, msg string) {
	var body errorJSON
	body.Error.Code = "bad_request"
	body.Error.Message = msg
	writeJSON(w, http.StatusBadRequest, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
