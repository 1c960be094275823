package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/askbook/internal/animation"
	"github.com/ziadkadry99/askbook/internal/rag"
	"github.com/ziadkadry99/askbook/internal/vectordb"
)

type askRequest struct {
	Question string `json:"question"`
}

// askResponse carries the answer plus each subject's answer rendered to
// HTML.
type askResponse struct {
	ID     string            `json:"id,omitempty"`
	Answer *rag.Answer       `json:"answer"`
	HTML   map[string]string `json:"html"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	resp, err := s.ask(r, req.Question, nil)
	if err != nil {
		writeError(w, askStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ask runs the pipeline and records the outcome in history.
func (s *Server) ask(r *http.Request, question string, observe rag.Observer) (*askResponse, error) {
	ctx := r.Context()
	start := time.Now()
	ans, err := s.deps.Pipeline.Ask(ctx, question, observe)

	var id string
	if s.deps.History != nil && !errors.Is(err, rag.ErrEmptyQuery) {
		entry, herr := s.deps.History.Record(ctx, strings.TrimSpace(question), ans, err, time.Since(start))
		if herr != nil {
			s.logger.Warn("recording history", "error", herr)
		} else {
			id = entry.ID
		}
	}
	if err != nil {
		s.logger.Error("ask failed", "error", err)
		return nil, err
	}
	return &askResponse{ID: id, Answer: ans, HTML: renderAnswers(ans)}, nil
}

func askStatus(err error) int {
	switch {
	case errors.Is(err, rag.ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.Is(err, vectordb.ErrIndexNotFound):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type subjectInfo struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	Indexed     bool       `json:"indexed"`
	Pages       int        `json:"pages,omitempty"`
	BuiltAt     *time.Time `json:"built_at,omitempty"`
}

func (s *Server) handleSubjects(w http.ResponseWriter, r *http.Request) {
	out := make([]subjectInfo, 0, len(s.deps.Subjects))
	for _, subj := range s.deps.Subjects {
		info := subjectInfo{ID: subj.ID, Description: subj.Description}
		if s.deps.Index != nil {
			if m, err := s.deps.Index.Manifest(subj.ID); err == nil {
				info.Indexed = true
				info.Pages = m.Pages
				info.BuiltAt = &m.BuiltAt
			}
		}
		out = append(out, info)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleFigure(w http.ResponseWriter, r *http.Request) {
	if s.deps.Figures == nil {
		http.NotFound(w, r)
		return
	}
	path, err := s.deps.Figures.Resolve(chi.URLParam(r, "subject"), chi.URLParam(r, "file"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	http.ServeFile(w, r, path)
}

// figureRef names one figure by subject and file name.
type figureRef struct {
	Subject string `json:"subject"`
	File    string `json:"file"`
}

type animateRequest struct {
	Question string      `json:"question"`
	Figures  []figureRef `json:"figures"`
}

type animateResponse struct {
	*animation.Result
	VideoURL string `json:"video_url,omitempty"`
	Error    string `json:"error,omitempty"`
}

func (s *Server) handleAnimate(w http.ResponseWriter, r *http.Request) {
	if s.deps.Animator == nil {
		writeError(w, http.StatusServiceUnavailable, "animation is not configured")
		return
	}
	var req animateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	var paths []string
	for _, f := range req.Figures {
		if s.deps.Figures == nil {
			break
		}
		p, err := s.deps.Figures.Resolve(f.Subject, f.File)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		paths = append(paths, p)
	}

	if !s.animating.TryLock() {
		writeError(w, http.StatusConflict, "an animation is already rendering")
		return
	}
	defer s.animating.Unlock()

	res, err := s.deps.Animator.Generate(r.Context(), req.Question, paths)
	if err != nil {
		s.logger.Error("animation failed", "error", err)
		status := http.StatusInternalServerError
		if errors.Is(err, animation.ErrRender) {
			status = http.StatusUnprocessableEntity
		}
		// The plan and code are still useful for debugging a failed render.
		writeJSON(w, status, animateResponse{Result: res, Error: err.Error()})
		return
	}

	s.videoMu.Lock()
	s.lastVideo = res.VideoPath
	s.videoMu.Unlock()
	writeJSON(w, http.StatusOK, animateResponse{Result: res, VideoURL: "/api/animate/video"})
}

func (s *Server) handleVideo(w http.ResponseWriter, r *http.Request) {
	s.videoMu.RLock()
	path := s.lastVideo
	s.videoMu.RUnlock()
	if path == "" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "video/mp4")
	http.ServeFile(w, r, path)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
