package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"datachat_llm/internal/dataset"
	"datachat_llm/internal/logger"
	"datachat_llm/internal/router"
	"datachat_llm/internal/session"
	"datachat_llm/internal/tools"
	"datachat_llm/pkg"
)

const maxUploadBytes = 32 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid multipart form: %w", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("missing file field: %w", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("failed to read upload: %w", err))
		return
	}

	name := r.FormValue("name")
	if name == "" {
		base := filepath.Base(header.Filename)
		name = dataset.SnakeCase(strings.TrimSuffix(base, filepath.Ext(base)))
	}
	if name == "" {
		name = "dataset"
	}

	f, err := dataset.Parse(data, name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	sessionID := r.FormValue("session_id")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	sess := s.sessions.GetOrCreate(sessionID)
	sess.Registry.Put(f)

	schemaInfo := dataset.InferSchema(f)
	logger.Info().
		Str("session_id", sessionID).
		Str("dataset", f.Name).
		Int("rows", f.NumRows()).
		Int("cols", f.NumCols()).
		Msg("Dataset uploaded")

	writeJSON(w, http.StatusOK, pkg.UploadResult{
		SessionID: sessionID,
		Name:      f.Name,
		Rows:      f.NumRows(),
		Cols:      f.NumCols(),
		Schema:    *schemaInfo,
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req pkg.ChatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("message is required"))
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	ctx := r.Context()
	sess := s.sessions.GetOrCreate(req.SessionID)

	if err := s.history.AddMessage(ctx, req.SessionID, schema.UserMessage(req.Message)); err != nil {
		logger.Warn().Err(err).Msg("Failed to record user message")
	}

	s.applyColumnPreference(sess, req.Message)

	intent := router.Detect(req.Message)
	if question := router.ClarifyPlot(sess, intent); question != "" {
		s.recordReply(ctx, req.SessionID, question)
		writeJSON(w, http.StatusOK, pkg.ChatResponse{
			SessionID:          req.SessionID,
			Reply:              question,
			ClarifyingQuestion: question,
		})
		return
	}

	history, err := s.history.Load(ctx, req.SessionID)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to load history")
		history = &session.ConversationHistory{}
	}
	contextBlock := ""
	if len(history.Messages) > 1 {
		prior := history.Messages[:len(history.Messages)-1]
		contextBlock = session.BuildContext(prior, s.cfg.Session.MaxTurns)
	}

	toolset := tools.NewToolset(sess, s.plots)
	reply, err := s.responder.Run(ctx, contextBlock, req.Message, toolset.All())
	if err != nil {
		logger.Error().Err(err).Str("session_id", req.SessionID).Msg("Agent run failed")
		writeJSON(w, http.StatusOK, pkg.ChatResponse{
			SessionID: req.SessionID,
			Error:     "I could not process that request, please try rephrasing it.",
		})
		return
	}

	s.recordReply(ctx, req.SessionID, reply)

	writeJSON(w, http.StatusOK, pkg.ChatResponse{
		SessionID: req.SessionID,
		Reply:     reply,
		ChartData: sess.TakeLastChart(),
	})
}

// applyColumnPreference remembers "use <column>" style answers so a
// later plot request does not re-ask for the x-axis.
func (s *Server) applyColumnPreference(sess *session.Session, message string) {
	lower := strings.ToLower(message)
	idx := strings.Index(lower, "use ")
	if idx < 0 {
		return
	}

	rest := strings.Fields(lower[idx+len("use "):])
	if len(rest) == 0 {
		return
	}
	term := strings.Trim(rest[0], `"'.,!?`)

	f, err := sess.Registry.Get("")
	if err != nil {
		return
	}
	if col := dataset.Resolve(f, term); col != "" {
		sess.SetPref("date_col", col)
		logger.Debug().Str("column", col).Msg("Remembered x-axis preference")
	}
}

func (s *Server) recordReply(ctx context.Context, sessionID, reply string) {
	if err := s.history.AddMessage(ctx, sessionID, schema.AssistantMessage(reply, nil)); err != nil {
		logger.Warn().Err(err).Msg("Failed to record assistant message")
	}
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req pkg.ResetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	s.sessions.Delete(req.SessionID)
	if err := s.history.Clear(r.Context(), req.SessionID); err != nil {
		logger.Warn().Err(err).Msg("Failed to clear history")
	}

	logger.Info().Str("session_id", req.SessionID).Msg("Session reset")
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset", "session_id": req.SessionID})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	history, err := s.history.Load(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	resp := pkg.HistoryResponse{SessionID: id}
	for _, msg := range history.Messages {
		resp.Messages = append(resp.Messages, pkg.ConversationMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	if sess := s.sessions.Get(id); sess != nil {
		resp.CreatedAt = sess.CreatedAt
		resp.UpdatedAt = sess.UpdatedAt
	}

	writeJSON(w, http.StatusOK, resp)
}

func decodeJSON(r *http.Request, dest any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read request body: %w", err)
	}
	if err := sonic.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	data, err := sonic.Marshal(payload)
	if err != nil {
		http.Error(w, "encoding failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
