package api

import (
	"net/http"
)

func (s *Server) handleOracleStats(w http.ResponseWriter, r *http.Request) {
	if s.oracleStats == nil {
		jsonError(w, "oracle stats unavailable", http.StatusServiceUnavailable)
		return
	}

	model := ""
	switch s.cfg.OracleProvider {
	case "claude":
		model = s.cfg.AnthropicModel
	case "openai":
		model = s.cfg.OpenAIModel
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"provider": s.cfg.OracleProvider,
		"model":    model,
		"stats":    s.oracleStats.Snapshot(),
	})
}
