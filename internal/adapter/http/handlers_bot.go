package adapthttp

import (
	"encoding/base64"
	"net/http"
	"strconv"
)

// botText reads the message from the text query parameter or a JSON body.
func botText(r *http.Request) (string, error) {
	if text := r.URL.Query().Get("text"); text != "" || r.Method == http.MethodGet {
		return text, nil
	}
	var body struct {
		Text string `json:"text"`
	}
	if err := parseJSON(r, &body); err != nil {
		return "", err
	}
	return body.Text, nil
}

func (s *Server) handleBot(w http.ResponseWriter, r *http.Request) {
	text, err := botText(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp := s.svc.Chat.Reply(r.Context(), text)
	img := ""
	if len(resp.Image) > 0 {
		img = base64.StdEncoding.EncodeToString(resp.Image)
	}
	writeJSON(w, http.StatusOK, map[string]any{"text": resp.Text, "img": img})
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	ins := s.svc.Chat.Explain(r.URL.Query().Get("text"))
	body := map[string]any{
		"action":   ins.Action.String(),
		"category": ins.Category.String(),
		"content":  ins.Content,
		"when":     ins.When.String(),
		"status":   ins.SystemStatus,
	}
	if ins.Amount != nil {
		body["amount"] = strconv.FormatFloat(*ins.Amount, 'f', -1, 64)
	}
	writeJSON(w, http.StatusOK, body)
}
