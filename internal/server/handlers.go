package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/linkmark/linkmark/pkg/history"
)

// message is the request envelope. Which fields are read depends on the
// action.
type message struct {
	Action  string   `json:"action"`
	URL     string   `json:"url,omitempty"`
	URLs    []string `json:"urls,omitempty"`
	TSVData string   `json:"tsvData,omitempty"`
	CSS     string   `json:"css,omitempty"`
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var msg message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	var resp any

	switch msg.Action {
	case "checkUrl":
		visited, err := s.service.CheckURL(ctx, msg.URL)
		if err != nil {
			resp = errResponse(err)
			break
		}
		resp = map[string]any{"isVisited": visited}

	case "checkUrls":
		results, err := s.service.CheckURLs(ctx, msg.URLs)
		if err != nil {
			resp = errResponse(err)
			break
		}
		resp = map[string]any{"results": results}

	case "getStats":
		stats, err := s.service.Stats(ctx)
		if err != nil {
			resp = errResponse(err)
			break
		}
		resp = stats

	case "importHistory":
		err := s.service.ImportHistory(ctx)
		switch {
		case errors.Is(err, history.ErrImportRunning):
			resp = errResponse(err)
		case err != nil:
			resp = errResponse(err)
		default:
			resp = okResponse()
		}

	case "getImportProgress":
		resp = s.service.Progress()

	case "clearHistory":
		if err := s.service.ClearHistory(ctx); err != nil {
			resp = errResponse(err)
			break
		}
		resp = okResponse()

	case "exportHistory":
		data, err := s.service.ExportHistory(ctx)
		if err != nil {
			resp = errResponse(err)
			break
		}
		resp = map[string]any{"data": data}

	case "importFromTSV":
		imported, errCount, err := s.service.ImportTSV(ctx, msg.TSVData)
		if err != nil {
			resp = errResponse(err)
			break
		}
		resp = map[string]any{"imported": imported, "errors": errCount}

	case "recordVisit":
		if err := s.service.RecordVisit(ctx, msg.URL); err != nil {
			resp = errResponse(err)
			break
		}
		resp = okResponse()

	case "markUrlAsVisited":
		s.service.MarkURLAsVisited(msg.URL)
		resp = okResponse()

	case "updateCss":
		s.service.UpdateCSS(msg.CSS)
		resp = okResponse()

	default:
		http.Error(w, "unknown action", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func okResponse() map[string]any {
	return map[string]any{"success": true}
}

// errResponse reports an action-level failure in the response body; the
// transport itself succeeded.
func errResponse(err error) map[string]any {
	return map[string]any{"error": err.Error()}
}
