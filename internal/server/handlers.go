package server

import (
	"net/http"
	"os"
	"strings"
	"time"

	"shelfwatch/internal/api"
	"shelfwatch/internal/logging"
	"shelfwatch/internal/store"
)

func (s *Server) handleIssues(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var issueType store.IssueType
	if raw := strings.TrimSpace(query.Get("type")); raw != "" {
		parsed, ok := store.ParseIssueType(raw)
		if !ok {
			s.writeError(w, http.StatusBadRequest, "unknown issue type")
			return
		}
		issueType = parsed
	}
	severity := strings.ToLower(strings.TrimSpace(query.Get("severity")))

	issues, err := s.store.ListIssues(r.Context(), issueType, severity)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]api.Issue, 0, len(issues))
	for _, issue := range issues {
		out = append(out, toAPIIssue(issue))
	}
	s.writeJSON(w, http.StatusOK, api.IssueListResponse{Issues: out})
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListItems(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	whitelisted, err := s.store.WhitelistedIDs(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]api.Item, 0, len(items))
	for _, item := range items {
		_, onList := whitelisted[item.ID]
		out = append(out, toAPIItem(item, onList))
	}
	s.writeJSON(w, http.StatusOK, api.ItemListResponse{Items: out})
}

func (s *Server) handleWhitelistList(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.ListWhitelist(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]api.WhitelistEntry, 0, len(entries))
	for _, entry := range entries {
		converted := api.WhitelistEntry{
			ItemID:    entry.ItemID,
			Reason:    entry.Reason,
			CreatedAt: formatTime(&entry.CreatedAt),
		}
		if item, err := s.store.ItemByID(r.Context(), entry.ItemID); err == nil && item != nil {
			converted.Title = item.DisplayTitle()
		}
		out = append(out, converted)
	}
	s.writeJSON(w, http.StatusOK, api.WhitelistResponse{Entries: out})
}

func (s *Server) handleWhitelistAdd(w http.ResponseWriter, r *http.Request) {
	var body api.WhitelistRequest
	if err := decodeBody(r, &body); err != nil || strings.TrimSpace(body.ItemID) == "" {
		s.writeError(w, http.StatusBadRequest, "itemId is required")
		return
	}
	if err := s.store.AddWhitelist(r.Context(), strings.TrimSpace(body.ItemID), body.Reason); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWhitelistRemove(w http.ResponseWriter, r *http.Request) {
	removed, err := s.store.RemoveWhitelist(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !removed {
		s.writeError(w, http.StatusNotFound, "whitelist entry not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleNicknameSet(w http.ResponseWriter, r *http.Request) {
	var body api.NicknameRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.updateItem(w, r, func(id string) (bool, error) {
		return s.store.SetNickname(r.Context(), id, strings.TrimSpace(body.Nickname))
	})
}

func (s *Server) handleNicknameClear(w http.ResponseWriter, r *http.Request) {
	s.updateItem(w, r, func(id string) (bool, error) {
		return s.store.SetNickname(r.Context(), id, "")
	})
}

func (s *Server) handleExempt(w http.ResponseWriter, r *http.Request) {
	var body api.ExemptRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.updateItem(w, r, func(id string) (bool, error) {
		return s.store.SetExempt(r.Context(), id, body.Exempt)
	})
}

func (s *Server) updateItem(w http.ResponseWriter, r *http.Request, update func(id string) (bool, error)) {
	found, err := update(r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !found {
		s.writeError(w, http.StatusNotFound, "item not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleThresholdsGet(w http.ResponseWriter, r *http.Request) {
	thresholds, err := s.store.GetThresholds(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, toAPIThresholds(thresholds))
}

func (s *Server) handleThresholdsPut(w http.ResponseWriter, r *http.Request) {
	var body api.Thresholds
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.StaleDays < 0 || body.MaxMovieGiB < 0 || body.RequestGraceDays < 0 || body.RecentDays < 0 {
		s.writeError(w, http.StatusBadRequest, "thresholds must not be negative")
		return
	}
	for _, lang := range body.PreferredLanguages {
		if len(strings.TrimSpace(lang)) != 3 {
			s.writeError(w, http.StatusBadRequest, "preferred languages must be ISO 639-2 codes")
			return
		}
	}
	err := s.store.UpdateThresholds(r.Context(), store.Thresholds{
		StaleDays:            body.StaleDays,
		MaxMovieGiB:          body.MaxMovieGiB,
		PreferredLanguages:   normalizeLanguages(body.PreferredLanguages),
		RequireMultipleAudio: body.RequireMultipleAudio,
		RequestGraceDays:     body.RequestGraceDays,
		RecentDays:           body.RecentDays,
	})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := s.store.ListRequests(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]api.MediaRequest, 0, len(requests))
	for _, request := range requests {
		out = append(out, toAPIRequest(request))
	}
	s.writeJSON(w, http.StatusOK, api.RequestListResponse{Requests: out})
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if s.syncer == nil {
		s.writeError(w, http.StatusServiceUnavailable, "sync is not configured")
		return
	}
	summary, err := s.syncer.Run(r.Context())
	if err != nil {
		s.logger.Error("manual sync failed", logging.Error(err))
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.SyncResponse{
		Items:    summary.Items,
		Requests: summary.Requests,
		Issues:   summary.Issues,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	state, err := s.store.GetSyncState(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	stats, err := s.store.IssueStats(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	itemCount, err := s.store.CountItems(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	statStrings := make(map[string]int, len(stats))
	for issueType, count := range stats {
		statStrings[string(issueType)] = count
	}
	s.writeJSON(w, http.StatusOK, api.StatusResponse{
		Version:    s.version,
		PID:        os.Getpid(),
		UptimeSecs: int64(time.Since(s.startedAt).Seconds()),
		LastSyncAt: formatTime(state.LastSyncAt),
		LastError:  state.LastError,
		IssueStats: statStrings,
		ItemCount:  itemCount,
	})
}

func normalizeLanguages(codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		out = append(out, strings.ToLower(strings.TrimSpace(code)))
	}
	return out
}
