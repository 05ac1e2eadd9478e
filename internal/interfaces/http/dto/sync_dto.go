package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/erp/edisync/internal/application/edisync"
)

// RunSyncRequest selects the actions of a manual sync run.
// An empty list runs the actions that are due.
type RunSyncRequest struct {
	ActionIDs []string `json:"action_ids" binding:"omitempty,max=100,dive,uuid"`
}

// ParseActionIDs converts the validated ids
func (r RunSyncRequest) ParseActionIDs() ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(r.ActionIDs))
	for _, s := range r.ActionIDs {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ActionResultResponse describes how one action ended
type ActionResultResponse struct {
	ActionID   string `json:"action_id"`
	DocCode    string `json:"doc_code"`
	Status     string `json:"status"`
	Processed  int    `json:"processed"`
	Summary    string `json:"summary,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// RunReportResponse is the result of one sync cycle
type RunReportResponse struct {
	StartedAt  time.Time              `json:"started_at"`
	Succeeded  int                    `json:"succeeded"`
	Failed     int                    `json:"failed"`
	Skipped    int                    `json:"skipped"`
	Incomplete int                    `json:"incomplete"`
	Results    []ActionResultResponse `json:"results"`
}

// NewRunReportResponse maps a dispatcher report
func NewRunReportResponse(report *edisync.RunReport) RunReportResponse {
	resp := RunReportResponse{
		StartedAt:  report.StartedAt,
		Succeeded:  report.Count(edisync.ActionStatusSucceeded),
		Failed:     report.Count(edisync.ActionStatusFailed),
		Skipped:    report.Count(edisync.ActionStatusSkipped),
		Incomplete: report.Count(edisync.ActionStatusIncomplete),
		Results:    make([]ActionResultResponse, 0, len(report.Results)),
	}
	for _, r := range report.Results {
		item := ActionResultResponse{
			ActionID:   r.ActionID.String(),
			DocCode:    string(r.Code),
			Status:     string(r.Status),
			Processed:  r.Outcome.Processed,
			Summary:    r.Outcome.Summary,
			DurationMS: r.Duration.Milliseconds(),
		}
		if r.Err != nil {
			item.Error = r.Err.Error()
		}
		resp.Results = append(resp.Results, item)
	}
	return resp
}

// ConnectionTestResponse reports a successful connection test
type ConnectionTestResponse struct {
	ConfigID string `json:"config_id"`
	Message  string `json:"message"`
}

// HealthResponse reports the state of the service and its dependencies
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version,omitempty"`
	Uptime    string            `json:"uptime"`
	Checks    map[string]string `json:"checks,omitempty"`
	LastCycle *time.Time        `json:"last_cycle,omitempty"`
}
