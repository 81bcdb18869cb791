package httptransport

import (
	"time"

	authmodels "rosterd/internal/auth/models"
	entriesmodels "rosterd/internal/entries/models"
	leavemodels "rosterd/internal/leave/models"
	transfermodels "rosterd/internal/transfer/models"
	workmodels "rosterd/internal/work/models"
)

// Response DTOs. Domain models never cross the transport boundary directly;
// these fix the wire shape independently of internal struct layout.

type driverResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

func toDriverResponse(d *authmodels.Driver) driverResponse {
	return driverResponse{
		ID:    d.ID.String(),
		Email: d.Email,
		Name:  d.Name,
	}
}

type workPeriodResponse struct {
	ID                string     `json:"id"`
	DriverID          string     `json:"driverId"`
	DeclaredStartTime time.Time  `json:"declaredStartTime"`
	DeclaredEndTime   *time.Time `json:"declaredEndTime,omitempty"`
	Status            string     `json:"status"`
	CreatedAt         time.Time  `json:"createdAt"`
}

func toWorkPeriodResponse(p *workmodels.WorkPeriod) workPeriodResponse {
	return workPeriodResponse{
		ID:                p.ID.String(),
		DriverID:          p.DriverID.String(),
		DeclaredStartTime: p.DeclaredStartTime,
		DeclaredEndTime:   p.DeclaredEndTime,
		Status:            string(p.Status),
		CreatedAt:         p.CreatedAt,
	}
}

type workCorrectionResponse struct {
	ID                 string    `json:"id"`
	WorkPeriodID       string    `json:"workPeriodId"`
	CorrectedStartTime time.Time `json:"correctedStartTime"`
	CorrectedEndTime   time.Time `json:"correctedEndTime"`
	Reason             string    `json:"reason,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
}

func toWorkCorrectionResponse(c *workmodels.WorkCorrection) workCorrectionResponse {
	return workCorrectionResponse{
		ID:                 c.ID.String(),
		WorkPeriodID:       c.WorkPeriodID.String(),
		CorrectedStartTime: c.CorrectedStartTime,
		CorrectedEndTime:   c.CorrectedEndTime,
		Reason:             c.Reason,
		CreatedAt:          c.CreatedAt,
	}
}

type leaveResponse struct {
	ID                string    `json:"id"`
	DriverID          string    `json:"driverId"`
	DeclaredStartTime time.Time `json:"declaredStartTime"`
	DeclaredEndTime   time.Time `json:"declaredEndTime"`
	Reason            string    `json:"reason,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

func toLeaveResponse(l *leavemodels.LeaveEvent) leaveResponse {
	return leaveResponse{
		ID:                l.ID.String(),
		DriverID:          l.DriverID.String(),
		DeclaredStartTime: l.DeclaredStartTime,
		DeclaredEndTime:   l.DeclaredEndTime,
		Reason:            l.Reason,
		CreatedAt:         l.CreatedAt,
	}
}

type leaveCorrectionResponse struct {
	ID                 string    `json:"id"`
	LeaveID            string    `json:"leaveId"`
	CorrectedStartTime time.Time `json:"correctedStartTime"`
	CorrectedEndTime   time.Time `json:"correctedEndTime"`
	Reason             string    `json:"reason,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
}

func toLeaveCorrectionResponse(c *leavemodels.LeaveCorrection) leaveCorrectionResponse {
	return leaveCorrectionResponse{
		ID:                 c.ID.String(),
		LeaveID:            c.LeaveID.String(),
		CorrectedStartTime: c.CorrectedStartTime,
		CorrectedEndTime:   c.CorrectedEndTime,
		Reason:             c.Reason,
		CreatedAt:          c.CreatedAt,
	}
}

type transferResponse struct {
	ID           string    `json:"id"`
	WorkPeriodID string    `json:"workPeriodId"`
	FromDriverID string    `json:"fromDriverId"`
	ToDriverID   string    `json:"toDriverId"`
	Reason       string    `json:"reason,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

func toTransferResponse(t *transfermodels.ShiftTransferEvent) transferResponse {
	return transferResponse{
		ID:           t.ID.String(),
		WorkPeriodID: t.WorkPeriodID.String(),
		FromDriverID: t.FromDriverID.String(),
		ToDriverID:   t.ToDriverID.String(),
		Reason:       t.Reason,
		CreatedAt:    t.CreatedAt,
	}
}

type entryResponse struct {
	ID                 string     `json:"id"`
	DriverID           string     `json:"driverId"`
	Type               string     `json:"type"`
	SourceType         string     `json:"sourceType"`
	SourceID           string     `json:"sourceId"`
	EffectiveStartTime time.Time  `json:"effectiveStartTime"`
	EffectiveEndTime   *time.Time `json:"effectiveEndTime"`
	Reason             string     `json:"reason,omitempty"`
}

func toEntryResponse(e *entriesmodels.EntryRecord) entryResponse {
	resp := entryResponse{
		ID:                 e.ID.String(),
		DriverID:           e.DriverID.String(),
		Type:               string(e.Type),
		SourceType:         string(e.SourceType),
		SourceID:           e.SourceID,
		EffectiveStartTime: e.EffectiveStartTime,
		Reason:             e.Reason,
	}
	if !e.IsOpenEnded() {
		end := e.EffectiveEndTime
		resp.EffectiveEndTime = &end
	}
	return resp
}

func toEntryResponses(entries []*entriesmodels.EntryRecord) []entryResponse {
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryResponse(e))
	}
	return out
}
