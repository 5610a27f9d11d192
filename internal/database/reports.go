package database

import (
	"context"

	"github.com/google/uuid"

	"github.com/lechange/lechange/internal/model"
)

type CreateReportParams struct {
	ReportID   uuid.UUID
	ReporterID uuid.UUID
	TargetKind model.ReportTarget
	TargetID   uuid.UUID
	Reason     string
}

func (q *Queries) CreateReport(ctx context.Context, arg CreateReportParams) (model.Report, error) {
	var r model.Report
	err := q.db.QueryRow(ctx, `
		INSERT INTO reports (report_id, reporter_id, target_kind, target_id, reason, status, created_at)
		VALUES ($1, $2, $3, $4, $5, 'open', now())
		RETURNING report_id, reporter_id, target_kind, target_id, reason, status, resolved_by, created_at, resolved_at
	`, arg.ReportID, arg.ReporterID, arg.TargetKind, arg.TargetID, arg.Reason).
		Scan(&r.ReportID, &r.ReporterID, &r.TargetKind, &r.TargetID, &r.Reason,
			&r.Status, &r.ResolvedBy, &r.CreatedAt, &r.ResolvedAt)
	return r, err
}

func (q *Queries) GetReportByID(ctx context.Context, reportID uuid.UUID) (model.Report, error) {
	var r model.Report
	err := q.db.QueryRow(ctx, `
		SELECT report_id, reporter_id, target_kind, target_id, reason, status, resolved_by, created_at, resolved_at
		FROM reports
		WHERE report_id = $1
	`, reportID).Scan(&r.ReportID, &r.ReporterID, &r.TargetKind, &r.TargetID, &r.Reason,
		&r.Status, &r.ResolvedBy, &r.CreatedAt, &r.ResolvedAt)
	if err != nil {
		return model.Report{}, notFound(err)
	}
	return r, nil
}

// ListOpenReports is the moderation queue, oldest first.
func (q *Queries) ListOpenReports(ctx context.Context, limit int) ([]model.Report, error) {
	rows, err := q.db.Query(ctx, `
		SELECT r.report_id, r.reporter_id, r.target_kind, r.target_id, r.reason,
		       r.status, r.resolved_by, r.created_at, r.resolved_at, u.username
		FROM reports r
		JOIN users u ON u.user_id = r.reporter_id
		WHERE r.status = 'open'
		ORDER BY r.created_at
		LIMIT $1
	`, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Report
	for rows.Next() {
		var r model.Report
		if err := rows.Scan(&r.ReportID, &r.ReporterID, &r.TargetKind, &r.TargetID,
			&r.Reason, &r.Status, &r.ResolvedBy, &r.CreatedAt, &r.ResolvedAt,
			&r.ReporterName); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CloseReport moves an open report to resolved or dismissed.
func (q *Queries) CloseReport(ctx context.Context, reportID, moderatorID uuid.UUID, status model.ReportStatus) error {
	tag, err := q.db.Exec(ctx, `
		UPDATE reports SET status = $3, resolved_by = $2, resolved_at = now()
		WHERE report_id = $1 AND status = 'open'
	`, reportID, moderatorID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
