package handler

import (
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	viewAdmin "github.com/lechange/lechange/components/admin"
	"github.com/lechange/lechange/components/ui"
	"github.com/lechange/lechange/internal/auth"
	"github.com/lechange/lechange/internal/database"
	"github.com/lechange/lechange/internal/model"
	"github.com/lechange/lechange/internal/notify"
)

var validTargets = map[string]model.ReportTarget{
	"listing":  model.TargetListing,
	"question": model.TargetQuestion,
	"answer":   model.TargetAnswer,
	"user":     model.TargetUser,
}

// SubmitReport files a report against a listing, question, answer, or
// user.
func SubmitReport(db *database.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := auth.GetUserFromContext(ctx)
		if err != nil {
			log.Printf("%v", err)
			return
		}

		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data.", http.StatusBadRequest)
			return
		}

		targetKind, ok := validTargets[r.PostFormValue("kind")]
		if !ok {
			http.Error(w, "Invalid report target.", http.StatusBadRequest)
			return
		}

		targetID, err := uuid.Parse(r.PostFormValue("target"))
		if err != nil {
			http.Error(w, "Invalid report target.", http.StatusBadRequest)
			return
		}

		reason := strings.TrimSpace(contentPolicy.Sanitize(r.PostFormValue("reason")))
		if reason == "" {
			if err := ui.ErrorMsg("Please give a reason.").Render(ctx, w); err != nil {
				log.Printf("failed to render component: %v", err)
			}
			return
		}

		_, err = db.CreateReport(ctx, database.CreateReportParams{
			ReportID:   uuid.New(),
			ReporterID: userID,
			TargetKind: targetKind,
			TargetID:   targetID,
			Reason:     reason,
		})
		if err != nil {
			log.Printf("failed to create report: %v", err)
			http.Error(w, "Database error.", http.StatusInternalServerError)
			return
		}

		if err := ui.SuccessMsg("Report submitted. A moderator will take a look.").Render(ctx, w); err != nil {
			log.Printf("failed to render component: %v", err)
		}
	}
}

// ServeReportQueue lists open reports for moderators, oldest first.
func ServeReportQueue(db *database.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		reports, err := db.ListOpenReports(ctx, 100)
		if err != nil {
			log.Printf("failed to list reports: %v", err)
			http.Error(w, "Database error.", http.StatusInternalServerError)
			return
		}

		if err := viewAdmin.ReportQueue(reports).Render(ctx, w); err != nil {
			log.Printf("failed to render component: %v", err)
		}
	}
}

// CloseReport resolves or dismisses a report. Resolving a listing
// report with remove=true also removes the listing. The reporter is
// notified either way.
func CloseReport(db *database.Queries, svc *notify.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		moderatorID, err := auth.GetUserFromContext(ctx)
		if err != nil {
			log.Printf("%v", err)
			return
		}

		reportID, err := uuid.Parse(chi.URLParam(r, "reportID"))
		if err != nil {
			http.Error(w, "Invalid report.", http.StatusBadRequest)
			return
		}

		var status model.ReportStatus
		switch r.PostFormValue("action") {
		case "resolve":
			status = model.ReportResolved
		case "dismiss":
			status = model.ReportDismissed
		default:
			http.Error(w, "Invalid action.", http.StatusBadRequest)
			return
		}

		report, err := db.GetReportByID(ctx, reportID)
		if err != nil {
			http.NotFound(w, r)
			return
		}

		if err := db.CloseReport(ctx, reportID, moderatorID, status); err != nil {
			http.Error(w, "Report already handled.", http.StatusConflict)
			return
		}

		if status == model.ReportResolved &&
			report.TargetKind == model.TargetListing &&
			r.PostFormValue("remove") == "true" {
			if err := db.RemoveListing(ctx, report.TargetID); err != nil {
				log.Printf("failed to remove reported listing: %v", err)
			}
		}

		report.Status = status
		svc.ReportClosed(ctx, report)

		w.Header().Set("HX-Redirect", "/admin/reports")
		w.WriteHeader(http.StatusOK)
	}
}
