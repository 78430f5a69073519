package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"salesbi/internal/config"
	"salesbi/internal/dataprocessing"
	apierrors "salesbi/internal/errors"
	"salesbi/internal/middleware"
	"salesbi/pkg/contracts/domain"
)

// Export content types
const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeCSV  = "text/csv; charset=utf-8"
)

// ReportHandler serves the sales reports
type ReportHandler struct {
	service      ReportServiceInterface
	validator    *middleware.Validator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	now          func() time.Time
}

// NewReportHandler creates a new report handler
func NewReportHandler(service ReportServiceInterface, validator *middleware.Validator, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ReportHandler {
	return &ReportHandler{
		service:      service,
		validator:    validator,
		logger:       logger.With(slog.String("component", "report_handler")),
		errorHandler: errorHandler,
		now:          time.Now,
	}
}

// Routes returns the report routes. Every route accepts the filter query
// parameters.
func (h *ReportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(ParamsCtx(h.validator, h.errorHandler))

	r.Get("/", h.ListReports)
	r.Get("/summary", h.GetSummary)
	r.Get("/dashboard", h.GetDashboard)
	r.Get("/filters", h.GetFilterOptions)

	r.Get("/revenue/period", h.GetReport(domain.ReportRevenueByPeriod))
	r.Get("/revenue/region", h.GetReport(domain.ReportRevenueByRegion))
	r.Get("/positivation", h.GetReport(domain.ReportPositivation))
	r.Get("/positivation/region", h.GetReport(domain.ReportPositivationRegion))
	r.Get("/churn", h.GetReport(domain.ReportChurn))
	r.Get("/rankings/salespeople", h.GetReport(domain.ReportSalespersonRanking))
	r.Get("/rankings/customers", h.GetReport(domain.ReportCustomerRanking))
	r.Get("/price-trend", h.GetReport(domain.ReportPriceTrend))
	r.Get("/commission", h.GetReport(domain.ReportCommission))
	r.Get("/aging", h.GetAging)

	r.Route("/customers", func(r chi.Router) {
		r.Get("/history", h.GetCustomerHistory)
		r.Get("/suggest", h.SuggestCustomers)
	})

	r.Get("/export", h.ExportWorkbook)
	r.Get("/export/{report}.csv", h.ExportCSV)

	// Any report by name, e.g. /api/reports/salesperson_ranking
	r.Get("/{report}", h.GetNamedReport)

	return r
}

// ListReports handles GET /api/reports
func (h *ReportHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	respond(w, r, domain.AllReportTypes)
}

// GetSummary handles GET /api/reports/summary
func (h *ReportHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Summary(r.Context(), ParamsFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, "summary", err)
		return
	}
	respond(w, r, result)
}

// GetDashboard handles GET /api/reports/dashboard
func (h *ReportHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	results, err := h.service.Dashboard(r.Context(), ParamsFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, "dashboard", err)
		return
	}
	respond(w, r, results)
}

// GetFilterOptions handles GET /api/reports/filters
func (h *ReportHandler) GetFilterOptions(w http.ResponseWriter, r *http.Request) {
	options, err := h.service.FilterOptions(r.Context())
	if err != nil {
		h.fail(w, r, "filters", err)
		return
	}
	respond(w, r, options)
}

// GetReport returns a handler serving one fixed report
func (h *ReportHandler) GetReport(report domain.ReportType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.serveReport(w, r, string(report))
	}
}

// GetNamedReport handles GET /api/reports/{report}
func (h *ReportHandler) GetNamedReport(w http.ResponseWriter, r *http.Request) {
	h.serveReport(w, r, chi.URLParam(r, "report"))
}

func (h *ReportHandler) serveReport(w http.ResponseWriter, r *http.Request, name string) {
	result, err := h.service.Report(r.Context(), name, ParamsFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, name, err)
		return
	}
	respond(w, r, result)
}

// GetAging handles GET /api/reports/aging with the receivables and their
// bucket totals
func (h *ReportHandler) GetAging(w http.ResponseWriter, r *http.Request) {
	params := ParamsFromContext(r.Context())

	receivables, err := h.service.Report(r.Context(), string(domain.ReportAging), params)
	if err != nil {
		h.fail(w, r, string(domain.ReportAging), err)
		return
	}
	buckets, err := h.service.Report(r.Context(), string(domain.ReportAgingSummary), params)
	if err != nil {
		h.fail(w, r, string(domain.ReportAgingSummary), err)
		return
	}

	respond(w, r, map[string]interface{}{
		"receivables": receivables,
		"buckets":     buckets,
	})
}

// GetCustomerHistory handles GET /api/reports/customers/history?customer=
func (h *ReportHandler) GetCustomerHistory(w http.ResponseWriter, r *http.Request) {
	params := ParamsFromContext(r.Context())
	if strings.TrimSpace(params.Customer) == "" {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("customer", "is required"))
		return
	}
	h.serveReport(w, r, string(domain.ReportCustomerHistory))
}

// SuggestCustomers handles GET /api/reports/customers/suggest?q=
func (h *ReportHandler) SuggestCustomers(w http.ResponseWriter, r *http.Request) {
	search := strings.TrimSpace(r.URL.Query().Get("q"))
	params := ParamsFromContext(r.Context())
	if search == "" {
		search = params.Customer
	}
	if len(search) > 200 {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("q", "must be at most 200"))
		return
	}

	refs, err := h.service.Suggest(r.Context(), search, params)
	if err != nil {
		h.fail(w, r, "suggest", err)
		return
	}
	respond(w, r, refs)
}

// ExportWorkbook handles GET /api/reports/export?reports=a,b. No reports
// exports every report.
func (h *ReportHandler) ExportWorkbook(w http.ResponseWriter, r *http.Request) {
	var reports []domain.ReportType
	for _, name := range strings.Split(r.URL.Query().Get("reports"), ",") {
		if strings.TrimSpace(name) == "" {
			continue
		}
		report, err := dataprocessing.ParseReportType(name)
		if err != nil {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("reports", err.Error()))
			return
		}
		reports = append(reports, report)
	}

	var buf bytes.Buffer
	if err := h.service.ExportWorkbook(r.Context(), &buf, ParamsFromContext(r.Context()), reports...); err != nil {
		h.fail(w, r, "export", err)
		return
	}
	h.download(w, r, ContentTypeXLSX, h.exportName("", "xlsx"), &buf)
}

// ExportCSV handles GET /api/reports/export/{report}.csv
func (h *ReportHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "report")

	var buf bytes.Buffer
	if err := h.service.ExportCSV(r.Context(), &buf, name, ParamsFromContext(r.Context())); err != nil {
		h.fail(w, r, name, err)
		return
	}
	h.download(w, r, ContentTypeCSV, h.exportName(name, "csv"), &buf)
}

// exportName builds e.g. sales-report-churn-20260118.csv
func (h *ReportHandler) exportName(report, ext string) string {
	name := config.ExportFilePrefix
	if report != "" {
		name += "-" + strings.ReplaceAll(strings.ToLower(report), "_", "-")
	}
	return fmt.Sprintf("%s-%s.%s", name, h.now().Format("20060102"), ext)
}

func (h *ReportHandler) download(w http.ResponseWriter, r *http.Request, contentType, filename string, body *bytes.Buffer) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprint(body.Len()))
	if _, err := body.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "export download interrupted",
			slog.String("file", filename),
			slog.String("error", err.Error()))
	}
}

func (h *ReportHandler) fail(w http.ResponseWriter, r *http.Request, report string, err error) {
	h.logger.DebugContext(r.Context(), "report failed",
		slog.String("report", report),
		slog.String("error", err.Error()))
	h.errorHandler.HandleError(w, r, err)
}
