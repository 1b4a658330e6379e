package http

import (
	"errors"
	"net/http"

	"xpenso/internal/budget"
	"xpenso/internal/core"
	"xpenso/internal/income"
	"xpenso/internal/log"
	"xpenso/internal/store"
)

// fail writes err as a JSON error. Server-side failures are logged and
// their details withheld from the client.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldPath, r.URL.Path, log.FieldError, err)
		msg = http.StatusText(status)
	}
	NewJSONResponse().
		Status(status).
		Body(ErrorBody{Error: msg, RequestID: requestIDFrom(r)}).
		Write(w)
}

// user resolves the caller or writes a 400 and returns false.
func (s *Server) user(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := userIDFrom(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return "", false
	}
	return id, true
}

// parseBody reads the request body or writes a 422 and returns nil.
func (s *Server) parseBody(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.fail(w, r, err)
		return nil
	}
	return p
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.user(w, r)
	if !ok {
		return
	}
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	txs, err := s.svc.Transactions.List(r.Context(), userID, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	NewJSONResponse().Body(txs).Write(w)
}

func (s *Server) handleRecordTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.user(w, r)
	if !ok {
		return
	}
	p := s.parseBody(w, r)
	if p == nil {
		return
	}
	tx, err := parseTransaction(p)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	saved, err := s.svc.Transactions.Record(r.Context(), userID, tx)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(saved).Write(w)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.user(w, r)
	if !ok {
		return
	}
	win, err := parseWindow(r.URL.Query(), s.now())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	report, err := s.svc.Dashboard.Report(r.Context(), userID, win)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse().Body(report).Write(w)
}

func (s *Server) handleYearlyTrend(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.user(w, r)
	if !ok {
		return
	}
	trend, err := s.svc.Dashboard.YearlyTrend(r.Context(), userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse().Body(trend).Write(w)
}

func (s *Server) handleHourlyTrend(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.user(w, r)
	if !ok {
		return
	}
	day, err := parseDay(r.URL.Query(), s.now())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	insight, err := s.svc.Dashboard.Day(r.Context(), userID, day)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse().Body(insight).Write(w)
}

func (s *Server) handleIncomeStreams(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.user(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	filter, err := income.ParseFilter(q.Get("filter"))
	if err != nil {
		s.fail(w, r, invalid("%v", err))
		return
	}
	asc, err := parseSort(q.Get("sort"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	view, err := s.svc.Dashboard.IncomeStreams(r.Context(), userID, filter, asc)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse().Body(view).Write(w)
}

func (s *Server) handleBudgetCategories(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.user(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	filter, err := budget.ParseFilter(q.Get("filter"))
	if err != nil {
		s.fail(w, r, invalid("%v", err))
		return
	}
	asc, err := parseSort(q.Get("sort"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	view, err := s.svc.Dashboard.BudgetCategories(r.Context(), userID, filter, asc)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse().Body(view).Write(w)
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.user(w, r)
	if !ok {
		return
	}
	p := s.parseBody(w, r)
	if p == nil {
		return
	}
	c, err := parseCategory(p)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	saved, err := s.svc.Dashboard.AddCategory(r.Context(), userID, c)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(saved).Write(w)
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.user(w, r)
	if !ok {
		return
	}
	list, err := s.svc.Alerts.List(r.Context(), userID, parseBool(r.URL.Query().Get("unread")))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse().Body(list).Write(w)
}

type failedAlert struct {
	Title string `json:"title"`
	Error string `json:"error"`
}

type evaluateResponse struct {
	Issued []core.Alert  `json:"issued"`
	Failed []failedAlert `json:"failed,omitempty"`
}

func (s *Server) handleEvaluateAlerts(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.user(w, r)
	if !ok {
		return
	}
	resp := evaluateResponse{Issued: []core.Alert{}}
	for _, res := range s.svc.Alerts.Evaluate(r.Context(), userID) {
		if res.Err != nil {
			resp.Failed = append(resp.Failed, failedAlert{Title: res.Alert.Title, Error: res.Err.Error()})
			continue
		}
		resp.Issued = append(resp.Issued, res.Alert)
	}
	status := http.StatusOK
	if len(resp.Failed) > 0 {
		status = http.StatusMultiStatus
	}
	NewJSONResponse().Status(status).Body(resp).Write(w)
}

func (s *Server) handleMarkAlertRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.user(w, r)
	if !ok {
		return
	}
	if err := s.svc.Alerts.MarkRead(r.Context(), userID, r.PathValue("id")); err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.user(w, r)
	if !ok {
		return
	}
	view, err := s.svc.Settings.Get(r.Context(), userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse().Body(view).Write(w)
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.user(w, r)
	if !ok {
		return
	}
	p := s.parseBody(w, r)
	if p == nil {
		return
	}
	st, err := parseSettings(p)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	view, err := s.svc.Settings.Save(r.Context(), userID, st)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse().Body(view).Write(w)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.user(w, r)
	if !ok {
		return
	}
	win, err := parseWindow(r.URL.Query(), s.now())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	snap, err := s.svc.Dashboard.Snapshot(r.Context(), userID, win)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse().Body(snap).Write(w)
}

// handleGenerateInsight always answers 200: a failed model call still
// yields the fallback insight with success=false.
func (s *Server) handleGenerateInsight(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.user(w, r)
	if !ok {
		return
	}
	NewJSONResponse().Body(s.svc.Insights.Generate(r.Context(), userID)).Write(w)
}

func (s *Server) handleLatestInsight(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.user(w, r)
	if !ok {
		return
	}
	in, err := s.svc.Insights.Latest(r.Context(), userID)
	if errors.Is(err, store.ErrNotFound) {
		NotFoundError("no insight yet").Write(w)
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse().Body(in).Write(w)
}
