package api

import (
	"github.com/gin-gonic/gin"

	"clinic-backoffice/internal/models"
	"clinic-backoffice/internal/normalize"
	"clinic-backoffice/internal/service"
	backofficeerrors "clinic-backoffice/pkg/errors"
)

// GET /checks?from=2024-11-11&to=2024-11-12
func (s *Server) checksHandler(c *gin.Context) {
	from, to, err := service.ParseDateRange(c.Query("from"), c.Query("to"))
	if err != nil {
		s.fail(c, err)
		return
	}

	result, err := s.service.RunChecks(c.Request.Context(), from, to)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, result)
}

// GET /commissions?month=Septiembre&doctor=15
func (s *Server) commissionsHandler(c *gin.Context) {
	result, err := s.service.CalculateCommissions(c.Request.Context(), c.Query("month"), c.Query("doctor"))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, result)
}

// GET /reminders
func (s *Server) remindersHandler(c *gin.Context) {
	reminders, err := s.service.Reminders(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	if reminders == nil {
		reminders = []models.Reminder{}
	}
	ok(c, reminders)
}

// GET /revenue?from=2024-09-01&to=2024-09-30
func (s *Server) revenueHandler(c *gin.Context) {
	if s.revenue == nil {
		s.fail(c, backofficeerrors.ConfigurationError(backofficeerrors.CodeMissingConfig, "store.dsn", nil, nil).
			WithSuggestion("revenue needs the clinic database"))
		return
	}

	from, to, err := service.ParseDateRange(c.Query("from"), c.Query("to"))
	if err != nil {
		s.fail(c, err)
		return
	}

	total, err := s.service.Revenue(c.Request.Context(), s.revenue, from, to)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{
		"from":      normalize.DayKey(from),
		"to":        normalize.DayKey(to),
		"total":     total.StringFixed(2),
		"formatted": normalize.FormatNumber(total),
	})
}
