package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/logidash/internal/service/activity"
	"github.com/mamadbah2/logidash/internal/service/dashboard"
	"github.com/mamadbah2/logidash/internal/service/view"
)

// DashboardHandler serves the overview, the activity feed and section navigation.
type DashboardHandler struct {
	svc    *dashboard.Service
	feed   *activity.Feed
	shell  *view.Shell
	logger *zap.Logger
}

// NewDashboardHandler constructs the HTTP handler adapter.
func NewDashboardHandler(svc *dashboard.Service, feed *activity.Feed, shell *view.Shell, logger *zap.Logger) *DashboardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if shell == nil {
		shell = view.NewShell()
	}
	return &DashboardHandler{svc: svc, feed: feed, shell: shell, logger: logger}
}

func (h *DashboardHandler) Dashboard(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.View())
}

// Refresh reloads shipments and customers together. Partial failures are
// reported but the collection that loaded is kept.
func (h *DashboardHandler) Refresh(c *gin.Context) {
	if err := h.svc.Refresh(c.Request.Context()); err != nil {
		respondError(c, h.logger, err, "Failed to refresh dashboard")
		return
	}
	c.JSON(http.StatusOK, h.svc.View())
}

func (h *DashboardHandler) Activities(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"activities": h.feed.Snapshot(), "loading": h.feed.Loading()})
}

func (h *DashboardHandler) Sections(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sections": view.Sections(), "active": h.shell.Active()})
}

// Navigate switches the active section. Unknown sections land on the dashboard.
func (h *DashboardHandler) Navigate(c *gin.Context) {
	section := h.shell.Navigate(c.Param("section"))
	body := gin.H{
		"section": section.Info(),
		"header":  h.shell.Header(),
	}

	switch section {
	case view.SectionDashboard:
		body["dashboard"] = h.svc.View()
	case view.SectionShipments:
		body["shipments"] = h.svc.Shipments()
	case view.SectionCustomers:
		body["customers"] = h.svc.Customers()
	}
	c.JSON(http.StatusOK, body)
}
