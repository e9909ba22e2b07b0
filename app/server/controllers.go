package server

import (
	"net/http"

	"github.com/Harshvardhan-source/slate/app/common"
	"github.com/Harshvardhan-source/slate/app/filters"
	"github.com/Harshvardhan-source/slate/app/session"
	"github.com/labstack/echo/v4"
)

// DashboardController serves one dashboard session over JSON.
type DashboardController struct {
	session *session.Session
}

func NewDashboardController(s *session.Session) *DashboardController {
	return &DashboardController{session: s}
}

// GetDashboard returns the full dashboard document: metadata, filter
// states, and every computed KPI and chart.
func (ctl *DashboardController) GetDashboard(c echo.Context) error {
	return c.JSON(http.StatusOK, ctl.session.Dashboard())
}

func (ctl *DashboardController) GetKPIs(c echo.Context) error {
	return c.JSON(http.StatusOK, ctl.session.KPIs())
}

func (ctl *DashboardController) GetKPI(c echo.Context) error {
	id := c.Param("id")
	kpi, ok := ctl.session.KPI(id)
	if !ok {
		return common.NotFoundError("KPI", id)
	}
	return c.JSON(http.StatusOK, kpi)
}

func (ctl *DashboardController) GetChart(c echo.Context) error {
	id := c.Param("id")
	chart, ok := ctl.session.Chart(id)
	if !ok {
		return common.NotFoundError("chart", id)
	}
	return c.JSON(http.StatusOK, chart)
}

// PutFilterSelection replaces one filter's active selection. An empty body
// selection clears the filter.
func (ctl *DashboardController) PutFilterSelection(c echo.Context) error {
	name := c.Param("name")
	var sel filters.Selection
	if err := c.Bind(&sel); err != nil {
		return common.NewUserVisibleError(http.StatusBadRequest, "invalid selection body")
	}
	if err := ctl.session.SetFilterSelection(name, sel); err != nil {
		return common.NewUserVisibleError(http.StatusNotFound, err.Error())
	}
	return c.JSON(http.StatusOK, ctl.session.Dashboard())
}

func (ctl *DashboardController) DeleteFilterSelection(c echo.Context) error {
	name := c.Param("name")
	if err := ctl.session.ClearFilterSelection(name); err != nil {
		return common.NewUserVisibleError(http.StatusNotFound, err.Error())
	}
	return c.JSON(http.StatusOK, ctl.session.Dashboard())
}

type topNRequest struct {
	TopN    int  `json:"top_n"`
	ShowAll bool `json:"show_all"`
}

// PutChartTopN adjusts one chart's top-N control.
func (ctl *DashboardController) PutChartTopN(c echo.Context) error {
	id := c.Param("id")
	var req topNRequest
	if err := c.Bind(&req); err != nil {
		return common.NewUserVisibleError(http.StatusBadRequest, "invalid top-n body")
	}
	if err := ctl.session.SetChartTopN(id, req.TopN, req.ShowAll); err != nil {
		return common.NewUserVisibleError(http.StatusNotFound, err.Error())
	}
	chart, _ := ctl.session.Chart(id)
	return c.JSON(http.StatusOK, chart)
}

// PostReload refetches the dataset and recomputes everything.
func (ctl *DashboardController) PostReload(c echo.Context) error {
	if err := ctl.session.Reload(c.Request().Context()); err != nil {
		return common.WrapErrorForResponse(
			common.NewUserVisibleError(http.StatusBadGateway, err.Error()), "failed to reload dataset")
	}
	return c.JSON(http.StatusOK, ctl.session.Dashboard())
}
