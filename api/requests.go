package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/reqstly/reqstly/metrics"
	"github.com/reqstly/reqstly/model"
	"github.com/reqstly/reqstly/ticket"
)

func (h *Handler) HandleCreateRequest(c echo.Context) error {
	var body struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Category    string `json:"category"`
		Priority    string `json:"priority"`
	}
	if err := c.Bind(&body); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}

	category, err := model.ParseRequestCategory(body.Category)
	if err != nil {
		return respondError(c, http.StatusBadRequest, err.Error())
	}
	priority, err := model.ParseRequestPriority(body.Priority)
	if err != nil {
		return respondError(c, http.StatusBadRequest, err.Error())
	}

	sc := current(c)
	req, err := h.tickets.Create(c.Request().Context(), sc.User.ID, ticket.CreateInput{
		Title:       body.Title,
		Description: body.Description,
		Category:    category,
		Priority:    priority,
	})
	if err != nil {
		return fail(c, err)
	}
	metrics.RequestMutation(model.ActionCreated.String())

	return c.JSON(http.StatusCreated, req)
}

func (h *Handler) HandleListRequests(c echo.Context) error {
	var filter ticket.ListFilter
	if s := c.QueryParam("status"); s != "" {
		status, err := model.ParseRequestStatus(s)
		if err != nil {
			return respondError(c, http.StatusBadRequest, err.Error())
		}
		filter.Status = &status
	}
	if s := c.QueryParam("category"); s != "" {
		category, err := model.ParseRequestCategory(s)
		if err != nil {
			return respondError(c, http.StatusBadRequest, err.Error())
		}
		filter.Category = &category
	}

	sc := current(c)
	requests, err := h.tickets.List(c.Request().Context(), sc.User.ID, filter)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, requests)
}

func (h *Handler) HandleGetRequest(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request id")
	}

	sc := current(c)
	req, err := h.tickets.Get(c.Request().Context(), sc.User.ID, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, req)
}

func (h *Handler) HandleUpdateRequest(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request id")
	}

	var body struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Priority    *string `json:"priority"`
	}
	if err := c.Bind(&body); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}

	in := ticket.UpdateInput{Title: body.Title, Description: body.Description}
	if body.Priority != nil {
		priority, err := model.ParseRequestPriority(*body.Priority)
		if err != nil {
			return respondError(c, http.StatusBadRequest, err.Error())
		}
		in.Priority = &priority
	}

	sc := current(c)
	req, err := h.tickets.Update(c.Request().Context(), sc.User.ID, id, in)
	if err != nil {
		return fail(c, err)
	}
	metrics.RequestMutation(model.ActionUpdated.String())

	return c.JSON(http.StatusOK, req)
}

func (h *Handler) HandleTransitionStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request id")
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}
	status, err := model.ParseRequestStatus(body.Status)
	if err != nil {
		return respondError(c, http.StatusBadRequest, err.Error())
	}

	sc := current(c)
	req, err := h.tickets.TransitionStatus(c.Request().Context(), sc.User.ID, id, status)
	if err != nil {
		return fail(c, err)
	}
	metrics.RequestMutation(model.ActionStatusChanged.String())

	return c.JSON(http.StatusOK, req)
}

func (h *Handler) HandleDeleteRequest(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request id")
	}

	sc := current(c)
	if err := h.tickets.Delete(c.Request().Context(), sc.User.ID, id); err != nil {
		return fail(c, err)
	}
	metrics.RequestMutation(model.ActionDeleted.String())

	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) HandleRequestAudit(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request id")
	}

	sc := current(c)
	logs, err := h.tickets.Audit(c.Request().Context(), sc.User.ID, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, logs)
}

func (h *Handler) HandleActorAudit(c echo.Context) error {
	sc := current(c)
	logs, err := h.tickets.ActorAudit(c.Request().Context(), sc.User.ID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, logs)
}
