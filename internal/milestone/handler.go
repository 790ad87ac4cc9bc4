package milestone

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/lancepay/internal/fault"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the milestone routes on an authenticated group.
func (h *Handler) Register(g *echo.Group) {
	g.POST("/projects/:id/milestones", h.Create)
	g.GET("/projects/:id/milestones", h.List)
	g.POST("/milestones/:id/submit", h.Submit)
	g.POST("/milestones/:id/approve", h.Approve)
	g.POST("/milestones/:id/reject", h.Reject)
	g.DELETE("/milestones/:id", h.Destroy)
}

func (h *Handler) Create(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	m, err := h.svc.Create(c.Request().Context(), c.Param("id"), userID, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) List(c echo.Context) error {
	ms, err := h.svc.List(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, ms)
}

type SubmitRequest struct {
	Deliverables []string `json:"deliverables"`
}

func (h *Handler) Submit(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req SubmitRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	m, err := h.svc.Submit(c.Request().Context(), c.Param("id"), userID, req.Deliverables)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) Approve(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	m, receipt, err := h.svc.Approve(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"milestone": m, "receipt": receipt})
}

func (h *Handler) Reject(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	m, err := h.svc.Reject(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) Destroy(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	if err := h.svc.Destroy(c.Request().Context(), c.Param("id"), userID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "milestone deleted"})
}

func respondError(c echo.Context, err error) error {
	return c.JSON(fault.HTTPStatus(err), echo.Map{"error": err.Error()})
}
