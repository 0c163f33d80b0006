package server

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// checkTimeout bounds a single readiness check.
const checkTimeout = 5 * time.Second

// Checker is a named readiness check. Check returns nil when the dependency
// is usable.
type Checker struct {
	Name  string
	Check func(ctx context.Context) error
}

type healthResult struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

type health struct {
	checkers []Checker
}

func newHealth(checkers ...Checker) *health {
	c := make([]Checker, len(checkers))
	copy(c, checkers)
	return &health{checkers: c}
}

// healthz always succeeds: a process that serves HTTP is alive.
func (h *health) healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResult{Status: "ok"})
}

// readyz runs every checker in order and reports 503 if any fails.
func (h *health) readyz(c echo.Context) error {
	checks := make(map[string]string, len(h.checkers))
	allOK := true

	for _, chk := range h.checkers {
		ctx, cancel := context.WithTimeout(c.Request().Context(), checkTimeout)
		err := chk.Check(ctx)
		cancel()

		if err != nil {
			checks[chk.Name] = "fail: " + err.Error()
			allOK = false
		} else {
			checks[chk.Name] = "ok"
		}
	}

	res := healthResult{Status: "ok", Checks: checks}
	status := http.StatusOK
	if !allOK {
		res.Status = "fail"
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, res)
}
