// Package server exposes claims and verification over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/ppiankov/claimlens/internal/model"
	"github.com/ppiankov/claimlens/internal/pipeline"
	"github.com/ppiankov/claimlens/internal/storage"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// ClaimReader lists and loads stored claims
type ClaimReader interface {
	Get(ctx context.Context, id int64) (*model.Claim, error)
	List(ctx context.Context, limit, offset int) ([]*model.Claim, error)
}

// Verifier runs a verification for one claim
type Verifier interface {
	Verify(ctx context.Context, claimID int64) (*model.VerificationResult, error)
}

// Deps are the collaborators behind the HTTP handlers
type Deps struct {
	Claims   ClaimReader
	Verifier Verifier
	Version  string
}

type handler struct {
	deps   Deps
	logger zerolog.Logger
}

// New builds the echo server with routes and middleware
func New(cfg model.ServerConfig, deps Deps, logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	e.Use(Recovery(logger))
	e.Use(RequestID())
	e.Use(Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Content-Type", RequestIDHeader},
	}))

	h := &handler{deps: deps, logger: logger}
	e.GET("/", h.status)
	e.GET("/claims", h.listClaims)
	e.GET("/claims/:id", h.getClaim)
	e.POST("/verify/:id", h.verify)

	return e
}

func (h *handler) status(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "System Online",
		"message": "Agents are ready.",
		"version": h.deps.Version,
	})
}

func (h *handler) listClaims(c echo.Context) error {
	limit, err := queryInt(c, "limit", defaultListLimit)
	if err != nil {
		return err
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		return err
	}
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	claims, err := h.deps.Claims.List(c.Request().Context(), limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if claims == nil {
		claims = []*model.Claim{}
	}
	return c.JSON(http.StatusOK, claims)
}

func (h *handler) getClaim(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	claim, err := h.deps.Claims.Get(c.Request().Context(), id)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && claim == nil) {
		return echo.NewHTTPError(http.StatusNotFound, "Claim not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, claim)
}

func (h *handler) verify(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	result, err := h.deps.Verifier.Verify(c.Request().Context(), id)
	if errors.Is(err, pipeline.ErrClaimNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Claim not found")
	}
	if err != nil {
		h.logger.Error().Err(err).Int64("claim_id", id).Msg("Verification failed")
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, result)
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "claim id must be an integer")
	}
	return id, nil
}

func queryInt(c echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" must be an integer")
	}
	return v, nil
}
