// Copyright 2025 Copyforge Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/your-org/copyforge/internal/extract"
	"github.com/your-org/copyforge/internal/generator"
	"github.com/your-org/copyforge/internal/health"
	"github.com/your-org/copyforge/internal/history"
	"github.com/your-org/copyforge/internal/prompt"
)

// generationService is what the HTTP layer needs from the
// orchestrator; narrowed for testability.
type generationService interface {
	Generate(ctx *gin.Context, req generator.Request) (*generator.Result, error)
}

// serviceAdapter adapts *generator.Service to generationService,
// passing the request context through.
type serviceAdapter struct {
	svc *generator.Service
}

func (a serviceAdapter) Generate(c *gin.Context, req generator.Request) (*generator.Result, error) {
	return a.svc.Generate(c.Request.Context(), req)
}

// GenerateRequest is the inbound request body
type GenerateRequest struct {
	ProductID          string             `json:"product_id" binding:"required"`
	ProductTitle       string             `json:"product_title" binding:"required"`
	ProductDescription string             `json:"product_description"`
	Metafields         []prompt.Metafield `json:"metafields"`
	Vibe               string             `json:"vibe"`
	Format             string             `json:"format"`
	Keywords           string             `json:"keywords"`
	IncludeSocials     bool               `json:"include_socials"`
	Shop               string             `json:"shop"`
}

func registerRoutes(router *gin.Engine, svc *generator.Service, hist *history.Store, healthMgr *health.Manager, logger *zap.Logger) {
	var gs generationService
	if svc != nil {
		gs = serviceAdapter{svc: svc}
	}

	router.GET("/health", healthHandler(healthMgr))

	api := router.Group("/api")
	api.POST("/generate", generateHandler(gs, logger))
	api.GET("/history", historyListHandler(hist, logger))
	api.DELETE("/history/:id", historyDeleteHandler(hist, logger))
}

func generateHandler(svc generationService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req GenerateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
			return
		}

		result, err := svc.Generate(c, generator.Request{
			ProductID:          req.ProductID,
			ProductTitle:       req.ProductTitle,
			ProductDescription: req.ProductDescription,
			Metafields:         req.Metafields,
			Vibe:               req.Vibe,
			Format:             req.Format,
			Keywords:           strings.TrimSpace(req.Keywords),
			IncludeSocials:     req.IncludeSocials,
			TenantID:           req.Shop,
		})
		if err != nil {
			status, message := mapGenerationError(err)
			if status >= http.StatusInternalServerError {
				logger.Error("Generation failed",
					zap.String("shop", req.Shop),
					zap.String("product_id", req.ProductID),
					zap.Error(err))
			}
			c.JSON(status, gin.H{"error": message})
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// mapGenerationError collapses internal failures into short
// user-facing messages; diagnostic detail stays in the logs.
func mapGenerationError(err error) (int, string) {
	switch {
	case errors.Is(err, generator.ErrRateLimitExceeded):
		return http.StatusTooManyRequests, generator.ErrRateLimitExceeded.Error()
	case errors.Is(err, generator.ErrMonthlyLimitExceeded):
		return http.StatusTooManyRequests, generator.ErrMonthlyLimitExceeded.Error()
	}

	var upstreamErr *generator.UpstreamError
	if errors.As(err, &upstreamErr) {
		return http.StatusBadGateway, "generation service is temporarily unavailable"
	}

	var extractionErr *extract.ExtractionError
	if errors.As(err, &extractionErr) {
		return http.StatusInternalServerError, "failed to generate a usable description"
	}

	return http.StatusInternalServerError, "failed to generate description"
}

func historyListHandler(hist *history.Store, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if hist == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history is not available"})
			return
		}

		shop := c.Query("shop")
		if shop == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "shop query parameter is required"})
			return
		}

		limit := 0
		if raw := c.Query("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
				return
			}
			limit = parsed
		}

		entries, err := hist.List(shop, limit)
		if err != nil {
			logger.Error("Failed to list history", zap.String("shop", shop), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
			return
		}
		if entries == nil {
			entries = []history.Entry{}
		}

		c.JSON(http.StatusOK, gin.H{"entries": entries})
	}
}

func historyDeleteHandler(hist *history.Store, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if hist == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history is not available"})
			return
		}

		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid history id"})
			return
		}

		if err := hist.Delete(id); err != nil {
			if errors.Is(err, history.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "history entry not found"})
				return
			}
			logger.Error("Failed to delete history entry", zap.Int64("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete history entry"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"deleted": id})
	}
}

func healthHandler(mgr *health.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := mgr.CheckAll(c.Request.Context())

		status := http.StatusOK
		if resp.Status == health.StatusUnhealthy {
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, resp)
	}
}
