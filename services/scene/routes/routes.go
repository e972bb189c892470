// Copyright (C) 2025 Imvino (lyneai@imvino.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/imvino/lyneAiBeta/services/scene/engine"
	"github.com/imvino/lyneAiBeta/services/scene/handlers"
	"github.com/imvino/lyneAiBeta/services/scene/middleware"
	"github.com/imvino/lyneAiBeta/services/scene/observability"
)

// SetupRoutes wires every scene endpoint onto the router. apiToken empty
// means the v1 group runs unauthenticated, which is the local dev default.
func SetupRoutes(router *gin.Engine, svc *engine.SceneChatService, catalog *engine.LayerCatalog,
	override handlers.TemplateOverride, metrics *observability.SceneMetrics, apiToken string) {

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API version 1 group
	v1 := router.Group("/v1")
	v1.Use(middleware.BearerAuth(apiToken))
	{
		scene := v1.Group("/scene")
		{
			scene.POST("/chat", handlers.HandleSceneChat(svc, metrics))
			scene.POST("/normalize", handlers.HandleNormalize())
			scene.GET("/templates", handlers.HandleListTemplates(catalog, override))
			scene.GET("/templates/:type", handlers.HandleGetTemplate(catalog, override))
			scene.GET("/ws", handlers.HandleSceneWebSocket(svc, metrics))
		}
	}
}
