// Copyright (C) 2025 Imvino (lyneai@imvino.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"log"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"golang.org/x/time/rate"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/imvino/lyneAiBeta/services/llm"
	"github.com/imvino/lyneAiBeta/services/scene/engine"
	"github.com/imvino/lyneAiBeta/services/scene/handlers"
	"github.com/imvino/lyneAiBeta/services/scene/knowledge"
	"github.com/imvino/lyneAiBeta/services/scene/observability"
	"github.com/imvino/lyneAiBeta/services/scene/routes"
	"github.com/imvino/lyneAiBeta/services/scene/templates"

	// --- OpenTelemetry imports ---
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
)

func initTracer() (func(context.Context), error) {
	ctx := context.Background()

	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint == "" {
		otelEndpoint = "lyneai-otel-collector:4317"
	}
	conn, err := grpc.NewClient(otelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("scene-service")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.
		TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

// newWeaviateClient parses WEAVIATE_SERVICE_URL and returns nil when the
// service should run without regulation retrieval (lightweight mode).
func newWeaviateClient() *weaviate.Client {
	weaviateURL := os.Getenv("WEAVIATE_SERVICE_URL")
	// Sanitize: Trim quotes and whitespace just in case Podman passes them literally
	weaviateURL = strings.Trim(weaviateURL, "\"' ")

	if weaviateURL == "" || !strings.Contains(weaviateURL, "http") {
		slog.Info("WEAVIATE_SERVICE_URL not set or empty. Running in lightweight mode (no regulation retrieval).")
		return nil
	}

	parsedURL, err := url.Parse(weaviateURL)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		slog.Warn("WEAVIATE_SERVICE_URL is invalid. Running in lightweight mode.",
			"url", weaviateURL, "error", err)
		return nil
	}

	client, err := weaviate.NewClient(weaviate.Config{
		Host:   parsedURL.Host,
		Scheme: parsedURL.Scheme,
	})
	if err != nil {
		slog.Error("Failed to create Weaviate client", "error", err)
		return nil
	}
	if err := knowledge.EnsureSchema(context.Background(), client); err != nil {
		slog.Warn("Could not ensure the regulation schema", "error", err)
	}
	return client
}

// newProposer configures the LLM proposal source, or nil when the service
// should fall back to default templates for every turn.
func newProposer(catalog *engine.LayerCatalog) engine.ProposalSource {
	llmBackendType := os.Getenv("LLM_BACKEND_TYPE")

	var client llm.LLMClient
	var err error
	switch llmBackendType {
	case "local":
		client, err = llm.NewLocalLlamaCppClient()
		slog.Info("Using Local Llama.cpp LLM backend")
	case "openai":
		client, err = llm.NewOpenAIClient()
		slog.Info("Using OpenAI LLM backend")
	case "ollama":
		client, err = llm.NewOllamaClient()
		slog.Info("Using Ollama LLM backend")
	case "", "none":
		slog.Warn("LLM_BACKEND_TYPE not set, running with default templates only")
		return nil
	default:
		slog.Warn("LLM_BACKEND_TYPE is invalid, running with default templates only",
			"backend", llmBackendType)
		return nil
	}
	if err != nil {
		log.Fatalf("Failed to initialize LLM client: %v", err)
	}

	// One proposal per second sustained, short bursts allowed.
	limiter := rate.NewLimiter(rate.Limit(1), 3)
	return engine.NewLLMProposer(client, catalog, limiter)
}

func main() {
	port := os.Getenv("SCENE_PORT")
	if port == "" {
		port = "12310"
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// --- Init the tracer ---
	cleanup, err := initTracer()
	if err != nil {
		log.Fatalf("failed to setup the OTLP tracer: %v", err)
	}
	defer cleanup(context.Background())

	weaviateClient := newWeaviateClient()
	var searcher engine.KnowledgeSearcher
	if weaviateClient != nil {
		searcher = knowledge.NewWeaviateSearcher(weaviateClient)
	}

	catalog := engine.NewLayerCatalog()
	proposer := newProposer(catalog)
	svc := engine.NewSceneChatService(catalog, proposer, searcher)

	var override handlers.TemplateOverride
	if dir := os.Getenv("SCENE_TEMPLATE_DIR"); dir != "" {
		provider, err := templates.NewDirProvider(dir)
		if err != nil {
			slog.Warn("Could not load the template directory, using built-ins",
				"dir", dir, "error", err)
		} else {
			defer provider.Close()
			override = provider
		}
	}

	metrics := observability.NewSceneMetrics()
	apiToken := os.Getenv("SCENE_API_TOKEN")

	router := gin.Default()
	router.Use(otelgin.Middleware("scene-service"))

	routes.SetupRoutes(router, svc, catalog, override, metrics, apiToken)
	log.Println("started up the container")

	log.Println("Starting the scene server on port ", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
