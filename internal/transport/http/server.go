package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"docqa/internal/ai"
	appsvc "docqa/internal/app"
	"docqa/internal/bootstrap"
	"docqa/internal/cache"
	"docqa/internal/extract"
	"docqa/internal/platform/rabbitmq"
	"docqa/internal/rag"
	"docqa/internal/repository"
	"docqa/internal/transport/http/handler"
	"docqa/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	cfg := app.Config
	gin.SetMode(cfg.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	userRepo := repository.NewUserRepository(app.MySQL)
	docRepo := repository.NewDocumentRepository(app.MySQL)
	chunkRepo := repository.NewChunkRepository(app.MySQL)
	exchangeRepo := repository.NewExchangeRepository(app.MySQL)
	historyCache := cache.NewHistoryCache(app.Redis, time.Duration(cfg.Redis.HistoryTTLSeconds)*time.Second)

	embedder := ai.NewEmbedder(app.LLM, ai.EmbeddingConfig{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.EmbeddingModel,
	})
	answerGen := ai.NewGenerator(app.LLM, ai.ChatConfig{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
	})
	// Query rewriting uses the fast model: it runs on every follow-up
	// question and its output is only a search query.
	rewriteGen := ai.NewGenerator(app.LLM, ai.ChatConfig{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.FastModel,
	})

	retriever := rag.NewRetriever(embedder, chunkRepo, rag.RetrieverConfig{
		SearchLimit:  cfg.RAG.SearchLimit,
		TopK:         cfg.RAG.TopK,
		FallbackTopK: cfg.RAG.FallbackTopK,
		RRFK:         cfg.RAG.RRFK,
	})
	contextualizer := rag.NewContextualizer(rewriteGen)

	var extractor extract.Extractor
	if cfg.Extract.Mode == "remote" {
		extractor = extract.NewRemoteExtractor(cfg.Extract.RemoteURL, time.Duration(cfg.Extract.TimeoutSeconds)*time.Second)
	} else {
		extractor = extract.NewPDFExtractor()
	}
	publisher := rabbitmq.NewIngestPublisher(app.MQConn, cfg.RabbitMQ.IngestQueue)

	authService := appsvc.NewAuthService(
		userRepo,
		cfg.Auth.JWTSecret,
		time.Duration(cfg.Auth.JWTExpireMinute)*time.Minute,
	)
	docService := appsvc.NewDocumentService(docRepo, chunkRepo, exchangeRepo, historyCache, extractor, publisher)
	qaService := appsvc.NewQAService(docRepo, exchangeRepo, historyCache, contextualizer, retriever, answerGen, cfg.RAG.HistoryLimit)

	authHandler := handler.NewAuthHandler(authService)
	docHandler := handler.NewDocumentHandler(docService)
	qaHandler := handler.NewQAHandler(qaService)

	v1 := router.Group("/api/v1")
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", middleware.AuthJWT(cfg.Auth.JWTSecret), authHandler.Me)

	docGroup := v1.Group("/documents")
	docGroup.Use(middleware.AuthJWT(cfg.Auth.JWTSecret))
	docGroup.POST("", docHandler.Upload)
	docGroup.GET("", docHandler.List)
	docGroup.GET("/:id", docHandler.Get)
	docGroup.DELETE("/:id", docHandler.Delete)
	docGroup.POST("/:id/ask", qaHandler.Ask)
	docGroup.GET("/:id/history", qaHandler.GetHistory)

	return router
}
