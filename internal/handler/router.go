package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cassight/aspeak/internal/handler/speech"
	"github.com/cassight/aspeak/internal/handler/ssml"
	middlewarePkg "github.com/cassight/aspeak/internal/middleware"
	speechService "github.com/cassight/aspeak/internal/service/speech"
)

// NewRouter wires HTTP routes to the speech service.
func NewRouter(speechSvc *speechService.Service) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Route("/api", func(api chi.Router) {
		// SSML 预览不需要连接合成服务
		ssml.New(speechSvc).RegisterRoutes(api)

		speech.New(speechSvc).RegisterRoutes(api)
	})

	return r
}
