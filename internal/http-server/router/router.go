package router

import (
	"net/http"
	"strings"

	"upload-converter/internal/http-server/handler/upload"
	"upload-converter/internal/http-server/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/wb-go/wbf/zlog"
)

type Handler struct {
	UploadHandler *upload.UploadHandler
	UploadsDir    string
	Logger        *zlog.Zerolog
}

func SetupRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RecoveryMiddleware(h.Logger))

	requestLog := middleware.LoggingMiddleware(h.Logger)
	r.Use(func(next http.Handler) http.Handler {
		logged := requestLog(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/uploads/") {
				next.ServeHTTP(w, r)
				return
			}
			logged.ServeHTTP(w, r)
		})
	})

	r.Handle("/uploads/*", http.StripPrefix("/uploads/", noDirListing(http.FileServer(http.Dir(h.UploadsDir)))))

	r.Route("/api", func(r chi.Router) {
		r.Route("/uploads", func(r chi.Router) {
			r.Post("/", h.UploadHandler.Upload)
			r.Get("/", h.UploadHandler.ListAttachments)
			r.Get("/{id}", h.UploadHandler.GetAttachment)
			r.Get("/{id}/file", h.UploadHandler.GetFile)
			r.Delete("/{id}", h.UploadHandler.DeleteAttachment)
		})

		r.Get("/converter", h.UploadHandler.ConverterStatus)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok"}`))
		})
	})

	return r
}

func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
