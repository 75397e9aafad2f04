package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/isdelr/inkwell-be/internal/api/handlers"
	"github.com/isdelr/inkwell-be/internal/api/response"
	"github.com/isdelr/inkwell-be/internal/monitoring"
	"github.com/isdelr/inkwell-be/internal/services"
	"github.com/isdelr/inkwell-be/internal/storage"
	"github.com/isdelr/inkwell-be/internal/websocket"
)

// Dependencies bundles everything the router wires into handlers.
type Dependencies struct {
	Verifier       TokenVerifier
	Users          services.UserServiceProvider
	Posts          services.PostServiceProvider
	Comments       services.CommentServiceProvider
	Images         services.ImageServiceProvider
	Events         services.EventServiceProvider
	Uploads        *storage.Local
	Hub            *websocket.Hub
	AllowedOrigins []string
	SecureCookies  bool
}

// NewRouter creates and configures a new Chi router.
func NewRouter(deps Dependencies) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(log.Logger))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Fail(w, http.StatusNotFound, "Route not found.")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.Fail(w, http.StatusMethodNotAllowed, "Method not allowed.")
	})

	// Initialize handlers
	userHandler := handlers.NewUserHandler(deps.Users, deps.SecureCookies)
	postHandler := handlers.NewPostHandler(deps.Posts)
	commentHandler := handlers.NewCommentHandler(deps.Comments)
	imageHandler := handlers.NewImageHandler(deps.Images, deps.Uploads)
	eventHandler := handlers.NewEventHandler(deps.Events)
	wsHandler := handlers.NewWebSocketHandler(deps.Hub, deps.AllowedOrigins)

	authenticated := Authenticate(deps.Verifier)
	optional := OptionalAuthenticate(deps.Verifier)

	// Stored images
	r.Handle(storage.URLPrefix+"*", http.StripPrefix(storage.URLPrefix, http.FileServer(http.Dir(deps.Uploads.Dir()))))

	// API versioning
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			status, err := monitoring.DiskUsage(r.Context(), deps.Uploads.Dir())
			if err != nil {
				log.Warn().Err(err).Msg("Health check could not read upload volume")
				response.JSON(w, http.StatusOK, "OK", nil)
				return
			}
			response.JSON(w, http.StatusOK, "OK", status)
		})

		// Live activity feed
		r.With(optional).Get("/ws/feed", wsHandler.Serve)

		r.Route("/users", func(r chi.Router) {
			r.Post("/register", userHandler.Register)
			r.Post("/login", userHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(authenticated)
				r.Post("/logout", userHandler.Logout)
				r.Get("/profile", userHandler.Profile)
				r.Patch("/profile", userHandler.UpdateProfile)
				r.Get("/", userHandler.GetAll)
				r.Get("/{id}", userHandler.Get)
				r.Delete("/{id}", userHandler.Delete)
			})
		})

		r.Route("/posts", func(r chi.Router) {
			r.With(optional).Get("/", postHandler.GetAll)
			r.With(authenticated).Post("/", postHandler.Create)

			r.Route("/{postId}", func(r chi.Router) {
				r.With(optional).Get("/", postHandler.Get)
				r.With(authenticated).Put("/", postHandler.Update)
				r.With(authenticated).Patch("/", postHandler.Update)
				r.With(authenticated).Delete("/", postHandler.Delete)

				r.Route("/comments", func(r chi.Router) {
					r.With(optional).Get("/", commentHandler.GetAllForPost)
					r.With(authenticated).Post("/", commentHandler.Create)
				})

				r.Route("/images", func(r chi.Router) {
					r.With(optional).Get("/", imageHandler.GetAllForPost)
					r.With(authenticated).Post("/", imageHandler.Upload)
					r.With(optional).Get("/{imageId}", imageHandler.Get)
					r.With(authenticated).Put("/{imageId}", imageHandler.Replace)
					r.With(authenticated).Delete("/{imageId}", imageHandler.Delete)
				})
			})
		})

		r.Route("/comments/{id}", func(r chi.Router) {
			r.With(optional).Get("/", commentHandler.Get)
			r.With(authenticated).Put("/", commentHandler.Update)
			r.With(authenticated).Patch("/", commentHandler.Update)
			r.With(authenticated).Delete("/", commentHandler.Delete)
		})

		r.With(authenticated).Get("/events", eventHandler.GetRecent)
	})

	return r
}
