package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-resty/resty/v2"
	"github.com/gorilla/schema"
	"github.com/raushankrgupta/fitting-room/config"
	"github.com/raushankrgupta/fitting-room/store"
	"github.com/raushankrgupta/fitting-room/tryon"
	"github.com/raushankrgupta/fitting-room/utils"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type Mailer interface {
	SendEmail(ctx context.Context, toName, toEmail, subject, textContent, htmlContent string) error
}

// Server holds the collaborators of every HTTP handler.
type Server struct {
	cfg       *config.Config
	users     store.UserStore
	tryOns    *tryon.Service
	fulfiller *tryon.Fulfiller
	previewer tryon.GarmentResolver
	mailer    Mailer

	oauth       *oauth2.Config
	userInfo    *resty.Client
	userInfoURL string
	decoder     *schema.Decoder
}

func NewServer(cfg *config.Config, users store.UserStore, tryOns *tryon.Service, fulfiller *tryon.Fulfiller, previewer tryon.GarmentResolver, mailer Mailer) *Server {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)

	return &Server{
		cfg:       cfg,
		users:     users,
		tryOns:    tryOns,
		fulfiller: fulfiller,
		previewer: previewer,
		mailer:    mailer,
		oauth: &oauth2.Config{
			RedirectURL:  cfg.GoogleRedirectURL,
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"},
			Endpoint:     google.Endpoint,
		},
		userInfo:    resty.New().SetTimeout(15 * time.Second),
		userInfoURL: googleUserInfoURL,
		decoder:     decoder,
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(utils.LatencyMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS", "PUT", "DELETE"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}))
	if s.cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.cfg.RequestTimeout))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", s.SignupHandler)
		r.Post("/verify-otp", s.VerifyOTPHandler)
		r.Post("/login", s.LoginHandler)
		r.Post("/forgot-password", s.ForgotPasswordHandler)
		r.Post("/reset-password", s.ResetPasswordHandler)
		r.Get("/google/login", s.GoogleLoginHandler)
		r.Get("/google/callback", s.GoogleCallbackHandler)
	})

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.JWTSecret))

		r.Get("/base-photos", s.ListBasePhotosHandler)
		r.Post("/base-photos", s.UploadBasePhotosHandler)
		r.Post("/try-on", s.SubmitTryOnHandler)
		r.Get("/gallery", s.GalleryHandler)
		r.Delete("/gallery/{id}", s.DeleteGalleryItemHandler)
		r.Get("/garments/preview", s.GarmentPreviewHandler)
	})

	r.Route("/operator", func(r chi.Router) {
		r.Use(OperatorMiddleware(s.cfg.OperatorAPIKey))

		r.Post("/tryons/{id}/result", s.AttachResultHandler)
		r.Post("/tryons/{id}/render", s.RenderResultHandler)
	})

	return r
}
