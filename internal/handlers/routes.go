package handlers

import "net/http"

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	auth := AuthHandler{Profiles: deps.Profiles, Sessions: deps.Sessions, Limiter: deps.AuthLimiter}
	profile := ProfileHandler{Profiles: deps.Profiles, Sessions: deps.Sessions}
	connect := ConnectHandler{
		Profiles:    deps.Profiles,
		Sessions:    deps.Sessions,
		Payments:    deps.Payments,
		SiteBaseURL: deps.SiteBaseURL,
	}
	webhook := WebhookHandler{Verifier: deps.EventVerifier, Processor: deps.Events}
	uploads := UploadHandler{Sessions: deps.Sessions, Signer: deps.Uploads, Limiter: deps.UploadLimiter}
	tracks := TrackHandler{Tracks: deps.Tracks, Sessions: deps.Sessions, Verifier: deps.Verifier}
	payouts := PayoutHandler{
		Payouts:  deps.Payouts,
		Tracks:   deps.Tracks,
		Sessions: deps.Sessions,
		FeeBps:   deps.PlatformFeeBps,
	}

	mux.HandleFunc("/healthz", health.Handle)
	mux.HandleFunc("/api/v1/auth/login", auth.Login)
	mux.HandleFunc("/api/v1/auth/signup", auth.SignUp)
	mux.HandleFunc("/api/v1/auth/refresh", auth.Refresh)
	mux.HandleFunc("/api/v1/profile", profile.Handle)
	mux.HandleFunc("/api/v1/connect/account", connect.CreateAccount)
	mux.HandleFunc("/api/v1/connect/status", connect.Status)
	mux.HandleFunc("/api/v1/stripe/webhook", webhook.Handle)
	mux.HandleFunc("/api/v1/uploads/token", uploads.Token)
	mux.HandleFunc("/api/v1/tracks", tracks.Collection)
	mux.HandleFunc("/api/v1/tracks/discover", tracks.Discover)
	mux.HandleFunc("/api/v1/tracks/{id}", tracks.Item)
	mux.HandleFunc("/api/v1/tracks/{id}/status", tracks.UpdateStatus)
	mux.HandleFunc("/api/v1/tracks/{id}/play", tracks.Play)
	mux.HandleFunc("/api/v1/payouts", payouts.List)
	mux.HandleFunc("/api/v1/earnings", payouts.Earnings)
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Profiles      ProfileStore
	Sessions      SessionManager
	Tracks        TrackStore
	Payouts       PayoutStore
	Payments      PaymentsClient
	EventVerifier EventVerifier
	Events        EventProcessor
	Uploads       UploadSigner
	Verifier      UploadVerifier
	AuthLimiter   RateLimiter
	UploadLimiter RateLimiter

	SiteBaseURL    string
	PlatformFeeBps int
}
