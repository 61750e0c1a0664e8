package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pesona-id/pesona-backend/internal/security/auth"
	"github.com/pesona-id/pesona-backend/internal/security/middleware"
	"github.com/pesona-id/pesona-backend/internal/service"
	"github.com/pesona-id/pesona-backend/pkg/config"
)

// Services bundles every service the router mounts.
type Services struct {
	Auth         *service.AuthService
	Users        *service.UserService
	Categories   *service.CategoryService
	Districts    *service.DistrictService
	Tags         *service.TagService
	Destinations *service.DestinationService
	Traditions   *service.TraditionService
	Stories      *service.StoryService
	Comments     *service.CommentService
	Likes        *service.LikeService
	Bookmarks    *service.BookmarkService
}

// Deps carries the infrastructure the router wires around the handlers.
// Rate limiting and request IDs wrap the whole mux in main, not here.
type Deps struct {
	Config       *config.Config
	Logger       *slog.Logger
	TokenManager *auth.TokenManager
	Health       *HealthHandler
}

// NewRouter builds the full route table. Reads on content are public and
// detail routes address entities by slug; interactions require auth; taxonomy
// and destination/tradition writes require the admin role. Every API route is
// mounted at its bare path and again under /api for prefixed deployments.
func NewRouter(svcs Services, deps Deps) *http.ServeMux {
	log := deps.Logger

	authOnly := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireAuth(deps.TokenManager, log)(h)
	}
	adminOnly := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireAuth(deps.TokenManager, log)(middleware.RequireAdmin(log)(h))
	}

	authH := NewAuthHandler(svcs.Auth, deps.Config, log)
	userH := NewUserHandler(svcs.Users, log)
	categoryH := NewCategoryHandler(svcs.Categories, log)
	districtH := NewDistrictHandler(svcs.Districts, log)
	tagH := NewTagHandler(svcs.Tags, log)
	destinationH := NewDestinationHandler(svcs.Destinations, log)
	traditionH := NewTraditionHandler(svcs.Traditions, log)
	storyH := NewStoryHandler(svcs.Stories, log)
	commentH := NewCommentHandler(svcs.Comments, log)
	interactionH := NewInteractionHandler(svcs.Likes, svcs.Bookmarks, log)

	mux := http.NewServeMux()
	handle := func(pattern string, h http.Handler) {
		method, path, _ := strings.Cut(pattern, " ")
		mux.Handle(method+" "+path, h)
		mux.Handle(method+" /api"+path, h)
	}
	handleFunc := func(pattern string, h http.HandlerFunc) { handle(pattern, h) }

	// Auth
	handleFunc("POST /register", authH.Register)
	handleFunc("POST /login", authH.Login)
	handleFunc("GET /token", authH.Token)
	handle("POST /logout", authOnly(authH.Logout))
	handle("GET /me", authOnly(authH.Me))

	// Users
	handleFunc("GET /users", userH.List)
	handleFunc("GET /users/{name}", userH.Get)
	handle("PATCH /users/{name}", authOnly(userH.Update))
	handle("DELETE /users/{name}", authOnly(userH.Delete))

	// Categories
	handleFunc("GET /categories", categoryH.List)
	handleFunc("GET /categories/{slug}", categoryH.Get)
	handle("POST /categories", adminOnly(categoryH.Create))
	handle("PATCH /categories/{id}", adminOnly(categoryH.Update))
	handle("DELETE /categories/{id}", adminOnly(categoryH.Delete))

	// Districts
	handleFunc("GET /districts", districtH.List)
	handleFunc("GET /districts/{slug}", districtH.Get)
	handle("POST /districts", adminOnly(districtH.Create))
	handle("PATCH /districts/{id}", adminOnly(districtH.Update))
	handle("DELETE /districts/{id}", adminOnly(districtH.Delete))

	// Tags
	handleFunc("GET /tags", tagH.List)
	handle("POST /tags", adminOnly(tagH.Create))
	handle("PATCH /tags/{id}", adminOnly(tagH.Update))
	handle("DELETE /tags/{id}", adminOnly(tagH.Delete))

	// Destinations
	handleFunc("GET /destinations", destinationH.List)
	handleFunc("GET /destinations/{slug}", destinationH.Get)
	handle("POST /destinations", adminOnly(destinationH.Create))
	handle("PATCH /destinations/{id}", adminOnly(destinationH.Update))
	handle("DELETE /destinations/{id}", adminOnly(destinationH.Delete))

	// Traditions
	handleFunc("GET /traditions", traditionH.List)
	handleFunc("GET /traditions/{slug}", traditionH.Get)
	handle("POST /traditions", adminOnly(traditionH.Create))
	handle("PATCH /traditions/{id}", adminOnly(traditionH.Update))
	handle("DELETE /traditions/{id}", adminOnly(traditionH.Delete))

	// Stories
	handleFunc("GET /stories", storyH.List)
	handleFunc("GET /stories/{slug}", storyH.Get)
	handle("POST /stories", authOnly(storyH.Create))
	handle("PATCH /stories/{id}", authOnly(storyH.Update))
	handle("DELETE /stories/{id}", authOnly(storyH.Delete))

	// Comments
	handleFunc("GET /comments/{schema}/{schemaId}", commentH.List)
	handle("POST /comment", authOnly(commentH.Create))
	handle("PATCH /comment/{id}", authOnly(commentH.Update))
	handle("DELETE /comment/{id}", authOnly(commentH.Delete))

	// Likes and bookmarks
	handle("POST /like", authOnly(interactionH.CreateLike))
	handle("DELETE /like/{id}", authOnly(interactionH.DeleteLike))
	handle("GET /bookmarks", authOnly(interactionH.ListBookmarks))
	handle("POST /bookmark", authOnly(interactionH.CreateBookmark))
	handle("DELETE /bookmark/{id}", authOnly(interactionH.DeleteBookmark))

	// Operational endpoints, bare paths only
	if deps.Health != nil {
		mux.HandleFunc("GET /healthz", deps.Health.Health)
		mux.HandleFunc("GET /readyz", deps.Health.Ready)
	}
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}
