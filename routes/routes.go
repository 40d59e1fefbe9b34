package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mbolis/national-dialog/app"
	"github.com/mbolis/national-dialog/log"
	"github.com/mbolis/national-dialog/public"
	"github.com/mbolis/national-dialog/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(
		middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: log.Logger, NoColor: true}),
		middleware.Recoverer,
		middlewares.Session(app.SessionAuth),
	)

	root.Mount("/api", apiRouter(app))
	root.
		With(middlewares.RequireSession).
		Get("/uploads/{handle}", GetUpload(app))
	root.Mount("/", servePublicFiles())

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	api.Post("/auth", SubmitAuth(app))
	api.Get("/session", GetSession(app))

	api.Group(func(r chi.Router) {
		r.Use(middlewares.RequireSession)

		r.Get("/forms", ListForms(app))
		r.Post(`/forms/{index:^\d+$}/submissions`, SubmitForm(app))
		r.Get("/feed", GetFeed(app))
		r.Get("/poll", GetPoll(app))
	})

	if app.Bearer == nil {
		log.Info("admin API disabled (no admin password hash configured)")
		return api
	}

	api.Post("/login", Login(app))
	api.Post("/refresh", Refresh(app))

	api.Route("/admin", func(r chi.Router) {
		r.Use(middlewares.Admin(app.TokenSecret))

		r.Get("/users", ListUsers(app))
		r.Get("/users.csv", ExportUsersCSV(app))
		r.Get("/blog", ListBlog(app))
		r.Get("/polls", ListPollSamples(app))
	})

	return api
}

func servePublicFiles() http.Handler {
	return http.FileServer(http.FS(public.Files))
}
