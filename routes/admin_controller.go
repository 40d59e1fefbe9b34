package routes

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/mbolis/national-dialog/app"
	"github.com/mbolis/national-dialog/httpx"
	"github.com/mbolis/national-dialog/store"
)

func ListUsers(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := app.Users.Load(r.Context())
		if err != nil {
			httpx.LogInternalError(w, "store.users.load", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"users": users,
		})
	}
}

func ExportUsersCSV(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := app.Users.Load(r.Context())
		if err != nil {
			httpx.LogInternalError(w, "store.users.load", err)
			return
		}
		data, err := store.EncodeUsersCSV(users)
		if err != nil {
			httpx.LogInternalError(w, "store.users.csv", err)
			return
		}

		w.Header().Set("content-type", "text/csv; charset=utf-8")
		w.Header().Set("content-disposition", `attachment; filename="`+store.UsersCSVFile+`"`)
		w.Write(data)
	}
}

func ListBlog(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := app.Blog.Load(r.Context())
		if err != nil {
			httpx.LogInternalError(w, "store.blog.load", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"entries": entries,
		})
	}
}

func ListPollSamples(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		samples, err := app.Polls.Load(r.Context())
		if err != nil {
			httpx.LogInternalError(w, "store.polls.load", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"samples": samples,
		})
	}
}
