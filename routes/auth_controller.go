package routes

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/mbolis/national-dialog/app"
	"github.com/mbolis/national-dialog/httpx"
	"github.com/mbolis/national-dialog/log"
	"github.com/mbolis/national-dialog/model"
	"github.com/mbolis/national-dialog/routes/middlewares"
	"github.com/mbolis/national-dialog/session"
)

const msgAccessGranted = "Access granted!"

type authRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

func SubmitAuth(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := authRequest{}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		sess := middlewares.SessionFrom(r.Context())
		u, err := app.Gate.SubmitAuth(r.Context(), sess, req.Name, req.Phone, req.Email)

		var verr *session.ValidationError
		switch {
		case errors.As(err, &verr):
			httpx.LogMessages(w, r, http.StatusUnprocessableEntity, "auth.validate", verr.Messages...)
			return
		case errors.Is(err, session.ErrAlreadyAuthenticated):
			httpx.LogStatus(w, http.StatusConflict, log.DebugLevel, "auth.already_authenticated")
			return
		case err != nil:
			httpx.LogInternalError(w, "auth.save_user", err)
			return
		}

		err = middlewares.IssueSession(w, app.SessionAuth, u, app.SessionTTL)
		if err != nil {
			httpx.LogInternalError(w, "auth.issue_session", err)
			return
		}

		log.WithFields(log.Fields{"email": u.Email}).Info("visitor authenticated")

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"message": msgAccessGranted,
			"user":    u,
		})
	}
}

func GetSession(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := middlewares.SessionFrom(r.Context())

		var user *model.User
		if u, ok := sess.User(); ok {
			user = &u
		}
		render.JSON(w, r, map[string]any{
			"state": sess.State(),
			"user":  user,
		})
	}
}
