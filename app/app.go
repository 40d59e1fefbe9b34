package app

import (
	"time"

	"github.com/go-chi/jwtauth"
	"github.com/go-chi/oauth"

	"github.com/mbolis/national-dialog/catalog"
	"github.com/mbolis/national-dialog/config"
	"github.com/mbolis/national-dialog/httpx"
	"github.com/mbolis/national-dialog/session"
	"github.com/mbolis/national-dialog/store"
	"github.com/mbolis/national-dialog/survey"
	"github.com/mbolis/national-dialog/uploads"
)

// App is everything a controller may need.
type App struct {
	config.Config
	store.Stores
	Catalog catalog.Catalog
	Gate    *session.Gate
	Survey  *survey.Service
	Uploads *uploads.Store

	// SessionAuth signs the cookie that carries an authenticated user.
	SessionAuth *jwtauth.JWTAuth
	// Bearer is nil when the admin API is disabled.
	Bearer *oauth.BearerServer
}

// New wires the domain services on top of already opened stores.
func New(cfg config.Config, stores store.Stores, cat catalog.Catalog, now func() time.Time) (App, error) {
	up, err := uploads.New(cfg.DataDir, cfg.MaxUploadSize)
	if err != nil {
		return App{}, err
	}

	a := App{
		Config:  cfg,
		Stores:  stores,
		Catalog: cat,
		Gate:    session.NewGate(stores.Users, now),
		Survey: &survey.Service{
			Catalog: cat,
			Blog:    stores.Blog,
			Polls:   stores.Polls,
			Now:     now,
		},
		Uploads:     up,
		SessionAuth: jwtauth.New("HS256", []byte(cfg.TokenSecret), nil),
	}
	if cfg.AdminEnabled() {
		a.Bearer = httpx.NewBearerServer(cfg.TokenSecret, cfg.TokenTTL, cfg.AdminUser, cfg.AdminPasswordHash)
	}
	return a, nil
}
