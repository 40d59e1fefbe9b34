package httpx

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/mbolis/national-dialog/log"
)

// Will log an error, and send an HTTP response with status 500 and default text
func LogInternalError(w http.ResponseWriter, code string, err error) {
	log.Errorf("%s: %s", code, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// Will log a debug message, and send an HTTP response with status 404 and default text
func LogNotFound(w http.ResponseWriter, code string, id any) {
	log.Debugf("%s: not found (%v)", code, id)
	http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
}

// Will log an error code at the given level, and send
// an HTTP response with status and default text
func LogStatus(w http.ResponseWriter, status int, level log.Level, code string) {
	log.Log(level, code)
	http.Error(w, http.StatusText(status), status)
}

// Will log an error code at debug level, and send a JSON body
// {"errors": messages} with the given status
func LogMessages(w http.ResponseWriter, r *http.Request, status int, code string, messages ...string) {
	log.Debugf("%s: %v", code, messages)
	render.Status(r, status)
	render.JSON(w, r, map[string]any{
		"errors": messages,
	})
}
