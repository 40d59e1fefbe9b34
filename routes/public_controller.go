package routes

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/mbolis/national-dialog/app"
	"github.com/mbolis/national-dialog/httpx"
	"github.com/mbolis/national-dialog/log"
	"github.com/mbolis/national-dialog/model"
	"github.com/mbolis/national-dialog/routes/middlewares"
	"github.com/mbolis/national-dialog/survey"
	"github.com/mbolis/national-dialog/uploads"
)

const (
	msgSubmitted  = "Your response has been submitted and will appear in the blog!"
	msgNoPollData = "No poll data yet. Fill in the forms to see popular places!"
)

type formView struct {
	Index int `json:"index"`
	model.FormDefinition
}

func ListForms(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		forms := make([]formView, len(app.Catalog.Forms))
		for i, f := range app.Catalog.Forms {
			forms[i] = formView{Index: i, FormDefinition: f}
		}
		render.JSON(w, r, map[string]any{
			"forms": forms,
		})
	}
}

type badAnswerError struct {
	question int
	msg      string
}

func (e *badAnswerError) Error() string {
	return fmt.Sprintf("question %d: %s", e.question, e.msg)
}

func SubmitForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formIndex, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.index")
			return
		}
		form, ok := app.Catalog.Form(formIndex)
		if !ok {
			httpx.LogNotFound(w, "submit_form", formIndex)
			return
		}

		answers, err := collectAnswers(app, r, form)
		var badAnswer *badAnswerError
		switch {
		case errors.As(err, &badAnswer):
			httpx.LogMessages(w, r, http.StatusBadRequest, "submit_form.answers", badAnswer.msg)
			return
		case err != nil:
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		sess := middlewares.SessionFrom(r.Context())
		entry, err := app.Survey.Submit(r.Context(), sess, formIndex, answers)
		switch {
		case errors.Is(err, survey.ErrUnauthenticated):
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "submit_form.session")
			return
		case errors.Is(err, survey.ErrInvalidFormIndex):
			httpx.LogNotFound(w, "submit_form", formIndex)
			return
		case err != nil:
			httpx.LogInternalError(w, "submit_form.save", err)
			return
		}

		log.WithFields(log.Fields{
			"form":  entry.Form,
			"email": entry.User.Email,
		}).Info("submission stored")

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"message": msgSubmitted,
			"entry":   newFeedItem(entry),
		})
	}
}

// collectAnswers reads field q<i> for question i. Text and select values come
// from JSON ({"answers": {"q0": "..."}}), urlencoded or multipart bodies;
// images only from multipart file parts.
func collectAnswers(app app.App, r *http.Request, form model.FormDefinition) ([]model.Answer, error) {
	values := map[string]string{}
	multipart := false

	ct, _, _ := mime.ParseMediaType(r.Header.Get("content-type"))
	switch ct {
	case "application/json":
		body := struct {
			Answers map[string]string `json:"answers"`
		}{}
		if err := render.DecodeJSON(r.Body, &body); err != nil {
			return nil, err
		}
		values = body.Answers
	case "multipart/form-data":
		multipart = true
		if err := r.ParseMultipartForm(app.MaxUploadSize); err != nil {
			return nil, err
		}
		fallthrough
	default:
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		for key := range r.PostForm {
			values[key] = r.PostForm.Get(key)
		}
	}

	answers := make([]model.Answer, len(form.Questions))
	for i, q := range form.Questions {
		key := "q" + strconv.Itoa(i)
		value, present := values[key]

		switch q.Kind {
		case model.KindText:
			answers[i] = model.Text(value)

		case model.KindSelect:
			if !present {
				// widget default
				value = q.Choices[0]
			}
			if !slices.Contains(q.Choices, value) {
				return nil, &badAnswerError{i, fmt.Sprintf("%q is not a choice of %q", value, q.Prompt)}
			}
			answers[i] = model.Text(value)

		case model.KindFile:
			answers[i] = model.Empty()
			if !multipart {
				continue
			}
			file, _, err := r.FormFile(key)
			if errors.Is(err, http.ErrMissingFile) {
				continue
			}
			if err != nil {
				return nil, err
			}
			handle, err := app.Uploads.Save(file)
			file.Close()
			if errors.Is(err, uploads.ErrUnsupportedType) || errors.Is(err, uploads.ErrTooLarge) {
				return nil, &badAnswerError{i, err.Error()}
			}
			if err != nil {
				return nil, err
			}
			answers[i] = model.Image(handle)
		}
	}
	return answers, nil
}

type responseView struct {
	Prompt   string `json:"prompt"`
	Kind     string `json:"kind"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

type feedItem struct {
	User      model.User     `json:"user"`
	Form      string         `json:"form"`
	Responses []responseView `json:"responses"`
	Timestamp time.Time      `json:"timestamp"`
}

func newFeedItem(e model.BlogEntry) feedItem {
	item := feedItem{
		User:      e.User,
		Form:      e.Form,
		Responses: make([]responseView, len(e.Responses)),
		Timestamp: e.Timestamp,
	}
	for i, resp := range e.Responses {
		view := responseView{Prompt: resp.Prompt, Kind: resp.Answer.Kind.String()}
		switch resp.Answer.Kind {
		case model.TextAnswer:
			view.Text = resp.Answer.Text
		case model.ImageAnswer:
			view.ImageURL = "/uploads/" + resp.Answer.Image
		}
		item.Responses[i] = view
	}
	return item
}

func GetFeed(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := app.Blog.Load(r.Context())
		if err != nil {
			httpx.LogInternalError(w, "store.blog.load", err)
			return
		}

		feed := survey.RenderFeed(entries)
		items := make([]feedItem, len(feed))
		for i, e := range feed {
			items[i] = newFeedItem(e)
		}
		render.JSON(w, r, map[string]any{
			"entries": items,
			"total":   len(entries),
		})
	}
}

func GetPoll(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		samples, err := app.Polls.Load(r.Context())
		if err != nil {
			httpx.LogInternalError(w, "store.polls.load", err)
			return
		}

		tally := survey.AggregatePoll(samples)
		resp := map[string]any{
			"title": app.Catalog.Poll.Title,
			"empty": tally.Empty(),
		}
		if tally.Empty() {
			resp["message"] = msgNoPollData
		} else {
			resp["columns"] = []string{"Establishment", "Mentions"}
			resp["rows"] = tally.Counts
		}
		render.JSON(w, r, resp)
	}
}

func GetUpload(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		handle := chi.URLParam(r, "handle")

		f, contentType, err := app.Uploads.Open(handle)
		if err != nil {
			httpx.LogNotFound(w, "get_upload", handle)
			return
		}
		defer f.Close()

		w.Header().Set("content-type", contentType)
		http.ServeContent(w, r, handle, time.Time{}, f)
	}
}
