package survey

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mbolis/national-dialog/catalog"
	"github.com/mbolis/national-dialog/log"
	"github.com/mbolis/national-dialog/model"
	"github.com/mbolis/national-dialog/session"
	"github.com/mbolis/national-dialog/store"
)

var (
	ErrInvalidFormIndex = errors.New("survey: invalid form index")
	ErrUnauthenticated  = errors.New("survey: session is not authenticated")
)

type Service struct {
	Catalog catalog.Catalog
	Blog    store.Collection[model.BlogEntry]
	Polls   store.Collection[string]
	Now     func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// Submit records the answers to the form at formIndex as a new blog entry.
// answers is indexed like the form's questions; missing trailing answers are
// treated as empty. When the form is the poll source and the poll question was
// answered, the raw answer is also appended to the poll.
func (s *Service) Submit(ctx context.Context, sess *session.Session, formIndex int, answers []model.Answer) (model.BlogEntry, error) {
	form, ok := s.Catalog.Form(formIndex)
	if !ok {
		return model.BlogEntry{}, fmt.Errorf("%w: %d", ErrInvalidFormIndex, formIndex)
	}
	user, ok := sess.User()
	if !ok || !sess.Authenticated() {
		return model.BlogEntry{}, ErrUnauthenticated
	}

	responses := make(model.Responses, len(form.Questions))
	for i, q := range form.Questions {
		a := model.Empty()
		if i < len(answers) {
			a = answers[i]
		}
		if a.Kind == model.EmptyAnswer && q.Kind != model.KindFile {
			a = model.Text("")
		}
		responses[i] = model.Response{Prompt: q.Prompt, Answer: a}
	}

	entry := model.BlogEntry{
		User:      user,
		Form:      form.Title,
		Responses: responses,
		Timestamp: s.now(),
	}
	if err := s.Blog.Append(ctx, entry); err != nil {
		return model.BlogEntry{}, fmt.Errorf("survey: save entry: %w", err)
	}

	if formIndex == s.Catalog.Poll.Form {
		a := responses[s.Catalog.Poll.Question].Answer
		if a.Kind == model.TextAnswer && a.Text != "" {
			if err := s.Polls.Append(ctx, a.Text); err != nil {
				return entry, fmt.Errorf("survey: save poll sample: %w", err)
			}
			log.Debugf("poll sample recorded for %q", form.Title)
		}
	}

	return entry, nil
}
