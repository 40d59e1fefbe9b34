// Package session implements the gate every visitor passes once before using
// the forms: a two-state machine that moves from unauthenticated to
// authenticated when valid contact details are submitted. There is no way
// back; a session stays authenticated until it is discarded.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/looplab/fsm"

	"github.com/mbolis/national-dialog/model"
	"github.com/mbolis/national-dialog/store"
	"github.com/mbolis/national-dialog/validate"
)

const (
	Unauthenticated = "unauthenticated"
	Authenticated   = "authenticated"

	eventAuthenticate = "authenticate"
)

const (
	MsgNameRequired = "Name is required."
	MsgInvalidPhone = "Enter a valid South African cell phone number (e.g., 0821234567 or +27821234567)."
	MsgInvalidEmail = "Enter a valid email address."
)

var ErrAlreadyAuthenticated = errors.New("session: already authenticated")

// ValidationError lists every failed check of an auth attempt, in form order.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "session: " + strings.Join(e.Messages, " ")
}

type Session struct {
	machine *fsm.FSM
	user    *model.User
}

func newMachine(initial string) *fsm.FSM {
	return fsm.NewFSM(
		initial,
		fsm.Events{
			{Name: eventAuthenticate, Src: []string{Unauthenticated}, Dst: Authenticated},
		},
		fsm.Callbacks{},
	)
}

// New returns an unauthenticated session.
func New() *Session {
	return &Session{machine: newMachine(Unauthenticated)}
}

// Restore rebuilds an authenticated session for a user carried over from a
// previous request.
func Restore(u model.User) *Session {
	return &Session{machine: newMachine(Authenticated), user: &u}
}

func (s *Session) State() string {
	return s.machine.Current()
}

func (s *Session) Authenticated() bool {
	return s.machine.Is(Authenticated)
}

func (s *Session) User() (model.User, bool) {
	if s.user == nil {
		return model.User{}, false
	}
	return *s.user, true
}

// Gate checks contact details and records every user that passes.
type Gate struct {
	users    store.Collection[model.User]
	validate *validator.Validate
	now      func() time.Time
}

func NewGate(users store.Collection[model.User], now func() time.Time) *Gate {
	if now == nil {
		now = time.Now
	}
	return &Gate{users: users, validate: validate.New(), now: now}
}

var fieldMessages = map[string]string{
	"Name":  MsgNameRequired,
	"Phone": MsgInvalidPhone,
	"Email": MsgInvalidEmail,
}

// SubmitAuth runs all checks on the given details. On failure the session is
// left untouched and a *ValidationError is returned. On success the user is
// appended to the users collection and the session becomes authenticated.
func (g *Gate) SubmitAuth(ctx context.Context, s *Session, name, phone, email string) (model.User, error) {
	if s.Authenticated() {
		return model.User{}, ErrAlreadyAuthenticated
	}

	u := model.User{Name: name, Phone: phone, Email: email}
	if err := g.check(u); err != nil {
		return model.User{}, err
	}

	u.Timestamp = g.now()
	if err := g.users.Append(ctx, u); err != nil {
		return model.User{}, fmt.Errorf("session: save user: %w", err)
	}

	if err := s.machine.Event(ctx, eventAuthenticate); err != nil {
		return model.User{}, fmt.Errorf("session: %w", err)
	}
	s.user = &u
	return u, nil
}

func (g *Gate) check(u model.User) error {
	err := g.validate.Struct(u)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("session: validate: %w", err)
	}

	failed := map[string]bool{}
	for _, fe := range fieldErrs {
		failed[fe.Field()] = true
	}
	verr := &ValidationError{}
	for _, field := range []string{"Name", "Phone", "Email"} {
		if failed[field] {
			verr.Messages = append(verr.Messages, fieldMessages[field])
		}
	}
	return verr
}
