package model

import "time"

type User struct {
	Name      string    `json:"name" validate:"required"`
	Phone     string    `json:"phone" validate:"required,sa_phone"`
	Email     string    `json:"email" validate:"required,weak_email"`
	Timestamp time.Time `json:"timestamp"`
}

type QuestionKind string

const (
	KindText   QuestionKind = "text"
	KindSelect QuestionKind = "select"
	KindFile   QuestionKind = "file"
)

type Question struct {
	Prompt  string       `json:"prompt" yaml:"prompt"`
	Kind    QuestionKind `json:"kind" yaml:"kind"`
	Choices []string     `json:"choices,omitempty" yaml:"choices,omitempty"`
}

type FormDefinition struct {
	Title     string     `json:"title" yaml:"title"`
	Questions []Question `json:"questions" yaml:"questions"`
}

// BlogEntry is one form submission as it appears in the public feed.
type BlogEntry struct {
	User      User      `json:"user"`
	Form      string    `json:"form"`
	Responses Responses `json:"responses"`
	Timestamp time.Time `json:"timestamp"`
}
