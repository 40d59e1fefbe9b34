package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/mbolis/national-dialog/model"
)

// Catalog is the fixed set of forms offered to users. The poll is fed by one
// question of one form.
type Catalog struct {
	Forms []model.FormDefinition `yaml:"forms"`
	Poll  PollSource             `yaml:"poll"`
}

type PollSource struct {
	Title    string `yaml:"title"`
	Form     int    `yaml:"form"`
	Question int    `yaml:"question"`
}

func (c Catalog) Form(index int) (model.FormDefinition, bool) {
	if index < 0 || index >= len(c.Forms) {
		return model.FormDefinition{}, false
	}
	return c.Forms[index], true
}

// PollPrompt is the prompt of the question whose answers become poll samples.
func (c Catalog) PollPrompt() string {
	return c.Forms[c.Poll.Form].Questions[c.Poll.Question].Prompt
}

func (c Catalog) Validate() error {
	if len(c.Forms) == 0 {
		return errors.New("catalog has no forms")
	}
	for i, f := range c.Forms {
		if f.Title == "" {
			return fmt.Errorf("form %d: missing title", i)
		}
		if len(f.Questions) == 0 {
			return fmt.Errorf("form %q: no questions", f.Title)
		}
		seen := map[string]bool{}
		for j, q := range f.Questions {
			if q.Prompt == "" {
				return fmt.Errorf("form %q question %d: missing prompt", f.Title, j)
			}
			if seen[q.Prompt] {
				return fmt.Errorf("form %q: duplicate prompt %q", f.Title, q.Prompt)
			}
			seen[q.Prompt] = true

			switch q.Kind {
			case model.KindText, model.KindFile:
				if len(q.Choices) > 0 {
					return fmt.Errorf("form %q question %d: choices on %s question", f.Title, j, q.Kind)
				}
			case model.KindSelect:
				if len(q.Choices) == 0 {
					return fmt.Errorf("form %q question %d: select without choices", f.Title, j)
				}
			default:
				return fmt.Errorf("form %q question %d: unknown kind %q", f.Title, j, q.Kind)
			}
		}
	}

	if c.Poll.Form < 0 || c.Poll.Form >= len(c.Forms) {
		return fmt.Errorf("poll form %d out of range", c.Poll.Form)
	}
	questions := c.Forms[c.Poll.Form].Questions
	if c.Poll.Question < 0 || c.Poll.Question >= len(questions) {
		return fmt.Errorf("poll question %d out of range", c.Poll.Question)
	}
	if questions[c.Poll.Question].Kind == model.KindFile {
		return errors.New("poll question cannot be a file question")
	}
	return nil
}

// Load reads a catalog from a YAML file. An empty path yields the built-in catalog.
func Load(path string) (Catalog, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Catalog{}, fmt.Errorf("failed to read forms file: %w", err)
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("failed to parse forms file: %w", err)
	}
	if c.Poll.Title == "" {
		c.Poll.Title = defaultPollTitle
	}
	if err := c.Validate(); err != nil {
		return Catalog{}, fmt.Errorf("invalid forms file: %w", err)
	}
	return c, nil
}
