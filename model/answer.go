package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

type AnswerKind int

const (
	EmptyAnswer AnswerKind = iota
	TextAnswer
	ImageAnswer
)

func (k AnswerKind) String() string {
	switch k {
	case TextAnswer:
		return "text"
	case ImageAnswer:
		return "image"
	default:
		return "empty"
	}
}

// Answer is the value given to one question. On disk a text answer is a JSON
// string, an image answer is {"image": handle} and an empty answer is null.
type Answer struct {
	Kind  AnswerKind
	Text  string
	Image string
}

func Text(s string) Answer {
	return Answer{Kind: TextAnswer, Text: s}
}

func Image(handle string) Answer {
	return Answer{Kind: ImageAnswer, Image: handle}
}

func Empty() Answer {
	return Answer{}
}

type imageRef struct {
	Image string `json:"image"`
}

func (a Answer) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case TextAnswer:
		return json.Marshal(a.Text)
	case ImageAnswer:
		return json.Marshal(imageRef{a.Image})
	default:
		return []byte("null"), nil
	}
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*a = Empty()
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Text(s)
	case len(data) > 0 && data[0] == '{':
		var ref imageRef
		if err := json.Unmarshal(data, &ref); err != nil {
			return err
		}
		if ref.Image == "" {
			return errors.New("answer: image reference without handle")
		}
		*a = Image(ref.Image)
	default:
		return fmt.Errorf("answer: unexpected value %s", data)
	}
	return nil
}

type Response struct {
	Prompt string
	Answer Answer
}

// Responses keeps the question order of the form; it is encoded as a JSON
// object whose keys follow that order.
type Responses []Response

func (rs Responses) Get(prompt string) (Answer, bool) {
	for _, r := range rs {
		if r.Prompt == prompt {
			return r.Answer, true
		}
	}
	return Answer{}, false
}

func (rs Responses) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, r := range rs {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(r.Prompt)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(r.Answer)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (rs *Responses) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*rs = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("responses: expected object, got %v", tok)
	}

	out := Responses{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		prompt := tok.(string)

		var a Answer
		if err := dec.Decode(&a); err != nil {
			return fmt.Errorf("responses[%q]: %w", prompt, err)
		}
		out = append(out, Response{Prompt: prompt, Answer: a})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*rs = out
	return nil
}
