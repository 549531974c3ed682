package questiongen

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Validator checks a generated question text.
// Implementations should be stateless and safe for concurrent use.
type Validator interface {
	// Name returns a short identifier for logs, e.g. "format".
	Name() string

	// Validate returns nil if text passes.
	Validate(text string, input Input) *FormatError
}

// FormatError describes why a candidate failed validation.
type FormatError struct {
	Validator string
	Message   string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}

// LengthValidator rejects candidates longer than Max runes.
type LengthValidator struct {
	Max int
}

func (v *LengthValidator) Name() string { return "length" }

func (v *LengthValidator) Validate(text string, _ Input) *FormatError {
	if v.Max > 0 && utf8.RuneCountInString(text) > v.Max {
		return &FormatError{Validator: v.Name(), Message: fmt.Sprintf("text exceeds %d characters", v.Max)}
	}
	return nil
}

var (
	stemLine   = regexp.MustCompile(`(?m)^[ \t]*\**1[.)]`)
	optionLine = regexp.MustCompile(`(?m)^[ \t]*\**([A-Da-d])[).]\**[ \t]*\S`)
	answerLine = regexp.MustCompile(`(?mi)^[ \t]*\**respuesta correcta\**[ \t]*:[ \t]*\**[ \t]*\[?([A-D])\]?`)
)

// FormatValidator checks the fixed layout: a numbered stem, four options
// A) to D) in order, then the "Respuesta correcta: X" line.
type FormatValidator struct{}

func (v *FormatValidator) Name() string { return "format" }

func (v *FormatValidator) Validate(text string, _ Input) *FormatError {
	fail := func(msg string) *FormatError {
		return &FormatError{Validator: v.Name(), Message: msg}
	}

	stem := stemLine.FindStringIndex(text)
	if stem == nil {
		return fail("missing numbered question line")
	}

	opts := optionLine.FindAllStringSubmatchIndex(text, -1)
	var letters strings.Builder
	for _, m := range opts {
		letters.WriteString(strings.ToUpper(text[m[2]:m[3]]))
	}
	if letters.String() != "ABCD" {
		return fail(fmt.Sprintf("expected options A-D in order, got %q", letters.String()))
	}
	if opts[0][0] < stem[0] {
		return fail("options appear before the question")
	}

	answer := answerLine.FindStringSubmatchIndex(text)
	if answer == nil {
		return fail("missing 'Respuesta correcta' line with a letter A-D")
	}
	if answer[0] < opts[len(opts)-1][0] {
		return fail("answer line appears before the options")
	}
	return nil
}

// Normalize trims the text, removes a surrounding code fence and converts
// CRLF line endings.
func Normalize(text string) string {
	s := strings.ReplaceAll(text, "\r\n", "\n")
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
