package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrEmpty is returned for a null or empty query result.
var ErrEmpty = errors.New("empty document")

// UnknownTypeError is returned for a _type outside the known set.
type UnknownTypeError struct {
	Type string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown document type %q", e.Type)
}

// ValidationError lists the fields that failed validation.
type ValidationError struct {
	Type   string
	Fields []string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s document: %s", e.Type, strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

func newDocument(docType string) (Document, error) {
	switch docType {
	case TypeSite:
		return &Site{}, nil
	case TypeHome:
		return &Home{}, nil
	case TypeContact:
		return &Contact{}, nil
	case TypeProjectsPage:
		return &ProjectsPage{}, nil
	case TypeAboutPage:
		return &AboutPage{}, nil
	case TypeProject:
		return &Project{}, nil
	case TypeCaseStudy:
		return &CaseStudy{}, nil
	default:
		return nil, &UnknownTypeError{Type: docType}
	}
}

// Decode reads the _type of raw, unmarshals it into the matching variant and
// validates it.
func Decode(raw json.RawMessage) (Document, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, ErrEmpty
	}

	var head struct {
		Type string `json:"_type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}

	doc, err := newDocument(head.Type)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", head.Type, err)
	}
	if err := Validate(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// DecodeAs decodes raw and requires the result to be of docType.
func DecodeAs(raw json.RawMessage, docType string) (Document, error) {
	doc, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	if doc.DocumentType() != docType {
		return nil, fmt.Errorf("expected %s document, got %s", docType, doc.DocumentType())
	}
	return doc, nil
}

func Validate(doc Document) error {
	err := validate.Struct(doc)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
	}
	return &ValidationError{Type: doc.DocumentType(), Fields: fields, Err: err}
}

// IsDraft reports whether the document is an unpublished draft revision.
func IsDraft(doc Document) bool {
	return strings.HasPrefix(doc.DocumentID(), "drafts.")
}
