package imr

import (
	"fmt"
	"strings"
)

// ValidationError collects every invariant violation found in one pass over
// an InternalModelFormat, mirroring the teacher's internal/core/validate*.go
// family of one-error-per-offense aggregation.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("imr: %d validation error(s):\n  - %s", len(e.Errors), strings.Join(e.Errors, "\n  - "))
}

func (e *ValidationError) add(format string, args ...any) {
	e.Errors = append(e.Errors, fmt.Sprintf(format, args...))
}

// Validate checks the invariants spec.md §3.1 requires of an
// InternalModelFormat: unique model names, unique field names per model, at
// least one primary-key-annotated field per model, and foreign keys that
// target a model/field known to the same document. Name syntax (allowed
// characters, underscores, purely numeric names), the sqlite_ model-name
// prefix and the number of auto-increment fields are not checked.
func Validate(f *InternalModelFormat) error {
	ve := &ValidationError{}

	seenModel := make(map[string]bool, len(f.Models))
	for _, m := range f.Models {
		if m.Name == "" {
			ve.add("model with empty name")
			continue
		}
		if seenModel[m.Name] {
			ve.add("duplicate model name %q", m.Name)
		}
		seenModel[m.Name] = true

		validateModel(ve, f, m)
	}

	return finish(ve)
}

func validateModel(ve *ValidationError, f *InternalModelFormat, m Model) {
	seenField := make(map[string]bool, len(m.Fields))
	hasPrimaryKey := false

	for _, fld := range m.Fields {
		if fld.Name == "" {
			ve.add("model %q: field with empty name", m.Name)
			continue
		}
		if seenField[fld.Name] {
			ve.add("model %q: duplicate field name %q", m.Name, fld.Name)
		}
		seenField[fld.Name] = true

		if fld.HasAnnotation(KindPrimaryKey) {
			hasPrimaryKey = true
		}

		if fk := fld.Annotation(KindForeignKey); fk != nil {
			validateForeignKey(ve, f, m, fld, fk.ForeignKey)
		}

		if fld.HasAnnotation(KindChoices) && fld.DBType != Choices {
			ve.add("model %q field %q: choices annotation requires DbType Choices, got %q", m.Name, fld.Name, fld.DBType)
		}
	}

	if len(m.Fields) > 0 && !hasPrimaryKey {
		ve.add("model %q: no field carries a primary_key annotation", m.Name)
	}
}

func validateForeignKey(ve *ValidationError, f *InternalModelFormat, m Model, fld Field, fk *ForeignKeyValue) {
	if fk == nil {
		ve.add("model %q field %q: foreign_key annotation missing payload", m.Name, fld.Name)
		return
	}
	target := f.FindModel(fk.Table)
	if target == nil {
		ve.add("model %q field %q: foreign key references unknown model %q", m.Name, fld.Name, fk.Table)
		return
	}
	if target.FindField(fk.Column) == nil {
		ve.add("model %q field %q: foreign key references unknown field %q.%q", m.Name, fld.Name, fk.Table, fk.Column)
	}
}

func finish(ve *ValidationError) error {
	if len(ve.Errors) == 0 {
		return nil
	}
	return ve
}
