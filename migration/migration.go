// Package migration defines the persisted migration chain: the
// Migration/Operation record shapes, their TOML file encoding, and filename
// parsing — grounded on the teacher's own TOML-based file handling
// (internal/parser/toml) and on original_source/rorm/rorm-declaration's
// sibling migration record (inferred from rorm-cli/src/utils/migrations.rs,
// which is the direct Rust source of chain.go's reconstruction algorithm).
package migration

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"

	"github.com/BurntSushi/toml"

	"weldorm/imr"
)

// OperationKind tags which variant an Operation holds.
type OperationKind string

const (
	OpCreateModel OperationKind = "create_model"
	OpDeleteModel OperationKind = "delete_model"
	OpRenameModel OperationKind = "rename_model"
	OpCreateField OperationKind = "create_field"
	OpDeleteField OperationKind = "delete_field"
	OpRenameField OperationKind = "rename_field"
	OpRawSQL      OperationKind = "raw_sql"
)

// Operation is one step of a migration, tagged by Kind. Only the payload
// fields matching Kind are populated; this mirrors the teacher's own flat
// TOML-tagged-table style rather than a Go-native sum type, since
// BurntSushi/toml has no notion of tagged unions.
type Operation struct {
	Kind OperationKind `toml:"kind"`

	// CreateModel / DeleteModel / RenameModel
	Model    string      `toml:"model,omitempty"`
	OldModel string      `toml:"old_model,omitempty"`
	NewModel string      `toml:"new_model,omitempty"`
	Fields   []imr.Field `toml:"fields,omitempty"`

	// CreateField / DeleteField / RenameField
	Field    *imr.Field `toml:"field,omitempty"`
	OldField string     `toml:"old_field,omitempty"`
	NewField string     `toml:"new_field,omitempty"`

	// RawSQL
	Statement string `toml:"statement,omitempty"`
}

func CreateModel(name string, fields []imr.Field) Operation {
	return Operation{Kind: OpCreateModel, Model: name, Fields: fields}
}

func DeleteModel(name string) Operation {
	return Operation{Kind: OpDeleteModel, Model: name}
}

func RenameModel(oldName, newName string) Operation {
	return Operation{Kind: OpRenameModel, OldModel: oldName, NewModel: newName}
}

func CreateField(model string, field imr.Field) Operation {
	return Operation{Kind: OpCreateField, Model: model, Field: &field}
}

func DeleteField(model, name string) Operation {
	return Operation{Kind: OpDeleteField, Model: model, OldField: name}
}

func RenameField(model, oldName, newName string) Operation {
	return Operation{Kind: OpRenameField, Model: model, OldField: oldName, NewField: newName}
}

func RawSQL(statement string) Operation {
	return Operation{Kind: OpRawSQL, Statement: statement}
}

// Migration is one persisted step of the chain (spec.md §3.2).
type Migration struct {
	ID         uint16      `toml:"id"`
	Name       string      `toml:"name"`
	Initial    bool        `toml:"initial"`
	Dependency *uint16     `toml:"dependency,omitempty"`
	Replaces   []uint16    `toml:"replaces,omitempty"`
	Hash       string      `toml:"hash"`
	Operations []Operation `toml:"operations"`
}

// document is the single top-level TOML table a migration file carries.
type document struct {
	Migration Migration `toml:"migration"`
}

// filenamePattern matches "NNNN_name.toml" per spec.md §6.
var filenamePattern = regexp.MustCompile(`^([0-9]{4})_([A-Za-z0-9_]+)\.toml$`)

// ParseFilename extracts the id and name spec.md §6 says are encoded in a
// migration filename.
func ParseFilename(filename string) (id uint16, name string, err error) {
	m := filenamePattern.FindStringSubmatch(filename)
	if m == nil {
		return 0, "", fmt.Errorf("migration: filename %q does not match %s", filename, filenamePattern.String())
	}
	n, err := strconv.ParseUint(m[1], 10, 16)
	if err != nil {
		return 0, "", fmt.Errorf("migration: filename %q has an unparseable id: %w", filename, err)
	}
	return uint16(n), m[2], nil
}

// Filename renders the canonical "NNNN_name.toml" filename for m.
func Filename(m Migration) string {
	return fmt.Sprintf("%04d_%s.toml", m.ID, m.Name)
}

// Encode serializes m as the single-table TOML document spec.md §6 requires.
func Encode(m Migration) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(document{Migration: m}); err != nil {
		return nil, fmt.Errorf("migration: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses a migration file's contents.
func Decode(data []byte) (Migration, error) {
	var doc document
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return Migration{}, fmt.Errorf("migration: decode: %w", err)
	}
	return doc.Migration, nil
}
