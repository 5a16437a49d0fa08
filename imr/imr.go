// Package imr defines the Internal Model Representation: a language-neutral,
// serializable description of tables, columns, constraints, and indexes.
// It is the contract exchanged between schema declaration and the migration
// engine; nothing in this package talks to a database.
package imr

// InternalModelFormat is the root document dumped to JSON for the migration
// tool to consume.
type InternalModelFormat struct {
	Models []Model `json:"Models"`
}

// Model describes one entity's table.
type Model struct {
	Name   string           `json:"Name"`
	Fields []Field          `json:"Fields"`
	Source *SourceLocation  `json:"Source,omitempty"`
}

// Field describes one column of a Model.
type Field struct {
	Name        string          `json:"Name"`
	DBType      DbType          `json:"Type"`
	Annotations []Annotation    `json:"Annotations"`
	Source      *SourceLocation `json:"Source,omitempty"`
}

// SourceLocation pins a Model or Field to where it was declared, for
// diagnostics.
type SourceLocation struct {
	File   string `json:"File"`
	Line   int    `json:"Line"`
	Column int    `json:"Column"`
}

// DbType is the closed set of portable column storage types. UInt64 is
// deliberately absent: it has no safe, portable representation across
// SQLite, MySQL, and PostgreSQL.
type DbType string

const (
	VarChar   DbType = "varchar"
	VarBinary DbType = "varbinary"
	Int8      DbType = "int8"
	Int16     DbType = "int16"
	Int32     DbType = "int32"
	Int64     DbType = "int64"
	UInt8     DbType = "uint8"
	UInt16    DbType = "uint16"
	UInt32    DbType = "uint32"
	Float     DbType = "float_number"
	Double    DbType = "double_number"
	Boolean   DbType = "boolean"
	Date      DbType = "date"
	DateTime  DbType = "datetime"
	Timestamp DbType = "timestamp"
	Time      DbType = "time"
	Choices   DbType = "choices"
	Set       DbType = "set"
)

// AnnotationKind tags an Annotation's variant. Equality and hashing of
// Annotation values consider only the kind, never the payload — see hash.go.
type AnnotationKind string

const (
	KindAutoCreateTime AnnotationKind = "auto_create_time"
	KindAutoUpdateTime AnnotationKind = "auto_update_time"
	KindAutoIncrement  AnnotationKind = "auto_increment"
	KindChoices        AnnotationKind = "choices"
	KindDefaultValue   AnnotationKind = "default_value"
	KindIndex          AnnotationKind = "index"
	KindMaxLength      AnnotationKind = "max_length"
	KindNotNull        AnnotationKind = "not_null"
	KindPrimaryKey     AnnotationKind = "primary_key"
	KindUnique         AnnotationKind = "unique"
	KindForeignKey     AnnotationKind = "foreign_key"
)

// Annotation is a tagged-variant constraint/behavior attached to a Field.
// Only one of the payload fields is meaningful, selected by Kind.
type Annotation struct {
	Kind AnnotationKind `json:"Type"`

	// Choices holds the allowed values for KindChoices.
	Choices []string `json:"Choices,omitempty"`
	// DefaultValue holds the DEFAULT expression payload for KindDefaultValue.
	DefaultValue *DefaultValue `json:"DefaultValue,omitempty"`
	// Index holds the optional name/priority for KindIndex.
	Index *IndexValue `json:"Index,omitempty"`
	// MaxLength holds the VARCHAR length for KindMaxLength.
	MaxLength *int32 `json:"MaxLength,omitempty"`
	// ForeignKey holds the referenced table/column for KindForeignKey.
	ForeignKey *ForeignKeyValue `json:"ForeignKey,omitempty"`
}

// IndexValue is the optional payload of an Index annotation.
type IndexValue struct {
	Name     string `json:"Name"`
	Priority *int32 `json:"Priority,omitempty"`
}

// ForeignKeyValue is the payload of a ForeignKey annotation.
type ForeignKeyValue struct {
	Table    string             `json:"Table"`
	Column   string             `json:"Column"`
	OnDelete ReferentialAction  `json:"OnDelete,omitempty"`
	OnUpdate ReferentialAction  `json:"OnUpdate,omitempty"`
}

// ReferentialAction mirrors the SQL referential actions a foreign key may
// request on delete/update of its target row.
type ReferentialAction string

const (
	ActionNone       ReferentialAction = ""
	ActionCascade    ReferentialAction = "CASCADE"
	ActionRestrict   ReferentialAction = "RESTRICT"
	ActionSetNull    ReferentialAction = "SET NULL"
	ActionSetDefault ReferentialAction = "SET DEFAULT"
	ActionNoAction   ReferentialAction = "NO ACTION"
)

// DefaultValue is any non-object/array scalar usable as a DEFAULT
// expression's value.
type DefaultValue struct {
	String  *string  `json:"String,omitempty"`
	Integer *int64   `json:"Integer,omitempty"`
	Float   *float64 `json:"Float,omitempty"`
	Boolean *bool    `json:"Boolean,omitempty"`
}

// Simple constructors for the Annotation variants that carry no payload.

func AutoCreateTime() Annotation { return Annotation{Kind: KindAutoCreateTime} }
func AutoUpdateTime() Annotation { return Annotation{Kind: KindAutoUpdateTime} }
func AutoIncrement() Annotation  { return Annotation{Kind: KindAutoIncrement} }
func NotNull() Annotation        { return Annotation{Kind: KindNotNull} }
func PrimaryKey() Annotation     { return Annotation{Kind: KindPrimaryKey} }
func Unique() Annotation         { return Annotation{Kind: KindUnique} }

func ChoicesOf(values ...string) Annotation {
	return Annotation{Kind: KindChoices, Choices: values}
}

func MaxLengthOf(n int32) Annotation {
	return Annotation{Kind: KindMaxLength, MaxLength: &n}
}

func IndexOf(name string, priority *int32) Annotation {
	return Annotation{Kind: KindIndex, Index: &IndexValue{Name: name, Priority: priority}}
}

func ForeignKeyOf(table, column string, onDelete, onUpdate ReferentialAction) Annotation {
	return Annotation{Kind: KindForeignKey, ForeignKey: &ForeignKeyValue{
		Table: table, Column: column, OnDelete: onDelete, OnUpdate: onUpdate,
	}}
}

func DefaultString(v string) Annotation {
	return Annotation{Kind: KindDefaultValue, DefaultValue: &DefaultValue{String: &v}}
}

func DefaultInteger(v int64) Annotation {
	return Annotation{Kind: KindDefaultValue, DefaultValue: &DefaultValue{Integer: &v}}
}

func DefaultFloat(v float64) Annotation {
	return Annotation{Kind: KindDefaultValue, DefaultValue: &DefaultValue{Float: &v}}
}

func DefaultBoolean(v bool) Annotation {
	return Annotation{Kind: KindDefaultValue, DefaultValue: &DefaultValue{Boolean: &v}}
}

// FindModel looks for a model by name.
func (f *InternalModelFormat) FindModel(name string) *Model {
	for i := range f.Models {
		if f.Models[i].Name == name {
			return &f.Models[i]
		}
	}
	return nil
}

// FindField looks for a field by name within a model.
func (m *Model) FindField(name string) *Field {
	for i := range m.Fields {
		if m.Fields[i].Name == name {
			return &m.Fields[i]
		}
	}
	return nil
}

// HasAnnotation reports whether a field carries an annotation of the given
// kind, per the variant-tag-only equality rule of §3.1.
func (f *Field) HasAnnotation(kind AnnotationKind) bool {
	for _, a := range f.Annotations {
		if a.Kind == kind {
			return true
		}
	}
	return false
}

// Annotation returns the first annotation of the given kind, or nil.
func (f *Field) Annotation(kind AnnotationKind) *Annotation {
	for i := range f.Annotations {
		if f.Annotations[i].Kind == kind {
			return &f.Annotations[i]
		}
	}
	return nil
}
