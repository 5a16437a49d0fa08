package schema

import "weldorm/imr"

// Builder accumulates fields for one model. It stands in for the compile-time
// work rorm's derive macro does (original_source/rorm/rorm-macro/src/derive.rs
// turns a struct's fields into annotated columns); since Go has no macros,
// entities call this builder at package-init time instead of at compile time.
type Builder struct {
	name   string
	fields []*FieldDescriptor
	source *imr.SourceLocation
}

// NewModel starts declaring a model named name.
func NewModel(name string) *Builder {
	return &Builder{name: name}
}

// At attaches a source location to the model, for migration-diagnostic
// messages that point back at the declaring Go file.
func (b *Builder) At(file string, line, column int) *Builder {
	b.source = &imr.SourceLocation{File: file, Line: line, Column: column}
	return b
}

// Field declares a plain column.
func (b *Builder) Field(name string, dbType imr.DbType, annotations ...imr.Annotation) *Builder {
	b.fields = append(b.fields, &FieldDescriptor{
		Name:        name,
		DBType:      dbType,
		Annotations: annotations,
	})
	return b
}

// ForeignKey declares a column that references another model's column,
// producing a ForeignKeyOf annotation automatically in addition to any
// annotations passed explicitly (e.g. NotNull).
func (b *Builder) ForeignKey(name string, dbType imr.DbType, targetModel, targetField string, onDelete, onUpdate imr.ReferentialAction, annotations ...imr.Annotation) *Builder {
	all := append(append([]imr.Annotation{}, annotations...), imr.ForeignKeyOf(targetModel, targetField, onDelete, onUpdate))
	b.fields = append(b.fields, &FieldDescriptor{
		Name:         name,
		DBType:       dbType,
		Annotations:  all,
		ForeignModel: targetModel,
		ForeignField: targetField,
	})
	return b
}

// Columnar declares a composite field backed by a ColumnarType: one
// FieldDescriptor per physical column, named "<name>_<suffix>" for each
// suffix value.Columns() returns, sharing the given annotations.
func (b *Builder) Columnar(name string, dbType imr.DbType, value ColumnarType, annotations ...imr.Annotation) *Builder {
	for _, suffix := range value.Columns() {
		b.fields = append(b.fields, &FieldDescriptor{
			Name:        name + "_" + suffix,
			DBType:      dbType,
			Annotations: annotations,
		})
	}
	return b
}

// Build finalizes the declaration into an immutable ModelDescriptor.
func (b *Builder) Build() *ModelDescriptor {
	m := &ModelDescriptor{
		Name:   b.name,
		Fields: b.fields,
		Source: b.source,
		byName: make(map[string]*FieldDescriptor, len(b.fields)),
	}
	for _, f := range b.fields {
		m.byName[f.Name] = f
	}
	return m
}
