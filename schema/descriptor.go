// Package schema provides the entity declaration DSL: a runtime builder that
// plays the role the teacher's SQL-first schema.Table/Column tree plays, but
// is populated by Go code describing entities rather than parsed from SQL.
// Declaring a model through Builder and registering it with a Registry
// produces the imr.InternalModelFormat the rest of the module consumes.
package schema

import (
	"fmt"
	"sync"

	"weldorm/imr"
)

// FieldDescriptor is the declared shape of one column: its storage type,
// annotations, and — for foreign keys — the model it references.
type FieldDescriptor struct {
	Name         string
	DBType       imr.DbType
	Annotations  []imr.Annotation
	ForeignModel string // target model name; empty unless this is a foreign key
	ForeignField string // target column name; empty unless this is a foreign key
	Source       *imr.SourceLocation
}

// HasAnnotation reports whether the field carries an annotation of kind k.
func (d *FieldDescriptor) HasAnnotation(k imr.AnnotationKind) bool {
	for _, a := range d.Annotations {
		if a.Kind == k {
			return true
		}
	}
	return false
}

// IsForeignKey reports whether this field references another model.
func (d *FieldDescriptor) IsForeignKey() bool {
	return d.ForeignModel != ""
}

// ModelDescriptor is one declared entity: its name and ordered fields.
type ModelDescriptor struct {
	Name   string
	Fields []*FieldDescriptor
	Source *imr.SourceLocation

	byName map[string]*FieldDescriptor
}

// Field looks up a declared field by name.
func (m *ModelDescriptor) Field(name string) *FieldDescriptor {
	return m.byName[name]
}

// PrimaryKey returns the model's single primary-key field, if declared.
func (m *ModelDescriptor) PrimaryKey() *FieldDescriptor {
	for _, f := range m.Fields {
		if f.HasAnnotation(imr.KindPrimaryKey) {
			return f
		}
	}
	return nil
}

// ToIMR lowers the declared model into its imr.Model representation.
func (m *ModelDescriptor) ToIMR() imr.Model {
	out := imr.Model{Name: m.Name, Source: m.Source}
	for _, f := range m.Fields {
		annotations := f.Annotations
		if f.IsForeignKey() {
			hasFK := false
			for _, a := range annotations {
				if a.Kind == imr.KindForeignKey {
					hasFK = true
					break
				}
			}
			if !hasFK {
				annotations = append(append([]imr.Annotation{}, annotations...),
					imr.ForeignKeyOf(f.ForeignModel, f.ForeignField, imr.ActionNone, imr.ActionNone))
			}
		}
		out.Fields = append(out.Fields, imr.Field{
			Name:        f.Name,
			DBType:      f.DBType,
			Annotations: annotations,
			Source:      f.Source,
		})
	}
	return out
}

// Registry is a process-global store of declared models, the Go analogue of
// the macro-time registry rorm's derive macro populates at compile time (see
// original_source/rorm/rorm-macro/src/derive.rs) — here it's filled by
// Builder.Build()/Registry.Register calls made at package-init time instead.
type Registry struct {
	mu     sync.RWMutex
	models map[string]*ModelDescriptor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{models: make(map[string]*ModelDescriptor)}
}

// Register adds a declared model, failing if its name is already taken.
func (r *Registry) Register(m *ModelDescriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.models[m.Name]; exists {
		return fmt.Errorf("schema: model %q already registered", m.Name)
	}
	r.models[m.Name] = m
	return nil
}

// Get looks up a registered model by name.
func (r *Registry) Get(name string) (*ModelDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.models[name]
	return m, ok
}

// Models returns every registered model, in registration order being
// unspecified (callers that need stable ordering should sort by Name).
func (r *Registry) Models() []*ModelDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*ModelDescriptor, 0, len(r.models))
	for _, m := range r.models {
		out = append(out, m)
	}
	return out
}

// ToIMR lowers every registered model into one InternalModelFormat document,
// the artifact migrate.Diff and migration.Reconstruct both operate on.
func (r *Registry) ToIMR() *imr.InternalModelFormat {
	f := &imr.InternalModelFormat{}
	for _, m := range r.Models() {
		f.Models = append(f.Models, m.ToIMR())
	}
	return f
}
