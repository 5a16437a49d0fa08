// Package migrate computes the operations that carry a previously persisted
// schema state to its current declared state, and orchestrates writing the
// result as a new migration file. The diff algorithm is grounded on
// original_source/rorm/rorm-cli/src/make_migrations/mod.rs and generalized
// from the teacher's internal/diff/diff.go (which partitions one SQL schema
// against another into added/removed/modified tables and columns) to
// operate on imr.Model/imr.Field instead of core.Table/core.Column.
package migrate

import (
	"fmt"
	"sort"

	"weldorm/imr"
	"weldorm/migration"
)

// RenamePrompter asks the operator whether a detected candidate pair is
// actually a rename. Implementations back this with
// github.com/charmbracelet/huh in interactive CLI use; tests and
// non-interactive runs use a stub.
type RenamePrompter interface {
	AskRename(question string) (bool, error)
}

// Options configures one diff pass.
type Options struct {
	// NonInteractive skips rename detection entirely (spec.md §4.3,
	// "Non-interactive mode"): all candidate renames are instead emitted as
	// a plain delete+create pair.
	NonInteractive bool
	Prompt         RenamePrompter
}

// Diff computes the ordered operation list moving previous to current.
// Renames are detected first (asking opts.Prompt unless NonInteractive),
// then remaining disjoint models/fields are emitted as creates/deletes, then
// altered fields are emitted last as an unconditional delete+create pair —
// the seven-step algorithm of spec.md §4.3.
func Diff(previous, current *imr.InternalModelFormat, opts Options) ([]migration.Operation, error) {
	prevModels := indexModels(previous)
	curModels := indexModels(current)

	newModels := sortedMissingFrom(curModels, prevModels)
	deletedModels := sortedMissingFrom(prevModels, curModels)
	commonModels := sortedCommon(prevModels, curModels)

	var renameOps []migration.Operation
	var err error
	newModels, deletedModels, renameOps, err = detectModelRenames(prevModels, curModels, newModels, deletedModels, opts)
	if err != nil {
		return nil, err
	}

	var createModelOps, createFieldOps, renameFieldOps []migration.Operation
	var deleteFieldOps, deleteModelOps []migration.Operation
	var alteredOps []migration.Operation

	for _, name := range newModels {
		createModelOps = append(createModelOps, migration.CreateModel(name, curModels[name].Fields))
	}
	for _, name := range deletedModels {
		deleteModelOps = append(deleteModelOps, migration.DeleteModel(name))
	}

	for _, name := range commonModels {
		prevFields := indexFields(prevModels[name].Fields)
		curFields := indexFields(curModels[name].Fields)

		newFields := sortedMissingFrom(curFields, prevFields)
		deletedFields := sortedMissingFrom(prevFields, curFields)
		var commonFields []string
		for fname := range curFields {
			if _, ok := prevFields[fname]; ok {
				commonFields = append(commonFields, fname)
			}
		}
		sort.Strings(commonFields)

		var altered []string
		for _, fname := range commonFields {
			if !fieldSignatureEqual(prevFields[fname], curFields[fname]) {
				altered = append(altered, fname)
			}
		}

		var fieldRenameOps []migration.Operation
		newFields, deletedFields, fieldRenameOps, err = detectFieldRenames(name, prevFields, curFields, newFields, deletedFields, opts)
		if err != nil {
			return nil, err
		}
		renameFieldOps = append(renameFieldOps, fieldRenameOps...)

		for _, fname := range newFields {
			createFieldOps = append(createFieldOps, migration.CreateField(name, curFields[fname]))
		}
		for _, fname := range deletedFields {
			deleteFieldOps = append(deleteFieldOps, migration.DeleteField(name, fname))
		}
		for _, fname := range altered {
			alteredOps = append(alteredOps, migration.DeleteField(name, fname))
			alteredOps = append(alteredOps, migration.CreateField(name, curFields[fname]))
		}
	}

	// Emission order (spec.md §4.3 step 7): renames, then creates, then
	// deletes, then altered fields last. Creates put models before fields,
	// keeping CreateModel ahead of any CreateField targeting a freshly
	// created table's foreign key; deletes put fields before models, keeping
	// DeleteField of a foreign key ahead of DeleteModel of its target.
	var ops []migration.Operation
	ops = append(ops, renameOps...)
	ops = append(ops, renameFieldOps...)
	ops = append(ops, createModelOps...)
	ops = append(ops, createFieldOps...)
	ops = append(ops, deleteFieldOps...)
	ops = append(ops, deleteModelOps...)
	ops = append(ops, alteredOps...)

	return ops, nil
}

func indexModels(f *imr.InternalModelFormat) map[string]imr.Model {
	out := make(map[string]imr.Model, len(f.Models))
	for _, m := range f.Models {
		out[m.Name] = m
	}
	return out
}

func indexFields(fields []imr.Field) map[string]imr.Field {
	out := make(map[string]imr.Field, len(fields))
	for _, f := range fields {
		out[f.Name] = f
	}
	return out
}

func sortedMissingFrom[T any](in, absentFrom map[string]T) []string {
	var out []string
	for name := range in {
		if _, ok := absentFrom[name]; !ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func sortedCommon(a, b map[string]imr.Model) []string {
	var out []string
	for name := range a {
		if _, ok := b[name]; ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// fieldSignatureEqual compares a field's db_type and annotation set,
// ignoring its name — the test spec.md §4.3 step 2/4 use to decide a field
// was "altered" vs. merely renamed.
func fieldSignatureEqual(a, b imr.Field) bool {
	if a.DBType != b.DBType {
		return false
	}
	return annotationSetEqual(a.Annotations, b.Annotations)
}

func annotationSetEqual(a, b []imr.Annotation) bool {
	if len(a) != len(b) {
		return false
	}
	ak := annotationKinds(a)
	bk := annotationKinds(b)
	for i := range ak {
		if ak[i] != bk[i] {
			return false
		}
	}
	return true
}

func annotationKinds(anns []imr.Annotation) []imr.AnnotationKind {
	out := make([]imr.AnnotationKind, len(anns))
	for i, a := range anns {
		out[i] = a.Kind
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// fieldListEqual reports whether two models' whole field sets are
// indistinguishable — the test spec.md §4.3 step 3 uses to propose a model
// rename.
func fieldListEqual(a, b []imr.Field) bool {
	if len(a) != len(b) {
		return false
	}
	am, bm := indexFields(a), indexFields(b)
	for name, fa := range am {
		fb, ok := bm[name]
		if !ok || !fieldSignatureEqual(fa, fb) {
			return false
		}
	}
	return true
}

func detectModelRenames(prevModels, curModels map[string]imr.Model, newModels, deletedModels []string, opts Options) ([]string, []string, []migration.Operation, error) {
	if opts.NonInteractive || opts.Prompt == nil {
		return newModels, deletedModels, nil, nil
	}

	var renameOps []migration.Operation
	remainingNew := append([]string{}, newModels...)
	remainingDeleted := append([]string{}, deletedModels...)

	for _, newName := range append([]string{}, remainingNew...) {
		for i, delName := range remainingDeleted {
			if !fieldListEqual(curModels[newName].Fields, prevModels[delName].Fields) {
				continue
			}
			yes, err := opts.Prompt.AskRename(fmt.Sprintf("Did you rename the model %q to %q?", delName, newName))
			if err != nil {
				return nil, nil, nil, err
			}
			if yes {
				renameOps = append(renameOps, migration.RenameModel(delName, newName))
				remainingNew = removeString(remainingNew, newName)
				remainingDeleted = append(remainingDeleted[:i], remainingDeleted[i+1:]...)
			}
			break
		}
	}

	return remainingNew, remainingDeleted, renameOps, nil
}

func detectFieldRenames(model string, prevFields, curFields map[string]imr.Field, newFields, deletedFields []string, opts Options) ([]string, []string, []migration.Operation, error) {
	if opts.NonInteractive || opts.Prompt == nil {
		return newFields, deletedFields, nil, nil
	}

	var renameOps []migration.Operation
	remainingNew := append([]string{}, newFields...)
	remainingDeleted := append([]string{}, deletedFields...)

	for _, newName := range append([]string{}, remainingNew...) {
		for i, delName := range remainingDeleted {
			if !fieldSignatureEqual(curFields[newName], prevFields[delName]) {
				continue
			}
			yes, err := opts.Prompt.AskRename(fmt.Sprintf("Did you rename the field %q of model %q to %q?", delName, model, newName))
			if err != nil {
				return nil, nil, nil, err
			}
			if yes {
				renameOps = append(renameOps, migration.RenameField(model, delName, newName))
				remainingNew = removeString(remainingNew, newName)
				remainingDeleted = append(remainingDeleted[:i], remainingDeleted[i+1:]...)
			}
			break
		}
	}

	return remainingNew, remainingDeleted, renameOps, nil
}

func removeString(xs []string, target string) []string {
	out := xs[:0:0]
	for _, x := range xs {
		if x != target {
			out = append(out, x)
		}
	}
	return out
}
