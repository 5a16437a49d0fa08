package migration

import (
	"sort"

	"weldorm/imr"
)

// Reconstruct walks a migration chain in dependency order and replays its
// operations into an imr.InternalModelFormat, the way
// original_source/rorm/rorm-cli/src/utils/migrations.rs
// convert_migrations_to_internal_models does. A RawSQL operation anywhere in
// the chain makes the persisted state structurally underivable, so
// Reconstruct refuses and returns a ChainError — further auto-generation
// from that point is not supported (spec.md §9 Open Question, kept as-is).
func Reconstruct(chain []Migration) (*imr.InternalModelFormat, error) {
	ordered, err := Order(chain)
	if err != nil {
		return nil, err
	}

	models := make(map[string]*imr.Model)
	var order []string // insertion order, for deterministic IMR output

	for _, m := range ordered {
		for _, op := range m.Operations {
			switch op.Kind {
			case OpCreateModel:
				fields := make([]imr.Field, len(op.Fields))
				copy(fields, op.Fields)
				models[op.Model] = &imr.Model{Name: op.Model, Fields: fields}
				order = append(order, op.Model)

			case OpDeleteModel:
				delete(models, op.Model)
				order = removeString(order, op.Model)

			case OpRenameModel:
				existing, ok := models[op.OldModel]
				if !ok {
					return nil, newChainError("RenameModel references unknown model %q", op.OldModel)
				}
				existing.Name = op.NewModel
				models[op.NewModel] = existing
				delete(models, op.OldModel)
				order = renameInOrder(order, op.OldModel, op.NewModel)

			case OpCreateField:
				target, ok := models[op.Model]
				if !ok {
					return nil, newChainError("CreateField references unknown model %q", op.Model)
				}
				if op.Field == nil {
					return nil, newChainError("CreateField on model %q missing field payload", op.Model)
				}
				target.Fields = append(target.Fields, *op.Field)

			case OpDeleteField:
				target, ok := models[op.Model]
				if !ok {
					return nil, newChainError("DeleteField references unknown model %q", op.Model)
				}
				target.Fields = removeField(target.Fields, op.OldField)

			case OpRenameField:
				target, ok := models[op.Model]
				if !ok {
					return nil, newChainError("RenameField references unknown model %q", op.Model)
				}
				renamed := false
				for i := range target.Fields {
					if target.Fields[i].Name == op.OldField {
						target.Fields[i].Name = op.NewField
						renamed = true
						break
					}
				}
				if !renamed {
					return nil, newChainError("RenameField: model %q has no field %q", op.Model, op.OldField)
				}

			case OpRawSQL:
				return nil, newChainError(
					"migration %d (%s) contains a RawSQL operation; the persisted state is no longer derivable structurally — further auto-generation is refused",
					m.ID, m.Name)
			}
		}
	}

	format := &imr.InternalModelFormat{}
	for _, name := range order {
		format.Models = append(format.Models, *models[name])
	}
	return format, nil
}

// Order sorts a set of migrations by walking dependency links from the sole
// initial migration, failing with a ChainError if the chain does not
// assemble into a coherent list per spec.md §3.2 — exactly one initial
// migration, and every non-initial migration's dependency chain reachable
// from it, visiting every non-replaced migration exactly once. Cyclic or
// otherwise malformed dependency graphs are not special-cased: they simply
// fail to produce a list of the expected length (spec.md §9 Open Question,
// kept as-is).
func Order(chain []Migration) ([]Migration, error) {
	replaced := make(map[uint16]bool)
	for _, m := range chain {
		for _, r := range m.Replaces {
			replaced[r] = true
		}
	}

	byID := make(map[uint16]Migration, len(chain))
	var initial *Migration
	for i := range chain {
		m := chain[i]
		if replaced[m.ID] {
			continue
		}
		if _, dup := byID[m.ID]; dup {
			return nil, newChainError("duplicate migration id %d", m.ID)
		}
		byID[m.ID] = m
		if m.Initial {
			if initial != nil {
				return nil, newChainError("more than one migration is marked initial (%d and %d)", initial.ID, m.ID)
			}
			cp := m
			initial = &cp
		}
	}

	if len(byID) == 0 {
		return nil, nil
	}
	if initial == nil {
		return nil, newChainError("no migration is marked initial")
	}

	byDependency := make(map[uint16]uint16, len(byID))
	for _, m := range byID {
		if m.Dependency != nil {
			byDependency[*m.Dependency] = m.ID
		}
	}

	var ordered []Migration
	seen := make(map[uint16]bool, len(byID))
	current := initial.ID
	for {
		m, ok := byID[current]
		if !ok {
			return nil, newChainError("migrations do not assemble to a coherent list")
		}
		if seen[current] {
			return nil, newChainError("migrations do not assemble to a coherent list")
		}
		seen[current] = true
		ordered = append(ordered, m)

		next, ok := byDependency[current]
		if !ok {
			break
		}
		current = next
	}

	if len(ordered) != len(byID) {
		return nil, newChainError("migrations do not assemble to a coherent list")
	}

	return ordered, nil
}

// LastApplied returns the ordered chain position of id, or -1 if absent.
func LastApplied(ordered []Migration, id uint16) int {
	for i, m := range ordered {
		if m.ID == id {
			return i
		}
	}
	return -1
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

func renameInOrder(xs []string, from, to string) []string {
	out := make([]string, len(xs))
	for i, x := range xs {
		if x == from {
			out[i] = to
		} else {
			out[i] = x
		}
	}
	return out
}

func removeField(fields []imr.Field, name string) []imr.Field {
	out := fields[:0:0]
	for _, f := range fields {
		if f.Name != name {
			out = append(out, f)
		}
	}
	return out
}

// SortByID is a convenience used by callers rendering a directory listing.
func SortByID(ms []Migration) {
	sort.Slice(ms, func(i, j int) bool { return ms[i].ID < ms[j].ID })
}
