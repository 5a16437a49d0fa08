package migration

import (
	"fmt"

	"weldorm/dialect"
	"weldorm/imr"
)

// Translate renders one migration's operations into the ordered sequence of
// DDL statements a dialect needs to execute to apply it — spec.md §4.2's
// "translate operations to SQL" step of the applier algorithm. RawSQL
// operations pass their statement through verbatim.
func Translate(d dialect.Dialect, m Migration) ([]string, error) {
	var statements []string
	for _, op := range m.Operations {
		stmts, err := translateOp(d, op)
		if err != nil {
			return nil, fmt.Errorf("migration: translating %s operation in %q: %w", op.Kind, Filename(m), err)
		}
		statements = append(statements, stmts...)
	}
	return statements, nil
}

func translateOp(d dialect.Dialect, op Operation) ([]string, error) {
	switch op.Kind {
	case OpCreateModel:
		create, extra := d.CreateTable(imr.Model{Name: op.Model, Fields: op.Fields})
		return append([]string{create}, extra...), nil

	case OpDeleteModel:
		return []string{d.DropTable(op.Model)}, nil

	case OpRenameModel:
		return []string{fmt.Sprintf("ALTER TABLE %s RENAME TO %s", d.QuoteIdentifier(op.OldModel), d.QuoteIdentifier(op.NewModel))}, nil

	case OpCreateField:
		if op.Field == nil {
			return nil, fmt.Errorf("create_field operation is missing its field payload")
		}
		statements := []string{d.AddColumn(op.Model, *op.Field)}
		if op.Field.HasAnnotation(imr.KindAutoUpdateTime) {
			statements = append(statements, d.AutoUpdateTriggers(op.Model, *op.Field)...)
		}
		return statements, nil

	case OpDeleteField:
		return []string{d.DropColumn(op.Model, op.OldField)}, nil

	case OpRenameField:
		return []string{fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s",
			d.QuoteIdentifier(op.Model), d.QuoteIdentifier(op.OldField), d.QuoteIdentifier(op.NewField))}, nil

	case OpRawSQL:
		return []string{op.Statement}, nil

	default:
		return nil, fmt.Errorf("unknown operation kind %q", op.Kind)
	}
}
