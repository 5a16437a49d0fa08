// Package query resolves the implicit joins a CRUD builder needs when a
// caller reaches a field through a relation Path — spec.md §4.5. It plays
// the role rorm's QueryContextBuilder/QueryContext pair plays
// (original_source/rorm/src/internal/query_context.rs): a single
// accumulator of path->alias bindings that is filled while a builder is
// assembled and then handed, finished, to the dialect layer.
package query

import (
	"fmt"
	"strings"

	"weldorm/dialect"
	"weldorm/schema"
)

// Context accumulates join and field-alias bindings for one query rooted at
// a single model. It is not safe for concurrent use — exactly like rorm's
// QueryContextBuilder, it is meant to be built up by one query builder and
// then handed off.
type Context struct {
	registry *schema.Registry
	root     string

	seq        int
	pathAlias  map[string]string
	fieldAlias map[string]string
	joins      []dialect.JoinDef
}

// New starts a context for queries rooted at the model named root.
func New(registry *schema.Registry, root string) *Context {
	return &Context{
		registry:   registry,
		root:       root,
		pathAlias:  make(map[string]string),
		fieldAlias: make(map[string]string),
	}
}

// Joins returns the joins discovered so far, in the order they were first
// required — the same ordering guarantee spec.md §4.5 requires.
func (c *Context) Joins() []dialect.JoinDef {
	return c.joins
}

// AddField registers a FieldProxy for use in a statement and returns the
// qualified column reference to render it with (bare "name" for a field on
// the root model, "_N.name" once its path has been joined in).
func (c *Context) AddField(p schema.FieldProxy) (string, error) {
	key := fieldKey(p)
	if col, ok := c.fieldAlias[key]; ok {
		return col, nil
	}

	alias, _, err := c.ensurePath(p.Path)
	if err != nil {
		return "", fmt.Errorf("query: resolving %s: %w", key, err)
	}

	col := p.Field
	if alias != "" {
		col = alias + "." + p.Field
	}
	c.fieldAlias[key] = col
	return col, nil
}

// ensurePath joins every table along p (if not already joined) and returns
// the alias of the table p arrives at, along with that table's model name.
// An empty path resolves to the root model with no alias.
func (c *Context) ensurePath(p schema.Path) (alias, model string, err error) {
	if len(p) == 0 {
		return "", c.root, nil
	}

	parentAlias, parentModel, err := c.ensurePath(p[:len(p)-1])
	if err != nil {
		return "", "", err
	}
	step := p[len(p)-1]

	key := pathKey(p)
	if a, ok := c.pathAlias[key]; ok {
		return a, step.Model, nil
	}

	join, err := c.buildJoin(parentAlias, parentModel, step)
	if err != nil {
		return "", "", err
	}

	c.joins = append(c.joins, join)
	c.pathAlias[key] = join.Alias
	return join.Alias, step.Model, nil
}

func (c *Context) buildJoin(parentAlias, parentModel string, step schema.PathStep) (dialect.JoinDef, error) {
	c.seq++
	alias := fmt.Sprintf("_%d", c.seq)

	if step.Reverse {
		// Back-reference: FieldName is the FK column living on step.Model
		// that points back at parentModel's primary key.
		target, ok := c.registry.Get(step.Model)
		if !ok {
			return dialect.JoinDef{}, fmt.Errorf("unknown model %q", step.Model)
		}
		fd := target.Field(step.FieldName)
		if fd == nil || !fd.IsForeignKey() {
			return dialect.JoinDef{}, fmt.Errorf("%s.%s is not a foreign-key field", step.Model, step.FieldName)
		}
		if fd.ForeignModel != parentModel {
			return dialect.JoinDef{}, fmt.Errorf("%s.%s does not reference %s", step.Model, step.FieldName, parentModel)
		}

		parent, ok := c.registry.Get(parentModel)
		if !ok {
			return dialect.JoinDef{}, fmt.Errorf("unknown model %q", parentModel)
		}
		pk := parent.PrimaryKey()
		if pk == nil {
			return dialect.JoinDef{}, fmt.Errorf("model %q has no primary key", parentModel)
		}

		parentColumn := qualify(parentAlias, pk.Name)
		return dialect.JoinDef{
			Table:       step.Model,
			Alias:       alias,
			LeftColumn:  qualify(alias, step.FieldName),
			RightColumn: parentColumn,
		}, nil
	}

	parent, ok := c.registry.Get(parentModel)
	if !ok {
		return dialect.JoinDef{}, fmt.Errorf("unknown model %q", parentModel)
	}
	fd := parent.Field(step.FieldName)
	if fd == nil || !fd.IsForeignKey() {
		return dialect.JoinDef{}, fmt.Errorf("%s.%s is not a foreign-key field", parentModel, step.FieldName)
	}
	if fd.ForeignModel != step.Model {
		return dialect.JoinDef{}, fmt.Errorf("%s.%s does not reference %s", parentModel, step.FieldName, step.Model)
	}

	parentColumn := qualify(parentAlias, step.FieldName)
	return dialect.JoinDef{
		Table:       step.Model,
		Alias:       alias,
		LeftColumn:  qualify(alias, fd.ForeignField),
		RightColumn: parentColumn,
	}, nil
}

func qualify(alias, column string) string {
	if alias == "" {
		return column
	}
	return alias + "." + column
}

// pathKey is a stable, order-sensitive identity for a Path; two Paths
// compare equal for join-reuse purposes iff their keys match.
func pathKey(p schema.Path) string {
	var b strings.Builder
	for _, s := range p {
		if s.Reverse {
			b.WriteString("back:")
		}
		b.WriteString(s.Model)
		b.WriteByte('.')
		b.WriteString(s.FieldName)
		b.WriteByte('/')
	}
	return b.String()
}

// fieldKey is a stable identity for a FieldProxy, combining its path with
// its own field name.
func fieldKey(p schema.FieldProxy) string {
	return pathKey(p.Path) + "#" + p.Field
}
