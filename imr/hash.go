package imr

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
)

// annotationHashByte maps an AnnotationKind to a single stable byte, mirroring
// rorm's `impl Hash for Annotation` (original_source/rorm/rorm-declaration/src/imr.rs):
// annotations hash by variant tag only, payload ignored. Two Annotation
// values of the same Kind always fingerprint identically regardless of
// Choices/DefaultValue/Index/MaxLength/ForeignKey payload.
var annotationHashByte = map[AnnotationKind]byte{
	KindAutoCreateTime: 0,
	KindAutoUpdateTime: 1,
	KindAutoIncrement:  2,
	KindChoices:        3,
	KindDefaultValue:   4,
	KindIndex:          5,
	KindMaxLength:      6,
	KindNotNull:        7,
	KindPrimaryKey:     8,
	KindUnique:         9,
	KindForeignKey:     10,
}

// EqualAnnotation reports whether two annotations are equal under the
// variant-tag-only rule: same Kind, payload ignored.
func EqualAnnotation(a, b Annotation) bool {
	return a.Kind == b.Kind
}

// Fingerprint computes a deterministic hash over an InternalModelFormat using
// variant-tag-only annotation hashing. Two IMR snapshots that differ only in
// an Annotation's payload (e.g. a MaxLength value, or an Index's name) hash
// identically — this is the documented-as-intentional coarseness from
// spec.md §9: it lets make-migrations cheaply decide "nothing changed,
// skip diffing" while the structural diff (migrate.Diff) still reports
// precise changes when something else did change.
func Fingerprint(f *InternalModelFormat) string {
	h := sha256.New()

	models := make([]Model, len(f.Models))
	copy(models, f.Models)
	sort.Slice(models, func(i, j int) bool { return models[i].Name < models[j].Name })

	for _, m := range models {
		h.Write([]byte("model:"))
		h.Write([]byte(m.Name))

		fields := make([]Field, len(m.Fields))
		copy(fields, m.Fields)
		sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })

		for _, fld := range fields {
			h.Write([]byte("field:"))
			h.Write([]byte(fld.Name))
			h.Write([]byte(":"))
			h.Write([]byte(fld.DBType))

			kinds := make([]byte, 0, len(fld.Annotations))
			for _, a := range fld.Annotations {
				kinds = append(kinds, annotationHashByte[a.Kind])
			}
			sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
			h.Write(kinds)
		}
	}

	return hex.EncodeToString(h.Sum(nil))
}
