package ner

import (
	"sort"
	"strings"
)

// Entity is one named entity in the model's native label space, with
// half-open byte offsets into the source text.
type Entity struct {
	Text  string
	Label string
	Start int
	End   int
}

// entitiesFromTokenLabels folds per-token BIO labels into entity ranges.
// A "B-" prefix or a type change opens a new entity; "I-" of the same type
// extends the current one; "O" (or an empty label) closes it.
func entitiesFromTokenLabels(text string, labels []string, offsets []TokenOffset) []Entity {
	if len(labels) == 0 || len(offsets) == 0 {
		return nil
	}
	var entities []Entity
	var cur *Entity

	for i, lbl := range labels {
		if i >= len(offsets) {
			break
		}
		offset := offsets[i]
		if offset.Start < 0 || offset.End <= offset.Start {
			continue
		}
		prefix, typ := splitLabel(lbl)
		if typ == "" || strings.EqualFold(lbl, "O") {
			if cur != nil {
				entities = append(entities, *cur)
				cur = nil
			}
			continue
		}
		if prefix == "B" || cur == nil || !strings.EqualFold(cur.Label, typ) {
			if cur != nil {
				entities = append(entities, *cur)
			}
			cur = &Entity{Label: typ, Start: offset.Start, End: offset.End}
			continue
		}
		if prefix == "I" && offset.End > cur.End {
			cur.End = offset.End
		}
	}
	if cur != nil {
		entities = append(entities, *cur)
	}

	merged := mergeEntities(entities)
	for i := range merged {
		if merged[i].End <= len(text) {
			merged[i].Text = text[merged[i].Start:merged[i].End]
		}
	}
	return merged
}

func splitLabel(lbl string) (string, string) {
	lbl = strings.TrimSpace(lbl)
	if lbl == "" || strings.EqualFold(lbl, "O") {
		return "", ""
	}
	prefix, typ, ok := strings.Cut(lbl, "-")
	if !ok {
		return "", lbl
	}
	return prefix, typ
}

// mergeEntities joins touching or overlapping ranges of the same label.
func mergeEntities(in []Entity) []Entity {
	if len(in) == 0 {
		return nil
	}
	sort.Slice(in, func(i, j int) bool {
		if in[i].Start == in[j].Start {
			return in[i].End < in[j].End
		}
		return in[i].Start < in[j].Start
	})
	out := make([]Entity, 0, len(in))
	cur := in[0]
	for _, ent := range in[1:] {
		if ent.Start <= cur.End && strings.EqualFold(ent.Label, cur.Label) {
			if ent.End > cur.End {
				cur.End = ent.End
			}
			continue
		}
		out = append(out, cur)
		cur = ent
	}
	out = append(out, cur)
	return out
}
