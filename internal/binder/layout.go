package binder

// Layout arranges views; build it with Single, VConcat and HConcat
type Layout struct {
	kind     string
	view     *ViewSpec
	children []Layout
}

// Single lays out one view
func Single(v ViewSpec) Layout {
	return Layout{kind: "single", view: &v}
}

// VConcat stacks layouts vertically
func VConcat(children ...Layout) Layout {
	return Layout{kind: "vconcat", children: children}
}

// HConcat places layouts side by side
func HConcat(children ...Layout) Layout {
	return Layout{kind: "hconcat", children: children}
}

// Views returns every view in layout order, depth first
func (l Layout) Views() []ViewSpec {
	if l.view != nil {
		return []ViewSpec{*l.view}
	}
	var out []ViewSpec
	for _, c := range l.children {
		out = append(out, c.Views()...)
	}
	return out
}

func (l Layout) render(unit func(ViewSpec) map[string]any) map[string]any {
	if l.view != nil {
		return unit(*l.view)
	}
	parts := make([]any, len(l.children))
	for i, c := range l.children {
		parts[i] = c.render(unit)
	}
	return map[string]any{
		l.kind: parts,
		"resolve": map[string]any{
			"legend": map[string]any{"color": "independent", "size": "independent"},
		},
	}
}
