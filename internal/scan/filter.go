package scan

// Filter keeps the import ranges of symbols found as tags, in statement
// order, followed by every usage range. Invalid ranges are dropped.
func Filter(symbols []ImportedSymbol, usages []UsageMatch, matched map[string]bool) []Range {
	var ranges []Range
	for _, s := range symbols {
		if matched[s.Name] && Valid(s.Range) {
			ranges = append(ranges, s.Range)
		}
	}
	for _, u := range usages {
		if !matched[u.Name] {
			continue
		}
		if Valid(u.Open) {
			ranges = append(ranges, u.Open)
		}
		if u.Close != nil && Valid(*u.Close) {
			ranges = append(ranges, *u.Close)
		}
	}
	return ranges
}

// Highlight runs the import scan, the usage scan and the filter over one
// snapshot of text.
func Highlight(text string, dependencies Dependencies) Result {
	imports, _ := ScanImports(text, dependencies)
	names := make([]string, 0, len(imports))
	for _, s := range imports {
		names = append(names, s.Name)
	}
	usages, matched := ScanUsages(text, names)
	return Result{
		Imports: imports,
		Usages:  usages,
		Matched: matched,
		Ranges:  Filter(imports, usages, matched),
	}
}

// SymbolAt returns the name of the highlighted symbol covering p.
func (r Result) SymbolAt(p Position) (string, bool) {
	for _, s := range r.Imports {
		if r.Matched[s.Name] && Contains(s.Range, p) {
			return s.Name, true
		}
	}
	for _, u := range r.Usages {
		if Contains(u.Open, p) || (u.Close != nil && Contains(*u.Close, p)) {
			return u.Name, true
		}
	}
	return "", false
}

// RangesOf returns the highlighted ranges belonging to name.
func (r Result) RangesOf(name string) []Range {
	if !r.Matched[name] {
		return nil
	}
	var ranges []Range
	for _, s := range r.Imports {
		if s.Name == name {
			ranges = append(ranges, s.Range)
		}
	}
	for _, u := range r.Usages {
		if u.Name != name {
			continue
		}
		ranges = append(ranges, u.Open)
		if u.Close != nil {
			ranges = append(ranges, *u.Close)
		}
	}
	return ranges
}

// NamedRange is one highlighted range with the symbol it belongs to.
type NamedRange struct {
	Name  string `json:"name"`
	Range Range  `json:"range"`
}

// Named pairs each entry of Ranges with its symbol name, in the same order.
func (r Result) Named() []NamedRange {
	var out []NamedRange
	for _, s := range r.Imports {
		if r.Matched[s.Name] && Valid(s.Range) {
			out = append(out, NamedRange{Name: s.Name, Range: s.Range})
		}
	}
	for _, u := range r.Usages {
		if !r.Matched[u.Name] {
			continue
		}
		if Valid(u.Open) {
			out = append(out, NamedRange{Name: u.Name, Range: u.Open})
		}
		if u.Close != nil && Valid(*u.Close) {
			out = append(out, NamedRange{Name: u.Name, Range: *u.Close})
		}
	}
	return out
}
