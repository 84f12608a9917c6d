package document

// Author is one entry of an author_list field: the given/family name pair
// the crossref schema uses.
type Author struct {
	Given  string `json:"given" yaml:"given"`
	Family string `json:"family" yaml:"family"`
}

// AuthorList extracts the author_list field as []Author. It accepts both
// the typed form (set by normalization) and the decoded-JSON form
// ([]any of map[string]any) found in records read back from files.
func (d *Document) AuthorList() []Author {
	v, ok := d.Get(KeyAuthorList)
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case []Author:
		return t
	case []any:
		out := make([]Author, 0, len(t))
		for _, e := range t {
			m, ok := e.(map[string]any)
			if !ok {
				continue
			}
			out = append(out, Author{
				Given:  Stringify(m["given"]),
				Family: Stringify(m["family"]),
			})
		}
		return out
	default:
		return nil
	}
}

// DisplayName formats an author as "Given Family".
func (a Author) DisplayName() string {
	if a.Given == "" {
		return a.Family
	}
	if a.Family == "" {
		return a.Given
	}
	return a.Given + " " + a.Family
}
