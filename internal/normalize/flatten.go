package normalize

// Group fields recognised by Flatten, tried in this order.
var (
	monthsFields  = []string{"months", "month_groups", "monthGroups"}
	recordsFields = []string{"records", "entries"}
	itemsFields   = []string{"items"}
)

// Envelope fields only wrap the payload itself. Below the root they are
// ordinary record fields.
var envelopeFields = []string{"items", "data", "results"}

// Flatten reduces a collection payload to one flat list of raw records in
// source order. Accepted shapes:
//
//	[record, ...]
//	[{year, months: [{month, records: [record, ...]}, ...]}, ...]
//	{items: [record, ...]}
//	{data: [record, ...]} or {results: [...]} at the root only
//
// JSON strings are unwrapped at every level. A group field only counts
// when it holds a list, so a record with a numeric "records" count stays a
// record. A single non-empty object that is not a group is returned as a
// one-record list. Anything else yields an empty list, never nil.
func Flatten(root any) []map[string]any {
	out := make([]map[string]any, 0)
	flatten(root, true, &out)
	return out
}

func flatten(v any, root bool, out *[]map[string]any) {
	switch t := UnwrapJSON(v).(type) {
	case []any:
		for _, item := range t {
			flatten(item, false, out)
		}
	case []map[string]any:
		for _, item := range t {
			flatten(item, false, out)
		}
	case map[string]any:
		groups := [][]string{monthsFields, recordsFields, itemsFields}
		if root {
			groups[2] = envelopeFields
		}
		for _, group := range groups {
			if children, ok := groupList(t, group); ok {
				for _, c := range children {
					flatten(c, false, out)
				}
				return
			}
		}
		if len(t) > 0 {
			*out = append(*out, t)
		}
	}
}

func groupList(m map[string]any, candidates []string) ([]any, bool) {
	v, ok := Field(m, candidates...)
	if !ok {
		return nil, false
	}
	switch list := UnwrapJSON(v).(type) {
	case []any:
		return list, true
	case []map[string]any:
		children := make([]any, len(list))
		for i := range list {
			children[i] = list[i]
		}
		return children, true
	}
	return nil, false
}
