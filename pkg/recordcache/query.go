package recordcache

import (
	"reflect"
	"sort"

	"github.com/satishbabariya/recordcache/internal/rerr"
)

// CompareOp is a scalar comparison operator for an attribute predicate.
type CompareOp string

const (
	OpEqual CompareOp = "equal"
	OpGT    CompareOp = "gt"
	OpGTE   CompareOp = "gte"
	OpLT    CompareOp = "lt"
	OpLTE   CompareOp = "lte"
)

// SetOp is a set-membership comparison operator for a relationship predicate.
type SetOp string

const (
	SetEqual SetOp = "equal"
	SetAll   SetOp = "all"
	SetSome  SetOp = "some"
	SetNone  SetOp = "none"
)

// SortOrder is the direction of a sort specifier.
type SortOrder string

const (
	Ascending  SortOrder = "ascending"
	Descending SortOrder = "descending"
)

// Predicate is one clause of a findRecords filter. Filters
// AND every predicate in the list together. Exactly one of the three
// kind-specific fields applies, selected by Kind.
type Predicate struct {
	Kind string // "attribute" | "relatedRecords" | "relatedRecord"

	// attribute
	AttrName string
	AttrOp   CompareOp
	AttrVal  any

	// relatedRecords (hasMany)
	RelName    string
	RelSetOp   SetOp
	RelValues  []Identity

	// relatedRecord (hasOne)
	RelOneOp     CompareOp
	RelOneValues []Identity
}

// AttributePredicate builds a scalar attribute comparison predicate.
func AttributePredicate(name string, op CompareOp, value any) Predicate {
	return Predicate{Kind: "attribute", AttrName: name, AttrOp: op, AttrVal: value}
}

// RelatedRecordsPredicate builds a hasMany set-membership predicate.
func RelatedRecordsPredicate(name string, op SetOp, values []Identity) Predicate {
	return Predicate{Kind: "relatedRecords", RelName: name, RelSetOp: op, RelValues: values}
}

// RelatedRecordPredicate builds a hasOne equality predicate against one
// or more candidate identities.
func RelatedRecordPredicate(name string, values []Identity) Predicate {
	return Predicate{Kind: "relatedRecord", RelName: name, RelOneOp: OpEqual, RelOneValues: values}
}

// SortSpec orders findRecords results by a single attribute.
type SortSpec struct {
	Kind      string // currently only "attribute"
	Attribute string
	Order     SortOrder
}

// Page bounds a findRecords result. Limit is required if Page is used
// at all; Offset defaults to zero.
type Page struct {
	Limit  int
	Offset int
	HasLimit bool
}

// FindRecordsQuery is the full findRecords expression.
type FindRecordsQuery struct {
	Type    string
	Filter  []Predicate
	Sort    []SortSpec
	Page    *Page
}

// FindRecord returns the record at id, or a RecordNotFoundError.
func FindRecord(a RecordAccessor, id Identity) (Record, error) {
	r, ok := a.GetRecord(id)
	if !ok {
		return Record{}, rerr.NewRecordNotFoundError(id.Type, id.ID)
	}
	return r, nil
}

// FindRecords evaluates a filter/sort/page query over every record of
// q.Type.
func FindRecords(a RecordAccessor, q FindRecordsQuery) ([]Record, error) {
	if q.Page != nil && !q.Page.HasLimit {
		return nil, rerr.NewQueryExpressionParseError("page requires limit")
	}

	records := a.GetRecords(q.Type)
	matched := make([]Record, 0, len(records))
	for _, r := range records {
		ok, err := matchesAll(r, q.Filter)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, r)
		}
	}

	if len(q.Sort) > 0 {
		if err := applySort(matched, q.Sort); err != nil {
			return nil, err
		}
	}

	if q.Page == nil {
		return matched, nil
	}
	offset := q.Page.Offset
	if offset > len(matched) {
		offset = len(matched)
	}
	end := offset + q.Page.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

// FindRelatedRecord resolves a hasOne relationship's target record, or
// (Record{}, false) if the relationship is unset or the record is absent.
func FindRelatedRecord(a RecordAccessor, id Identity, relationship string) (Record, bool) {
	return GetRelatedRecord(a, id, relationship)
}

// FindRelatedRecords resolves a hasMany relationship's target records in order.
func FindRelatedRecords(a RecordAccessor, id Identity, relationship string) []Record {
	return GetRelatedRecords(a, id, relationship)
}

func matchesAll(r Record, filter []Predicate) (bool, error) {
	for _, p := range filter {
		ok, err := matchesOne(r, p)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func matchesOne(r Record, p Predicate) (bool, error) {
	switch p.Kind {
	case "attribute":
		return matchAttribute(r, p)
	case "relatedRecords":
		return matchRelatedRecords(r, p)
	case "relatedRecord":
		return matchRelatedRecord(r, p)
	default:
		return false, rerr.NewQueryExpressionParseError("unknown predicate kind " + p.Kind)
	}
}

func matchAttribute(r Record, p Predicate) (bool, error) {
	actual := r.Attributes[p.AttrName]
	switch p.AttrOp {
	case OpEqual:
		return reflect.DeepEqual(actual, p.AttrVal), nil
	case OpGT:
		c, ok := compareOrdered(actual, p.AttrVal)
		return ok && c > 0, nil
	case OpGTE:
		c, ok := compareOrdered(actual, p.AttrVal)
		return ok && c >= 0, nil
	case OpLT:
		c, ok := compareOrdered(actual, p.AttrVal)
		return ok && c < 0, nil
	case OpLTE:
		c, ok := compareOrdered(actual, p.AttrVal)
		return ok && c <= 0, nil
	default:
		return false, rerr.NewQueryExpressionParseError("unknown attribute operator " + string(p.AttrOp))
	}
}

func matchRelatedRecords(r Record, p Predicate) (bool, error) {
	actual := r.Relationships[p.RelName].ManyData()
	switch p.RelSetOp {
	case SetEqual:
		if len(actual) != len(p.RelValues) {
			return false, nil
		}
		for _, e := range p.RelValues {
			if !IdentitySet(actual, e) {
				return false, nil
			}
		}
		return true, nil
	case SetAll:
		for _, e := range p.RelValues {
			if !IdentitySet(actual, e) {
				return false, nil
			}
		}
		return true, nil
	case SetSome:
		for _, e := range p.RelValues {
			if IdentitySet(actual, e) {
				return true, nil
			}
		}
		return false, nil
	case SetNone:
		for _, e := range p.RelValues {
			if IdentitySet(actual, e) {
				return false, nil
			}
		}
		return true, nil
	default:
		return false, rerr.NewQueryExpressionParseError("unknown set operator " + string(p.RelSetOp))
	}
}

func matchRelatedRecord(r Record, p Predicate) (bool, error) {
	if p.RelOneOp != OpEqual {
		return false, rerr.NewQueryExpressionParseError("unknown relatedRecord operator " + string(p.RelOneOp))
	}
	actual := r.Relationships[p.RelName].OneData()
	if actual == nil {
		for _, e := range p.RelOneValues {
			if e.IsNull() {
				return true, nil
			}
		}
		return false, nil
	}
	for _, e := range p.RelOneValues {
		if actual.Equal(e) {
			return true, nil
		}
	}
	return false, nil
}

// compareOrdered compares two attribute values by native ordering for
// int/float/string kinds; the second return is false when the values
// aren't comparable this way.
func compareOrdered(a, b any) (int, bool) {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		default:
			return 0, true
		}
	default:
		af, aok := toFloat(a)
		bf, bok := toFloat(b)
		if !aok || !bok {
			return 0, false
		}
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		default:
			return 0, true
		}
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// applySort orders records by the given specifiers in priority order.
// A missing attribute sorts last under ascending, first under
// descending.
func applySort(records []Record, specs []SortSpec) error {
	for _, s := range specs {
		if s.Kind != "attribute" {
			return rerr.NewQueryExpressionParseError("unsupported sort kind " + s.Kind)
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		for _, s := range specs {
			c := compareForSort(records[i], records[j], s)
			if c != 0 {
				return c < 0
			}
		}
		return false
	})
	return nil
}

func compareForSort(a, b Record, s SortSpec) int {
	av, aok := a.Attributes[s.Attribute]
	bv, bok := b.Attributes[s.Attribute]

	ascending := s.Order != Descending

	if !aok && !bok {
		return 0
	}
	if !aok {
		if ascending {
			return 1
		}
		return -1
	}
	if !bok {
		if ascending {
			return -1
		}
		return 1
	}

	c, ok := compareOrdered(av, bv)
	if !ok {
		c = 0
	}
	if !ascending {
		c = -c
	}
	return c
}
