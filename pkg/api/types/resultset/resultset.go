package resultset

// Envelope is the listing response shape:
//
//	{"ResultSet": {"Result": [...], "totalRecords": N}}
type Envelope[T any] struct {
	ResultSet ResultSet[T] `json:"ResultSet"`
}

type ResultSet[T any] struct {
	Result       []T `json:"Result"`
	TotalRecords int `json:"totalRecords"`
}

// Of wraps items into the envelope. nil becomes an empty Result, not null.
func Of[T any](items []T) Envelope[T] {
	if items == nil {
		items = []T{}
	}
	return Envelope[T]{
		ResultSet: ResultSet[T]{
			Result:       items,
			TotalRecords: len(items),
		},
	}
}
