package docstore

// Filter operators.
const (
	OpEqual          = "=="
	OpNotEqual       = "!="
	OpLess           = "<"
	OpLessOrEqual    = "<="
	OpGreater        = ">"
	OpGreaterOrEqual = ">="
)

// Direction is the sort direction of an OrderBy clause.
type Direction int

const (
	Asc Direction = iota
	Desc
)

type Filter struct {
	Path  string
	Op    string
	Value interface{}
}

type Order struct {
	Path string
	Dir  Direction
}

// Query selects documents from one collection. Build it with From.
type Query struct {
	Collection string
	Filters    []Filter
	Orders     []Order
	Limit      int
}

// From starts a query over the collection.
func From(collection string) Query {
	return Query{Collection: collection}
}

func (q Query) Where(path, op string, value interface{}) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Path: path, Op: op, Value: value})
	return q
}

func (q Query) OrderBy(path string, dir Direction) Query {
	q.Orders = append(append([]Order(nil), q.Orders...), Order{Path: path, Dir: dir})
	return q
}

// Take limits the number of documents returned. Zero means no limit.
func (q Query) Take(n int) Query {
	q.Limit = n
	return q
}
