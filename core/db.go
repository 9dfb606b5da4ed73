package core

// DBOrdering is one `ORDER BY` term; built from the `ordering` query param (e.g. "-created_at,period").
type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}
