package category

// Record is a node of the category tree. Parent 0 marks a root category.
type Record struct {
	Key    int64
	Name   string
	Parent int64
}

func New(name string, parent int64) *Record {
	return &Record{Name: name, Parent: parent}
}

func (r *Record) PK() int64 {
	return r.Key
}

func (r *Record) SetPK(key int64) {
	r.Key = key
}

func (r *Record) IsRoot() bool {
	return r.Parent == 0
}
