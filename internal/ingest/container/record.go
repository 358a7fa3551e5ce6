package container

// Record is a tolerant field accessor over one decoded container. Every
// getter returns element 0 of the named dataset coerced to the requested
// scalar, or the caller's default when the group or field is absent, the
// array is empty, or the element type does not coerce. No getter errors for
// a missing field; that tolerance is how sparse source records survive.
type Record struct {
	file *File
}

// NewRecord wraps a decoded container.
func NewRecord(f *File) *Record {
	return &Record{file: f}
}

func (r *Record) dataset(group, field string) *Dataset {
	if r == nil || r.file == nil {
		return nil
	}
	return r.file.Group(group).Dataset(field)
}

// String returns the first string element at group/field, or def.
func (r *Record) String(group, field, def string) string {
	ds := r.dataset(group, field)
	if ds == nil || ds.Type != TypeString || len(ds.Strings) == 0 {
		return def
	}
	return ds.Strings[0]
}

// Float returns the first numeric element at group/field as float64, or def.
// Integer datasets coerce.
func (r *Record) Float(group, field string, def float64) float64 {
	ds := r.dataset(group, field)
	if ds == nil {
		return def
	}
	switch ds.Type {
	case TypeFloat64:
		if len(ds.Floats) == 0 {
			return def
		}
		return ds.Floats[0]
	case TypeInt64:
		if len(ds.Ints) == 0 {
			return def
		}
		return float64(ds.Ints[0])
	default:
		return def
	}
}

// Int returns the first numeric element at group/field as int64, or def.
// Float datasets coerce by truncation only when the value is integral.
func (r *Record) Int(group, field string, def int64) int64 {
	ds := r.dataset(group, field)
	if ds == nil {
		return def
	}
	switch ds.Type {
	case TypeInt64:
		if len(ds.Ints) == 0 {
			return def
		}
		return ds.Ints[0]
	case TypeFloat64:
		if len(ds.Floats) == 0 {
			return def
		}
		v := ds.Floats[0]
		if v != float64(int64(v)) {
			return def
		}
		return int64(v)
	default:
		return def
	}
}

// Has reports whether group/field holds at least one element.
func (r *Record) Has(group, field string) bool {
	ds := r.dataset(group, field)
	if ds == nil {
		return false
	}
	switch ds.Type {
	case TypeFloat64:
		return len(ds.Floats) > 0
	case TypeInt64:
		return len(ds.Ints) > 0
	case TypeString:
		return len(ds.Strings) > 0
	}
	return false
}
