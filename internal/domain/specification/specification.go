package specification

import (
	"strings"
)

// Specification is a query predicate that renders to a SQL WHERE clause.
type Specification interface {
	ToSQL() (string, []interface{})
}

type fieldSpec struct {
	sql  string
	args []interface{}
}

func (s fieldSpec) ToSQL() (string, []interface{}) {
	return s.sql, s.args
}

// Equals matches column = value.
func Equals(column string, value interface{}) Specification {
	return fieldSpec{sql: column + " = ?", args: []interface{}{value}}
}

// EqualFold matches column = value ignoring case.
func EqualFold(column, value string) Specification {
	return fieldSpec{sql: "LOWER(" + column + ") = ?", args: []interface{}{strings.ToLower(value)}}
}

// In matches column IN values. An empty values list matches nothing.
func In[V any](column string, values []V) Specification {
	if len(values) == 0 {
		return fieldSpec{sql: "1 = 0"}
	}
	args := make([]interface{}, len(values))
	for i, v := range values {
		args[i] = v
	}
	return fieldSpec{sql: column + " IN ?", args: []interface{}{args}}
}

// LessThan matches column < value.
func LessThan(column string, value interface{}) Specification {
	return fieldSpec{sql: column + " < ?", args: []interface{}{value}}
}

type compositeSpec struct {
	op    string
	specs []Specification
}

func (s compositeSpec) ToSQL() (string, []interface{}) {
	parts := make([]string, 0, len(s.specs))
	var params []interface{}
	for _, spec := range s.specs {
		sql, args := spec.ToSQL()
		if sql == "" {
			continue
		}
		parts = append(parts, sql)
		params = append(params, args...)
	}
	switch len(parts) {
	case 0:
		return "", nil
	case 1:
		return parts[0], params
	}
	return "(" + strings.Join(parts, " "+s.op+" ") + ")", params
}

// And combines specifications with AND.
func And(specs ...Specification) Specification {
	return compositeSpec{op: "AND", specs: specs}
}
