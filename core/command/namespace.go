package command

import (
	"errors"
	"strings"
)

var (
	// ErrEmptyDB indicates that a namespace was constructed with an empty database name.
	ErrEmptyDB = errors.New("database name can not be empty")
	// ErrEmptyCollection indicates that a namespace was constructed with an empty collection name.
	ErrEmptyCollection = errors.New("collection name can not be empty")
	// ErrInvalidDB indicates that the database name contains an illegal character.
	ErrInvalidDB = errors.New("database name can not contain '.' or ' '")
)

// Namespace encapsulates a database and collection name, which together
// uniquely identify a collection within a cluster.
type Namespace struct {
	DB         string
	Collection string
}

// NewNamespace returns a new Namespace for the given database and collection.
func NewNamespace(db, collection string) Namespace {
	return Namespace{DB: db, Collection: collection}
}

// ParseNamespace parses a namespace string into a Namespace.
//
// The namespace string must contain at least one ".", the first of which is
// the separator between the database and collection names.
func ParseNamespace(name string) Namespace {
	index := strings.Index(name, ".")
	if index == -1 {
		return Namespace{}
	}
	return Namespace{DB: name[:index], Collection: name[index+1:]}
}

// Validate checks that the namespace is usable. It is called during operation
// construction so an invalid namespace fails before any I/O.
func (ns Namespace) Validate() error {
	if ns.DB == "" {
		return ErrEmptyDB
	}
	if ns.Collection == "" {
		return ErrEmptyCollection
	}
	if strings.ContainsAny(ns.DB, ". ") {
		return ErrInvalidDB
	}
	return nil
}

// FullName returns the full namespace string, which is the result of joining
// the database name and the collection name with a "." character.
func (ns Namespace) FullName() string {
	return ns.DB + "." + ns.Collection
}
