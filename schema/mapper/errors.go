package mapper

import (
	"errors"
	"fmt"
)

var (
	// ErrTypeMapInvalid aborts schema construction.
	ErrTypeMapInvalid = errors.New("invalid type mapping")
	// ErrTypeMap invalidates the type being built; the reducer prunes it.
	ErrTypeMap = errors.New("type mapping failed")

	ErrNoReturnType         = errors.New("did not specify a return type")
	ErrUnmappable           = errors.New("cannot be mapped to a GraphQL type")
	ErrNotNullable          = errors.New("mapped to nothing but was not declared nullable")
	ErrNotInput             = errors.New("is not a valid input type")
	ErrNotOutput            = errors.New("is not a valid output type")
	ErrNoFields             = errors.New("has no fields")
	ErrInhomogeneousLiteral = errors.New("literal values must share one type")
	ErrUnionMember          = errors.New("union members must be object types")
	ErrRecursiveType        = errors.New("type refers to itself outside of a field")
	ErrPropertyArgs         = errors.New("property cannot have multiple arguments")
	ErrSignature            = errors.New("implementation does not match the declared parameters")
	ErrEnumValue            = errors.New("value is not a member of the enum")
	ErrRecordField          = errors.New("record field is missing on the value")
)

// TypeMapError reports a mapping failure on a field.
type TypeMapError struct {
	Type  string
	Field string
	Err   error
}

func (e *TypeMapError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("type '%s': %v", e.Type, e.Err)
	}
	return fmt.Sprintf("field '%s.%s': %v", e.Type, e.Field, e.Err)
}

func (e *TypeMapError) Unwrap() error {
	return e.Err
}

// fatal marks err as aborting schema construction.
func fatal(typeName, field string, err error) error {
	return &TypeMapError{Type: typeName, Field: field, Err: fmt.Errorf("%w: %w", ErrTypeMapInvalid, err)}
}

// recoverable marks err as invalidating the owning type only. Fatal
// errors pass through unchanged.
func recoverable(typeName, field string, err error) error {
	if errors.Is(err, ErrTypeMapInvalid) || errors.Is(err, ErrTypeMap) {
		return err
	}
	return &TypeMapError{Type: typeName, Field: field, Err: fmt.Errorf("%w: %w", ErrTypeMap, err)}
}

// IsFatal reports whether err must abort schema construction.
func IsFatal(err error) bool {
	return errors.Is(err, ErrTypeMapInvalid)
}
