package scalars

import (
	"encoding/base64"
	"time"

	"github.com/google/uuid"
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DateLayout is the wire format of the Date scalar.
const DateLayout = "2006-01-02"

// Date is a calendar date without a time of day.
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

var UUID = graphql.NewScalar(graphql.ScalarConfig{
	Name:        "UUID",
	Description: "A universally unique identifier.",
	Serialize: func(value interface{}) interface{} {
		switch v := value.(type) {
		case uuid.UUID:
			return v.String()
		case *uuid.UUID:
			if v == nil {
				return nil
			}
			return v.String()
		case string:
			return v
		default:
			return nil
		}
	},
	ParseValue: func(value interface{}) interface{} {
		if str, ok := value.(string); ok {
			id, err := uuid.Parse(str)
			if err != nil {
				return nil // to tell GraphQL that the value is invalid
			}
			return id
		}
		return nil
	},
	ParseLiteral: func(valueAST ast.Value) interface{} {
		if value, ok := valueAST.(*ast.StringValue); ok {
			id, err := uuid.Parse(value.Value)
			if err != nil {
				return nil
			}
			return id
		}
		return nil
	},
})

var Bytes = graphql.NewScalar(graphql.ScalarConfig{
	Name:        "Bytes",
	Description: "A base64 encoded byte string.",
	Serialize: func(value interface{}) interface{} {
		switch v := value.(type) {
		case []byte:
			return base64.StdEncoding.EncodeToString(v)
		case string:
			return base64.StdEncoding.EncodeToString([]byte(v))
		default:
			return nil
		}
	},
	ParseValue: func(value interface{}) interface{} {
		if str, ok := value.(string); ok {
			return decodeBytes(str)
		}
		return nil
	},
	ParseLiteral: func(valueAST ast.Value) interface{} {
		if value, ok := valueAST.(*ast.StringValue); ok {
			return decodeBytes(value.Value)
		}
		return nil
	},
})

func decodeBytes(str string) interface{} {
	b, err := base64.StdEncoding.DecodeString(str)
	if err != nil {
		return nil
	}
	return b
}

// JSON carries maps, untyped slices and sets as opaque JSON documents.
var JSON = graphql.NewScalar(graphql.ScalarConfig{
	Name:        "JSON",
	Description: "A JSON-serialized string representation of any object.",
	Serialize: func(value interface{}) interface{} {
		jsonBytes, err := json.Marshal(value)
		if err != nil {
			return nil
		}
		return string(jsonBytes)
	},
	ParseValue: func(value interface{}) interface{} {
		switch v := value.(type) {
		case string:
			return unmarshalJSON(v)
		case map[string]interface{}, []interface{}:
			return v
		default:
			return nil
		}
	},
	ParseLiteral: func(valueAST ast.Value) interface{} {
		if value, ok := valueAST.(*ast.StringValue); ok {
			return unmarshalJSON(value.Value)
		}
		return nil
	},
})

func unmarshalJSON(str string) interface{} {
	var result interface{}
	if err := json.Unmarshal([]byte(str), &result); err != nil {
		return nil // Invalid JSON
	}
	return result
}

var DateTime = graphql.NewScalar(graphql.ScalarConfig{
	Name:        "DateTime",
	Description: "An RFC 3339 timestamp.",
	Serialize: func(value interface{}) interface{} {
		switch v := value.(type) {
		case time.Time:
			return v.Format(time.RFC3339Nano)
		case *time.Time:
			if v == nil {
				return nil
			}
			return v.Format(time.RFC3339Nano)
		default:
			return nil
		}
	},
	ParseValue: func(value interface{}) interface{} {
		if str, ok := value.(string); ok {
			return parseTime(time.RFC3339Nano, str)
		}
		return nil
	},
	ParseLiteral: func(valueAST ast.Value) interface{} {
		if value, ok := valueAST.(*ast.StringValue); ok {
			return parseTime(time.RFC3339Nano, value.Value)
		}
		return nil
	},
})

var DateScalar = graphql.NewScalar(graphql.ScalarConfig{
	Name:        "Date",
	Description: "A calendar date in YYYY-MM-DD format.",
	Serialize: func(value interface{}) interface{} {
		switch v := value.(type) {
		case Date:
			return v.String()
		case *Date:
			if v == nil {
				return nil
			}
			return v.String()
		default:
			return nil
		}
	},
	ParseValue: func(value interface{}) interface{} {
		if str, ok := value.(string); ok {
			return parseDate(str)
		}
		return nil
	},
	ParseLiteral: func(valueAST ast.Value) interface{} {
		if value, ok := valueAST.(*ast.StringValue); ok {
			return parseDate(value.Value)
		}
		return nil
	},
})

func parseTime(layout, str string) interface{} {
	t, err := time.Parse(layout, str)
	if err != nil {
		return nil
	}
	return t
}

func parseDate(str string) interface{} {
	t, err := time.Parse(DateLayout, str)
	if err != nil {
		return nil
	}
	return Date{Time: t}
}
