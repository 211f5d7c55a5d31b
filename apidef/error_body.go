package apidef

import (
	"github.com/launchdarkly/go-jsonstream/v3/jreader"

	o "github.com/employee-demo/employee-contract-tests/framework/opt"
)

// ErrorBody is the JSON body of an error response, in the shape produced by Spring Boot's
// default error handler. Only Error is guaranteed to be present.
type ErrorBody struct {
	Status  o.Maybe[int]
	Error   string
	Message string
	Path    string
}

// ParseErrorBody parses an error response. Properties that are missing or null are left empty,
// and any others, such as the timestamp, are ignored.
func ParseErrorBody(data []byte) (ErrorBody, error) {
	var b ErrorBody
	r := jreader.NewReader(data)
	for obj := r.Object(); obj.Next(); {
		switch string(obj.Name()) {
		case "status":
			if status, ok := r.IntOrNull(); ok {
				b.Status = o.Some(status)
			}
		case "error":
			b.Error, _ = r.StringOrNull()
		case "message":
			b.Message, _ = r.StringOrNull()
		case "path":
			b.Path, _ = r.StringOrNull()
		default:
			_ = r.SkipValue()
		}
	}
	return b, r.Error()
}
