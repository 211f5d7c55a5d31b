package helpers

import (
	"unicode/utf8"

	"github.com/launchdarkly/go-test-helpers/v2/jsonhelpers"
)

// AsJSONString renders any value as JSON for log output.
func AsJSONString(value interface{}) string { return jsonhelpers.ToJSONString(value) }

// Abbreviate shortens a response body for log output. It never cuts a multi-byte character in
// half, so the result may be a few bytes shorter than max.
func Abbreviate(body []byte, max int) string {
	if len(body) <= max {
		return string(body)
	}
	end := max
	for end > 0 && !utf8.RuneStart(body[end]) {
		end--
	}
	return string(body[:end]) + "..."
}
