package data

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Substitutions maps placeholder names to values. In a data file, "<name>" is replaced by the
// value: a placeholder that is the entire quoted string is replaced by the value's JSON
// representation, so it can produce a number or null, and a placeholder inside a longer string
// is replaced by the value's text.
type Substitutions map[string]ldvalue.Value

var unresolvedPlaceholder = regexp.MustCompile(`<[A-Za-z][A-Za-z0-9_]*>`)

// expandParameters applies a file's "constants", and produces one copy of the file for each
// entry of its "parameters" list, if any.
func expandParameters(original []byte) ([]SourceInfo, error) {
	var header struct {
		Constants  Substitutions     `json:"constants"`
		Parameters []json.RawMessage `json:"parameters"`
	}
	if err := ParseJSONOrYAML(original, &header); err != nil {
		return nil, err
	}
	withConstants := header.Constants.apply(original)
	paramSets, err := parameterPermutations(header.Parameters)
	if err != nil {
		return nil, err
	}
	if len(paramSets) == 0 {
		return []SourceInfo{{Data: withConstants}}, nil
	}
	ret := make([]SourceInfo, 0, len(paramSets))
	for _, params := range paramSets {
		// constants are applied again in case a parameter value refers to one
		data := header.Constants.apply(params.apply(withConstants))
		ret = append(ret, SourceInfo{Data: data, Params: params})
	}
	return ret, nil
}

// parameterPermutations accepts either a list of objects, giving one parameter set per object,
// or a list of lists of objects, giving every combination of one object from each list.
func parameterPermutations(raw []json.RawMessage) ([]Substitutions, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	allData, _ := json.Marshal(raw)
	switch ldvalue.Parse(raw[0]).Type() {
	case ldvalue.ObjectType:
		var list []Substitutions
		err := json.Unmarshal(allData, &list)
		return list, err
	case ldvalue.ArrayType:
		var lists [][]Substitutions
		if err := json.Unmarshal(allData, &lists); err != nil {
			return nil, err
		}
		return combine(lists), nil
	default:
		return nil, errors.New("unable to parse parameters - must be an array of objects or an array of arrays")
	}
}

func combine(lists [][]Substitutions) []Substitutions {
	result := []Substitutions{{}}
	for _, list := range lists {
		var next []Substitutions
		for _, prefix := range result {
			for _, set := range list {
				merged := make(Substitutions, len(prefix)+len(set))
				maps.Copy(merged, prefix)
				maps.Copy(merged, set)
				next = append(next, merged)
			}
		}
		result = next
	}
	return result
}

func (s Substitutions) apply(data []byte) []byte {
	str := string(data)
	// json.Marshal escapes angle brackets
	str = strings.ReplaceAll(str, `\u003c`, "<")
	str = strings.ReplaceAll(str, `\u003e`, ">")
	for name, value := range s {
		asJSON := value.JSONString()
		str = strings.ReplaceAll(str, `"<`+name+`>"`, asJSON)
		asText := asJSON
		if value.IsString() {
			asText = value.StringValue()
		}
		str = strings.ReplaceAll(str, "<"+name+">", asText)
	}
	return []byte(str)
}

// String formats the substitutions as "(a=1,b=2)" in name order, or "" if there are none.
func (s Substitutions) String() string {
	if len(s) == 0 {
		return ""
	}
	names := maps.Keys(s)
	slices.Sort(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+"="+s[name].JSONString())
	}
	return "(" + strings.Join(parts, ",") + ")"
}

func findUnresolved(data []byte) []string {
	return unresolvedPlaceholder.FindAllString(string(data), -1)
}
