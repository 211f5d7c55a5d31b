package data

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/employee-demo/employee-contract-tests/apidef"
)

// TimestampVar is the name of the placeholder that is replaced with the run token.
const TimestampVar = "timestamp"

// Payload is a request body read from data-files/payloads.
type Payload struct {
	Name        string
	Description string
	Params      Substitutions
	Body        json.RawMessage
}

type payloadFile struct {
	Description string          `json:"description"`
	Payload     json.RawMessage `json:"payload"`
}

// Label describes the payload in test names, for instance "empty" or "(label=blank)".
func (p Payload) Label() string {
	if label, ok := p.Params["label"]; ok && label.IsString() {
		return label.StringValue()
	}
	if s := p.Params.String(); s != "" {
		return s
	}
	return p.Name
}

// EmployeeParams decodes the body. A null or missing email becomes an undefined email.
func (p Payload) EmployeeParams() (apidef.EmployeeParams, error) {
	var params apidef.EmployeeParams
	if err := params.UnmarshalJSON(p.Body); err != nil {
		return apidef.EmployeeParams{}, fmt.Errorf("payload %q is not an employee: %w", p.Name, err)
	}
	return params, nil
}

// LoadPayloads reads a payload file by name and returns one Payload per parameter set. Runtime
// variables such as TimestampVar are substituted after the file's own constants and parameters;
// it is an error for any placeholder to remain.
func LoadPayloads(name string, vars Substitutions) ([]Payload, error) {
	sources, err := LoadDataFile(payloadsDir + "/" + name + ".yaml")
	if err != nil {
		return nil, err
	}
	ret := make([]Payload, 0, len(sources))
	for _, source := range sources {
		source.Data = vars.apply(source.Data)
		if unresolved := findUnresolved(source.Data); len(unresolved) != 0 {
			return nil, fmt.Errorf("payload %q %s has unresolved placeholders: %s",
				name, source.Params, strings.Join(unresolved, ", "))
		}
		var file payloadFile
		if err := source.ParseInto(&file); err != nil {
			return nil, err
		}
		if len(file.Payload) == 0 {
			return nil, fmt.Errorf("payload file %q has no \"payload\" property", name)
		}
		ret = append(ret, Payload{
			Name:        name,
			Description: file.Description,
			Params:      source.Params,
			Body:        file.Payload,
		})
	}
	return ret, nil
}

// LoadPayload is like LoadPayloads but requires the file to produce exactly one payload.
func LoadPayload(name string, vars Substitutions) (Payload, error) {
	payloads, err := LoadPayloads(name, vars)
	if err != nil {
		return Payload{}, err
	}
	if len(payloads) != 1 {
		return Payload{}, fmt.Errorf("payload file %q is parameterized; expected a single payload", name)
	}
	return payloads[0], nil
}

// LoadEmployeeParams is a shortcut for loading a single payload and decoding it.
func LoadEmployeeParams(name string, vars Substitutions) (apidef.EmployeeParams, error) {
	p, err := LoadPayload(name, vars)
	if err != nil {
		return apidef.EmployeeParams{}, err
	}
	return p.EmployeeParams()
}
