package data

import (
	"embed"
	"fmt"
	"path"
	"strings"
)

//go:embed data-files
var dataFilesRoot embed.FS

const (
	dataBasePath = "data-files"
	payloadsDir  = "payloads"
)

// SourceInfo is the content of one data file after constants and parameters have been expanded.
// A file with a "parameters" list produces one SourceInfo per parameter set.
type SourceInfo struct {
	FilePath string
	BaseName string
	Params   Substitutions
	Data     []byte
}

// ParseInto parses the data as JSON or YAML.
func (s SourceInfo) ParseInto(target interface{}) error {
	if err := ParseJSONOrYAML(s.Data, target); err != nil {
		return fmt.Errorf("error parsing %q %s: %w", s.BaseName, s.Params, err)
	}
	return nil
}

// LoadDataFile reads an embedded data file and expands it. The path is relative to
// data/data-files.
func LoadDataFile(filePath string) ([]SourceInfo, error) {
	data, err := dataFilesRoot.ReadFile(dataBasePath + "/" + filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", filePath, err)
	}
	sources, err := expandParameters(data)
	if err != nil {
		return nil, fmt.Errorf("error reading %q: %w", filePath, err)
	}
	baseName := path.Base(filePath)
	for i := range sources {
		sources[i].FilePath = filePath
		sources[i].BaseName = baseName
	}
	return sources, nil
}

// LoadAllDataFiles reads every file in an embedded directory. The path is relative to
// data/data-files.
func LoadAllDataFiles(dirPath string) ([]SourceInfo, error) {
	files, err := dataFilesRoot.ReadDir(dataBasePath + "/" + dirPath)
	if err != nil {
		return nil, err
	}
	var ret []SourceInfo
	for _, file := range files {
		sources, err := LoadDataFile(dirPath + "/" + file.Name())
		if err != nil {
			return nil, err
		}
		ret = append(ret, sources...)
	}
	return ret, nil
}

// PayloadNames returns the names of all embedded payload files, without the extension.
func PayloadNames() ([]string, error) {
	files, err := dataFilesRoot.ReadDir(dataBasePath + "/" + payloadsDir)
	if err != nil {
		return nil, err
	}
	ret := make([]string, 0, len(files))
	for _, file := range files {
		ret = append(ret, strings.TrimSuffix(file.Name(), path.Ext(file.Name())))
	}
	return ret, nil
}
