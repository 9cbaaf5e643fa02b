package vfs

import (
	"fmt"

	yamlv2 "gopkg.in/yaml.v2"
	"sigs.k8s.io/yaml"
)

// LoadDocument parses a YAML or JSON filesystem document. Mappings become
// directories, strings become files. Other scalars are stored as their text
// and null becomes an empty file.
//
// Keys must decode as strings, so names such as null, true or 1 need quoting.
func LoadDocument(data []byte) (*Dir, error) {
	var decoded interface{}
	if err := yamlv2.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("invalid filesystem document: %w", err)
	}
	if decoded == nil {
		return NewDir(), nil
	}
	raw, err := stringKeys(decoded)
	if err != nil {
		return nil, fmt.Errorf("invalid filesystem document: %w", err)
	}
	return FromMap(raw)
}

// stringKeys converts a decoded YAML mapping into one keyed by strings.
func stringKeys(decoded interface{}) (map[string]interface{}, error) {
	in, ok := decoded.(map[interface{}]interface{})
	if !ok {
		return nil, fmt.Errorf("expected a mapping, got %T", decoded)
	}
	out := make(map[string]interface{}, len(in))
	for key, value := range in {
		name, ok := key.(string)
		if !ok {
			return nil, fmt.Errorf("key %v decodes as %T, quote it to use it as a name", key, key)
		}
		if child, isMap := value.(map[interface{}]interface{}); isMap {
			converted, err := stringKeys(child)
			if err != nil {
				return nil, fmt.Errorf("%s/%w", name, err)
			}
			value = converted
		}
		out[name] = value
	}
	return out, nil
}

// FromMap builds a directory tree from a decoded document.
func FromMap(raw map[string]interface{}) (*Dir, error) {
	dir := NewDir()
	for name, value := range raw {
		if name == "" || name == "." || name == ".." {
			return nil, fmt.Errorf("invalid filesystem entry name %q", name)
		}
		switch value := value.(type) {
		case map[string]interface{}:
			child, err := FromMap(value)
			if err != nil {
				return nil, fmt.Errorf("%s/%w", name, err)
			}
			dir.Put(name, child)
		case string:
			dir.Put(name, NewFile(value))
		case nil:
			dir.Put(name, NewFile(""))
		case []interface{}:
			return nil, fmt.Errorf("%s: lists are not valid filesystem entries", name)
		default:
			dir.Put(name, NewFile(fmt.Sprint(value)))
		}
	}
	return dir, nil
}

// ToMap converts a tree into its document form.
func ToMap(dir *Dir) map[string]interface{} {
	out := make(map[string]interface{}, len(dir.Children))
	for name, child := range dir.Children {
		switch child := child.(type) {
		case *Dir:
			out[name] = ToMap(child)
		case *File:
			out[name] = child.Content
		}
	}
	return out
}

// MarshalDocument renders the tree as a YAML filesystem document.
func MarshalDocument(dir *Dir) ([]byte, error) {
	return yaml.Marshal(ToMap(dir))
}
