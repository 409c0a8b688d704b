package config

import "fmt"

// Section is one flat configuration section: string keys to string values.
// Sections feed the explicit options binder, so values are stringified here
// and interpreted field-by-field at binding time.
type Section map[string]string

// Get returns the value for key, or "" when absent.
func (s Section) Get(key string) string {
	return s[key]
}

// Has reports whether key is present.
func (s Section) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// parseSections converts the raw `enrichers` config value (a YAML list of
// flat mappings) into sections, preserving file order. Malformed entries
// are skipped rather than failing the whole load.
func parseSections(raw interface{}) []Section {
	list, ok := raw.([]interface{})
	if !ok {
		return nil
	}

	sections := make([]Section, 0, len(list))
	for _, item := range list {
		section := toSection(item)
		if section != nil {
			sections = append(sections, section)
		}
	}
	if len(sections) == 0 {
		return nil
	}
	return sections
}

func toSection(item interface{}) Section {
	switch m := item.(type) {
	case map[string]interface{}:
		section := make(Section, len(m))
		for k, v := range m {
			section[k] = stringifyValue(v)
		}
		return section
	case map[interface{}]interface{}:
		section := make(Section, len(m))
		for k, v := range m {
			section[fmt.Sprintf("%v", k)] = stringifyValue(v)
		}
		return section
	default:
		return nil
	}
}

func stringifyValue(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
