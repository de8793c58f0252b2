package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/calvinalkan/quickkv/pkg/quickdb"
	"github.com/calvinalkan/quickkv/pkg/value"
)

// parseArg turns a command-line token into a value. Valid JSON is taken as
// JSON, anything else as a plain string, so `set name ada` and
// `set name '"ada"'` store the same thing.
func parseArg(s string) value.Value {
	v, err := value.Parse([]byte(s))
	if err != nil {
		return value.String(s)
	}

	return v
}

func parseNumber(s string) (float64, error) {
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", quickdb.ErrInvalidArgument, s)
	}

	return n, nil
}

// formatValue renders v for output. With raw set, a string is printed
// without quotes.
func formatValue(v value.Value, raw, pretty bool) (string, error) {
	if raw {
		if s, ok := v.Text(); ok {
			return s, nil
		}
	}

	if !pretty || (v.Kind() != value.KindArray && v.Kind() != value.KindObject) {
		return v.String(), nil
	}

	var buf bytes.Buffer

	err := json.Indent(&buf, []byte(v.String()), "", "  ")
	if err != nil {
		return "", err
	}

	return buf.String(), nil
}

// rowsYAML renders rows as a YAML mapping from id to value, keeping row
// order and object member order.
func rowsYAML(rows []quickdb.Row) ([]byte, error) {
	doc := &yaml.Node{Kind: yaml.MappingNode}

	for _, r := range rows {
		doc.Content = append(doc.Content, scalarNode(yaml.Node{Tag: "!!str", Value: r.ID}), yamlNode(r.Value))
	}

	var buf bytes.Buffer

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)

	err := enc.Encode(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding yaml: %w", err)
	}

	err = enc.Close()
	if err != nil {
		return nil, fmt.Errorf("encoding yaml: %w", err)
	}

	return buf.Bytes(), nil
}

func yamlNode(v value.Value) *yaml.Node {
	switch v.Kind() {
	case value.KindNull:
		return scalarNode(yaml.Node{Tag: "!!null", Value: "null"})
	case value.KindBool:
		b, _ := v.Bool()

		return scalarNode(yaml.Node{Tag: "!!bool", Value: strconv.FormatBool(b)})
	case value.KindNumber:
		return scalarNode(yaml.Node{Tag: yamlNumberTag(v), Value: v.String()})
	case value.KindString:
		s, _ := v.Text()

		return scalarNode(yaml.Node{Tag: "!!str", Value: s})
	case value.KindArray:
		items, _ := v.Items()

		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range items {
			n.Content = append(n.Content, yamlNode(item))
		}

		return n
	case value.KindObject:
		members, _ := v.Members()

		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, m := range members {
			n.Content = append(n.Content, scalarNode(yaml.Node{Tag: "!!str", Value: m.Key}), yamlNode(m.Value))
		}

		return n
	default:
		return scalarNode(yaml.Node{Tag: "!!null", Value: "null"})
	}
}

func yamlNumberTag(v value.Value) string {
	if strings.ContainsAny(v.String(), ".eE") {
		return "!!float"
	}

	return "!!int"
}

func scalarNode(n yaml.Node) *yaml.Node {
	n.Kind = yaml.ScalarNode

	return &n
}
