package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/arloliu/ftdcunwind/record"
	"github.com/arloliu/ftdcunwind/unwind"
)

// ErrEmptyOptionFile is returned for an option file without a document.
var ErrEmptyOptionFile = errors.New("option file holds no document")

// loadOptionFile reads a YAML option document. Mapping key order is kept and
// unquoted timestamps become dates. A document of the form
// {$ftdcUnwind: {...}} is unwrapped to its stage options.
func loadOptionFile(fs afero.Fs, path string) (record.Value, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return record.Value{}, fmt.Errorf("failed to read option file: %w", err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return record.Value{}, fmt.Errorf("failed to parse option file %s: %w", path, err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return record.Value{}, fmt.Errorf("%s: %w", path, ErrEmptyOptionFile)
	}

	v, err := fromYAML(root.Content[0])
	if err != nil {
		return record.Value{}, fmt.Errorf("%s: %w", path, err)
	}

	if doc, ok := v.Document(); ok && doc.Len() == 1 && doc.Field(0).Name == unwind.StageName {
		return doc.Field(0).Value, nil
	}

	return v, nil
}

func fromYAML(n *yaml.Node) (record.Value, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return fromYAML(n.Alias)
	case yaml.MappingNode:
		fields := make([]record.Field, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := fromYAML(n.Content[i+1])
			if err != nil {
				return record.Value{}, err
			}
			fields = append(fields, record.F(n.Content[i].Value, v))
		}

		return record.Doc(record.NewDocument(fields...)), nil
	case yaml.SequenceNode:
		vs := make([]record.Value, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := fromYAML(c)
			if err != nil {
				return record.Value{}, err
			}
			vs = append(vs, v)
		}

		return record.Array(vs...), nil
	case yaml.ScalarNode:
		return scalarFromYAML(n)
	default:
		return record.Value{}, fmt.Errorf("line %d: unsupported YAML node", n.Line)
	}
}

func scalarFromYAML(n *yaml.Node) (record.Value, error) {
	var err error

	switch n.ShortTag() {
	case "!!null":
		return record.Null(), nil
	case "!!bool":
		var b bool
		if err = n.Decode(&b); err == nil {
			return record.Bool(b), nil
		}
	case "!!int":
		var i int64
		if err = n.Decode(&i); err == nil {
			return record.Int64(i), nil
		}
	case "!!float":
		var f float64
		if err = n.Decode(&f); err == nil {
			return record.Float64(f), nil
		}
	case "!!timestamp":
		var t time.Time
		if err = n.Decode(&t); err == nil {
			return record.Time(t), nil
		}
	case "!!binary":
		var s string
		if err = n.Decode(&s); err == nil {
			return record.Binary([]byte(s)), nil
		}
	default:
		return record.String(n.Value), nil
	}

	return record.Value{}, fmt.Errorf("line %d: %w", n.Line, err)
}
