package unwind

import (
	"strings"
	"time"

	"github.com/arloliu/ftdcunwind/errs"
	"github.com/arloliu/ftdcunwind/record"
)

// StageName is the name the option documents are registered under.
const StageName = "$ftdcUnwind"

// Option document field names.
const (
	OptionPath            = "path"
	OptionExcludeMetadata = "excludeMetadata"
	OptionExcludeMissing  = "excludeMissing"
	OptionStart           = "start"
	OptionEnd             = "end"
)

// StreamSpec configures the path-scoped variant.
type StreamSpec struct {
	// Path locates the embedded chunk. The zero Path means the whole record
	// is the chunk.
	Path record.Path
	// ExcludeMetadata suppresses metadata chunks instead of emitting them.
	ExcludeMetadata bool
	// ExcludeMissing suppresses records without a usable chunk instead of
	// passing them through.
	ExcludeMissing bool
}

// ParseStreamSpec validates an option document of the form
//
//	{path: "$a.b", excludeMetadata: <bool>, excludeMissing: <bool>}
//
// where every field is optional.
func ParseStreamSpec(v record.Value) (StreamSpec, error) {
	doc, ok := v.Document()
	if !ok {
		return StreamSpec{}, errs.Newf(errs.CodeBadSpec,
			"expected an object as specification for %s stage, got %s", StageName, v.Kind())
	}

	var (
		spec     StreamSpec
		prefixed string
		havePath bool
	)

	for name, val := range doc.All() {
		switch name {
		case OptionPath:
			s, ok := val.Str()
			if !ok {
				return StreamSpec{}, errs.Newf(errs.CodeBadPathType,
					"expected a string as the path for %s stage, got %s", StageName, val.Kind())
			}
			prefixed, havePath = s, true
		case OptionExcludeMetadata:
			b, ok := val.Bool()
			if !ok {
				return StreamSpec{}, errs.Newf(errs.CodeBadExcludeMetadata,
					"expected a boolean for the %s option to %s stage, got %s", OptionExcludeMetadata, StageName, val.Kind())
			}
			spec.ExcludeMetadata = b
		case OptionExcludeMissing:
			b, ok := val.Bool()
			if !ok {
				return StreamSpec{}, errs.Newf(errs.CodeBadExcludeMissing,
					"expected a boolean for the %s option to %s stage, got %s", OptionExcludeMissing, StageName, val.Kind())
			}
			spec.ExcludeMissing = b
		default:
			return StreamSpec{}, errs.Newf(errs.CodeUnknownOption, "unrecognized option to %s stage: %s", StageName, name)
		}
	}

	if havePath {
		p, err := parsePrefixedPath(prefixed)
		if err != nil {
			return StreamSpec{}, err
		}
		spec.Path = p
	}

	return spec, nil
}

func parsePrefixedPath(s string) (record.Path, error) {
	rest, ok := strings.CutPrefix(s, "$")
	if !ok {
		return record.Path{}, errs.Newf(errs.CodeBadPathPrefix,
			"path option to %s stage should be prefixed with a '$': %s", StageName, s)
	}

	p, err := record.ParsePath(rest)
	if err != nil {
		return record.Path{}, errs.Wrap(errs.CodeBadPathPrefix, err, "path option to "+StageName+" stage")
	}

	return p, nil
}

// Document renders the spec as an option document. False booleans and an
// unset path are omitted.
func (s StreamSpec) Document() record.Document {
	var fields []record.Field
	if !s.Path.IsZero() {
		fields = append(fields, record.F(OptionPath, record.String("$"+s.Path.String())))
	}
	if s.ExcludeMetadata {
		fields = append(fields, record.F(OptionExcludeMetadata, record.Bool(true)))
	}
	if s.ExcludeMissing {
		fields = append(fields, record.F(OptionExcludeMissing, record.Bool(true)))
	}

	return record.NewDocument(fields...)
}

// Serialize returns {StageName: Document()}.
func (s StreamSpec) Serialize() record.Document {
	return record.NewDocument(record.F(StageName, record.Doc(s.Document())))
}

// ModifiedPaths returns the fields the stage rewrites.
func (s StreamSpec) ModifiedPaths() []string {
	if s.Path.IsZero() {
		return nil
	}

	return []string{s.Path.String()}
}

// Dependencies returns the fields the stage reads.
func (s StreamSpec) Dependencies() []string {
	return s.ModifiedPaths()
}

// WindowSpec configures the file-scoped variant.
type WindowSpec struct {
	Window          TimeWindow
	ExcludeMetadata bool
}

// ParseWindowSpec validates an option document of the form
//
//	{start: <date>, end: <date>, excludeMetadata: <bool>}
//
// with start and end required and 0 < end-start <= maxWindow. A non-positive
// maxWindow means DefaultMaxWindow.
func ParseWindowSpec(v record.Value, maxWindow time.Duration) (WindowSpec, error) {
	doc, ok := v.Document()
	if !ok {
		return WindowSpec{}, errs.Newf(errs.CodeBadSpec,
			"expected an object as specification for %s stage, got %s", StageName, v.Kind())
	}

	var (
		spec       WindowSpec
		start, end time.Time
		haveStart  bool
		haveEnd    bool
	)

	for name, val := range doc.All() {
		switch name {
		case OptionStart:
			if start, ok = val.Time(); !ok {
				return WindowSpec{}, errs.Newf(errs.CodeBadWindowBound,
					"expected a date for the %s option to %s stage, got %s", OptionStart, StageName, val.Kind())
			}
			haveStart = true
		case OptionEnd:
			if end, ok = val.Time(); !ok {
				return WindowSpec{}, errs.Newf(errs.CodeBadWindowBound,
					"expected a date for the %s option to %s stage, got %s", OptionEnd, StageName, val.Kind())
			}
			haveEnd = true
		case OptionExcludeMetadata:
			b, ok := val.Bool()
			if !ok {
				return WindowSpec{}, errs.Newf(errs.CodeBadExcludeMetadata,
					"expected a boolean for the %s option to %s stage, got %s", OptionExcludeMetadata, StageName, val.Kind())
			}
			spec.ExcludeMetadata = b
		default:
			return WindowSpec{}, errs.Newf(errs.CodeUnknownOption, "unrecognized option to %s stage: %s", StageName, name)
		}
	}

	if !haveStart || !haveEnd {
		return WindowSpec{}, errs.Newf(errs.CodeBadWindowBound, "%s stage requires both %s and %s", StageName, OptionStart, OptionEnd)
	}

	w, err := NewTimeWindow(start, end, maxWindow)
	if err != nil {
		return WindowSpec{}, err
	}
	spec.Window = w

	return spec, nil
}

// Document renders the spec as an option document.
func (s WindowSpec) Document() record.Document {
	fields := []record.Field{
		record.F(OptionStart, record.Time(s.Window.Start)),
		record.F(OptionEnd, record.Time(s.Window.End)),
	}
	if s.ExcludeMetadata {
		fields = append(fields, record.F(OptionExcludeMetadata, record.Bool(true)))
	}

	return record.NewDocument(fields...)
}

// Serialize returns {StageName: Document()}.
func (s WindowSpec) Serialize() record.Document {
	return record.NewDocument(record.F(StageName, record.Doc(s.Document())))
}
