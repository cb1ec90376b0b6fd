package ftdcfile

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/afero"

	"github.com/arloliu/ftdcunwind/record"
)

// ReadFile returns every chunk document stored in the file at path.
func ReadFile(fs afero.Fs, path string) ([]record.Document, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var docs []record.Document
	r := NewReader(f)
	for {
		doc, err := r.Next()
		if errors.Is(err, io.EOF) {
			return docs, nil
		}
		if err != nil {
			return docs, fmt.Errorf("%s: %w", path, err)
		}
		docs = append(docs, doc)
	}
}
