package pipeline

import (
	"context"
	"io"
	"strconv"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
)

// openedFile pairs a grailbio/base/file.File with the io.Reader the
// parsers consume, so callers can defer a single close.
type openedFile struct {
	ctx    context.Context
	path   string
	f      file.File
	reader io.Reader
}

func openFile(ctx context.Context, path string) (*openedFile, error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "open", path)
	}
	return &openedFile{ctx: ctx, path: path, f: f, reader: f.Reader(ctx)}, nil
}

func (o *openedFile) closeAndLog() {
	if err := o.f.Close(o.ctx); err != nil {
		log.Error.Printf("closing %s: %v", o.path, err)
	}
}

func itoa(i int) string {
	return strconv.Itoa(i)
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
