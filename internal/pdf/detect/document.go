package detect

import (
	"bytes"
	"fmt"
	"os"
	"sync"

	ledongthuc "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Document is one open PDF shared by all detection strategies. Backends are
// opened lazily; pdfcpu context operations are serialized through withContext
// because strategies run concurrently.
type Document struct {
	Path string

	mu     sync.Mutex
	ctx    *model.Context
	ctxErr error
	ctxSet bool

	readerOnce sync.Once
	reader     *ledongthuc.Reader
	readerFile *os.File
	readerErr  error
}

// OpenDocument prepares a document handle for the given path. Backends open
// on first use, so a missing file surfaces as strategy errors, not here.
func OpenDocument(path string) *Document {
	return &Document{Path: path}
}

// withContext runs fn with the pdfcpu context under the document lock.
func (d *Document) withContext(fn func(*model.Context) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.ctxSet {
		d.ctx, d.ctxErr = d.openContext()
		d.ctxSet = true
	}
	if d.ctxErr != nil {
		return d.ctxErr
	}
	return fn(d.ctx)
}

func (d *Document) openContext() (*model.Context, error) {
	data, err := os.ReadFile(d.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF file: %w", err)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}
	return ctx, nil
}

// contentReader returns the ledongthuc reader for page-content scanning.
func (d *Document) contentReader() (*ledongthuc.Reader, error) {
	d.readerOnce.Do(func() {
		d.readerFile, d.reader, d.readerErr = ledongthuc.Open(d.Path)
	})
	return d.reader, d.readerErr
}

// Close releases any opened backends.
func (d *Document) Close() error {
	d.mu.Lock()
	d.ctx = nil
	d.ctxSet = true
	d.ctxErr = fmt.Errorf("document is closed")
	d.mu.Unlock()

	if d.readerFile != nil {
		return d.readerFile.Close()
	}
	return nil
}
