package present

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/thehowl/difftree/pkg/storage"
)

// DirWriter implements PageWriter by creating "<mainname>-<page>.html"
// files inside Dir, the shape diffoscope's own --html-dir output takes.
// Kept for parity with the reference CLI tool, though diffy's web
// service uses StorageWriter instead.
type DirWriter struct {
	Dir string
}

var _ PageWriter = DirWriter{}

func (d DirWriter) Create(mainname string, page int) (io.WriteCloser, error) {
	return os.Create(filepath.Join(d.Dir, fmt.Sprintf("%s-%d.html", mainname, page)))
}

// StorageWriter implements PageWriter by buffering each child page in
// memory and Put-ing it into a storage.Storage once closed, keyed
// "<ReportID>/<mainname>-<page>.html". This is how the web server
// serves rotated pages through the same storage.Storage every uploaded
// archive already lives in, rather than writing to a local directory.
type StorageWriter struct {
	Ctx      context.Context
	Store    storage.Storage
	ReportID string
}

var _ PageWriter = StorageWriter{}

func (s StorageWriter) Create(mainname string, page int) (io.WriteCloser, error) {
	key := fmt.Sprintf("%s/%s-%d.html", s.ReportID, mainname, page)
	return &storagePage{ctx: s.Ctx, store: s.Store, key: key}, nil
}

type storagePage struct {
	ctx   context.Context
	store storage.Storage
	key   string
	buf   bytes.Buffer
}

func (p *storagePage) Write(b []byte) (int, error) { return p.buf.Write(b) }

func (p *storagePage) Close() error {
	return p.store.Put(p.ctx, p.key, p.buf.Bytes())
}
