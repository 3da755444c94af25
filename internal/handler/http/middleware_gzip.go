package http

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
)

// Pooled writers and readers keep gzip allocations off the per-request path.
var (
	gzipWriterPool = sync.Pool{New: func() any { return gzip.NewWriter(nil) }}
	gzipReaderPool = sync.Pool{New: func() any { return new(gzip.Reader) }}
)

// withGZip handles gzip on both directions of a request: bodies sent with
// Content-Encoding gzip are decompressed before the handler sees them, and
// responses are compressed when the client's Accept-Encoding allows it.
// A body that claims gzip but does not parse as gzip is rejected with 400.
func withGZip(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if strings.Contains(req.Header.Get("Content-Encoding"), "gzip") && req.Body != nil {
			reader := gzipReaderPool.Get().(*gzip.Reader)
			if err := reader.Reset(req.Body); err != nil {
				gzipReaderPool.Put(reader)
				http.Error(w, "Invalid gzip data", http.StatusBadRequest)
				return
			}

			req.Body = &wrappedReadCloser{
				Reader: reader,
				OnClose: func() {
					reader.Close()
					gzipReaderPool.Put(reader)
				},
			}
			req.Header.Del("Content-Encoding")
		}

		if !strings.Contains(req.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, req)
			return
		}

		writer := gzipWriterPool.Get().(*gzip.Writer)
		writer.Reset(w)

		next.ServeHTTP(&gzipResponseWriter{ResponseWriter: w, gzipWriter: writer}, req)

		writer.Close()
		gzipWriterPool.Put(writer)
	})
}

// wrappedReadCloser lets the pooled gzip reader be returned on Close.
type wrappedReadCloser struct {
	io.Reader
	OnClose func()
}

func (w *wrappedReadCloser) Close() error {
	if w.OnClose != nil {
		w.OnClose()
	}
	return nil
}

// gzipResponseWriter routes response bytes through the pooled gzip writer
// and stamps the Content-Encoding header before the status goes out.
type gzipResponseWriter struct {
	http.ResponseWriter
	gzipWriter *gzip.Writer
}

func (w *gzipResponseWriter) WriteHeader(statusCode int) {
	w.Header().Set("Content-Encoding", "gzip")
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *gzipResponseWriter) Write(data []byte) (int, error) {
	return w.gzipWriter.Write(data)
}

func (w *gzipResponseWriter) Close() error {
	return w.gzipWriter.Close()
}
