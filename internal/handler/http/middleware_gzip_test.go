// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gzipBytes(t *testing.T, data []byte) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	gzipWriter := gzip.NewWriter(&buf)
	_, err := gzipWriter.Write(data)
	require.NoError(t, err)
	require.NoError(t, gzipWriter.Close())
	return &buf
}

func gunzipBody(t *testing.T, body io.Reader) string {
	t.Helper()

	gzipReader, err := gzip.NewReader(body)
	require.NoError(t, err, "failed to create gzip reader")
	defer gzipReader.Close()

	decompressed, err := io.ReadAll(gzipReader)
	require.NoError(t, err, "failed to decompress response")
	return string(decompressed)
}

func TestGZip(t *testing.T) {
	tests := []struct {
		name                 string
		acceptEncoding       string
		contentEncoding      string
		requestBody          []byte
		compressRequestBody  bool
		expectedStatus       int
		expectedResponseBody string
		checkResponseGzipped bool
		checkRequestDecoded  bool
	}{
		{
			name:                 "compress response when client accepts gzip",
			acceptEncoding:       "gzip",
			expectedStatus:       http.StatusOK,
			expectedResponseBody: `{"status":"idle"}`,
			checkResponseGzipped: true,
		},
		{
			name:                 "no compression when client does not accept gzip",
			acceptEncoding:       "",
			expectedStatus:       http.StatusOK,
			expectedResponseBody: `{"status":"idle"}`,
			checkResponseGzipped: false,
		},
		{
			name:                 "accept-encoding with multiple values including gzip",
			acceptEncoding:       "deflate, gzip, br",
			expectedStatus:       http.StatusOK,
			expectedResponseBody: `{"status":"idle"}`,
			checkResponseGzipped: true,
		},
		{
			name:                "decompress gzipped request body",
			contentEncoding:     "gzip",
			requestBody:         []byte(`{"prompt":"summarize"}`),
			compressRequestBody: true,
			expectedStatus:      http.StatusOK,
			checkRequestDecoded: true,
		},
		{
			name:                 "decompress request and compress response",
			acceptEncoding:       "gzip",
			contentEncoding:      "gzip",
			requestBody:          []byte(`{"prompt":"summarize"}`),
			compressRequestBody:  true,
			expectedStatus:       http.StatusOK,
			expectedResponseBody: `accepted: {"prompt":"summarize"}`,
			checkResponseGzipped: true,
			checkRequestDecoded:  true,
		},
		{
			name:            "invalid gzip request body",
			contentEncoding: "gzip",
			requestBody:     []byte("not gzipped data"),
			expectedStatus:  http.StatusBadRequest,
		},
		{
			name:                 "large response body compression",
			acceptEncoding:       "gzip",
			expectedStatus:       http.StatusOK,
			expectedResponseBody: strings.Repeat("generated output ", 1000),
			checkResponseGzipped: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.checkRequestDecoded && r.Body != nil {
					body, err := io.ReadAll(r.Body)
					require.NoError(t, err, "failed to read request body")
					assert.Equal(t, string(tt.requestBody), string(body), "request body should be decompressed")
					assert.Empty(t, r.Header.Get("Content-Encoding"), "Content-Encoding should be removed")
				}

				w.WriteHeader(tt.expectedStatus)
				if tt.expectedResponseBody != "" {
					if tt.checkRequestDecoded {
						w.Write([]byte("accepted: " + string(tt.requestBody)))
					} else {
						w.Write([]byte(tt.expectedResponseBody))
					}
				}
			})
			middleware := withGZip(nextHandler)

			var requestBody io.Reader
			if tt.requestBody != nil {
				if tt.compressRequestBody {
					requestBody = gzipBytes(t, tt.requestBody)
				} else {
					requestBody = bytes.NewReader(tt.requestBody)
				}
			}

			req := httptest.NewRequest(http.MethodPost, "/api/agents/1/tasks", requestBody)
			if tt.acceptEncoding != "" {
				req.Header.Set("Accept-Encoding", tt.acceptEncoding)
			}
			if tt.contentEncoding != "" {
				req.Header.Set("Content-Encoding", tt.contentEncoding)
			}
			rr := httptest.NewRecorder()

			// Act
			middleware.ServeHTTP(rr, req)

			// Assert
			assert.Equal(t, tt.expectedStatus, rr.Code, "unexpected status code")

			if tt.checkResponseGzipped {
				assert.Equal(t, "gzip", rr.Header().Get("Content-Encoding"), "Content-Encoding should be gzip")
				assert.Equal(t, tt.expectedResponseBody, gunzipBody(t, rr.Body), "decompressed response should match")
			} else if tt.expectedResponseBody != "" && tt.expectedStatus == http.StatusOK {
				assert.NotEqual(t, "gzip", rr.Header().Get("Content-Encoding"), "Content-Encoding should not be gzip")
				assert.Equal(t, tt.expectedResponseBody, rr.Body.String(), "response body should not be compressed")
			}
		})
	}
}

func TestGZip_CompressionRatio(t *testing.T) {
	// Highly repetitive payloads should shrink by an order of magnitude.
	data := strings.Repeat("agent task result row. ", 1000)
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(data))
	})
	middleware := withGZip(nextHandler)

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rr := httptest.NewRecorder()

	middleware.ServeHTTP(rr, req)

	assert.Less(t, rr.Body.Len(), len(data)/10, "compressed size should be much smaller than original")
}

func TestGZip_PoolReuseAcrossRequests(t *testing.T) {
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})
	middleware := withGZip(nextHandler)

	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Accept-Encoding", "gzip")
		rr := httptest.NewRecorder()

		middleware.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code, "request %d failed", i)
		assert.Equal(t, "gzip", rr.Header().Get("Content-Encoding"), "request %d missing gzip encoding", i)
		assert.Equal(t, "pong", gunzipBody(t, rr.Body), "request %d: wrong response", i)
	}
}

func TestGZip_ConcurrentRequests(t *testing.T) {
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("concurrent response"))
	})
	middleware := withGZip(nextHandler)

	const numGoroutines = 50
	done := make(chan bool, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func() {
			req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
			req.Header.Set("Accept-Encoding", "gzip")
			rr := httptest.NewRecorder()

			middleware.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusOK, rr.Code)

			gzipReader, err := gzip.NewReader(rr.Body)
			if err == nil {
				io.ReadAll(gzipReader)
				gzipReader.Close()
			}

			done <- true
		}()
	}

	for i := 0; i < numGoroutines; i++ {
		<-done
	}
}

func TestGZip_RequestBodyPoolReuse(t *testing.T) {
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
		w.Write(body)
	})
	middleware := withGZip(nextHandler)

	for i := 0; i < 5; i++ {
		testData := []byte("task payload " + string(rune('0'+i)))

		req := httptest.NewRequest(http.MethodPost, "/api/agents/1/tasks", gzipBytes(t, testData))
		req.Header.Set("Content-Encoding", "gzip")
		rr := httptest.NewRecorder()

		middleware.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code, "request %d failed", i)
		assert.Equal(t, string(testData), rr.Body.String(), "request %d: wrong body", i)
	}
}

func TestGZipResponseWriter_WriteHeader(t *testing.T) {
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("created"))
	})
	middleware := withGZip(nextHandler)

	req := httptest.NewRequest(http.MethodPost, "/api/agents", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rr := httptest.NewRecorder()

	middleware.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "gzip", rr.Header().Get("Content-Encoding"))
}

func TestGZip_EmptyResponse(t *testing.T) {
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	middleware := withGZip(nextHandler)

	req := httptest.NewRequest(http.MethodDelete, "/api/marketplace/listings/1", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rr := httptest.NewRecorder()

	middleware.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "gzip", rr.Header().Get("Content-Encoding"))
}

func TestWrappedReadCloser_Close(t *testing.T) {
	closeCalled := false
	wrapped := &wrappedReadCloser{
		Reader:  strings.NewReader("test"),
		OnClose: func() { closeCalled = true },
	}

	err := wrapped.Close()

	assert.NoError(t, err)
	assert.True(t, closeCalled, "OnClose should be called")
}

func TestWrappedReadCloser_CloseWithoutCallback(t *testing.T) {
	wrapped := &wrappedReadCloser{
		Reader: strings.NewReader("test"),
	}

	assert.NoError(t, wrapped.Close(), "Close should not fail when OnClose is nil")
}
