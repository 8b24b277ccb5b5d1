package download

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	dlmocks "github.com/glorpus-work/tempfetch/pkg/download/mocks"
	pkgerrors "github.com/glorpus-work/tempfetch/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// countingBody records how many bytes the engine pulled from the network.
type countingBody struct {
	r      io.Reader
	read   int64
	closed bool
}

func (c *countingBody) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.read += int64(n)
	return n, err
}

func (c *countingBody) Close() error {
	c.closed = true
	return nil
}

// failingReader yields data and then a transport error.
type failingReader struct {
	data []byte
	err  error
}

func (f *failingReader) Read(p []byte) (int, error) {
	if len(f.data) == 0 {
		return 0, f.err
	}
	n := copy(p, f.data)
	f.data = f.data[n:]
	return n, nil
}

type failingWriter struct{ closed bool }

func (w *failingWriter) Write([]byte) (int, error) { return 0, errors.New("no space left on device") }
func (w *failingWriter) Close() error               { w.closed = true; return nil }

func fakeClient(body io.ReadCloser, contentLength int64) *http.Client {
	return &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		header := http.Header{}
		if contentLength > 0 {
			header.Set("Content-Length", strconv.FormatInt(contentLength, 10))
		}
		return &http.Response{
			StatusCode:    http.StatusOK,
			Header:        header,
			Body:          body,
			ContentLength: contentLength,
			Request:       r,
		}, nil
	})}
}

func randomPayload(t *testing.T, size int) []byte {
	t.Helper()
	payload := make([]byte, size)
	_, err := rand.Read(payload)
	require.NoError(t, err)
	return payload
}

func TestNewEngine_Defaults(t *testing.T) {
	e := NewEngine(Options{})
	require.NotNil(t, e)
	assert.Equal(t, DefaultChunkSize, e.chunkSize)
	assert.Equal(t, DefaultUserAgent, e.userAgent)
	assert.IsType(t, OSFileSystem{}, e.fs)

	transport, ok := e.client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, DefaultHeaderTimeout, transport.ResponseHeaderTimeout)
	assert.Zero(t, e.client.Timeout, "overall client timeout must stay unset")
}

func TestRun_CompletesWithKnownSize(t *testing.T) {
	const size = 1048576
	payload := randomPayload(t, size)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/file.bin", r.URL.Path)
		w.Header().Set("Content-Length", strconv.Itoa(size))
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	dir := t.TempDir()
	var samples []float64
	e := NewEngine(Options{})

	res := e.Run(context.Background(), Request{URL: server.URL + "/file.bin", DestinationDir: dir}, Observer{
		OnProgress:    func(f float64) { samples = append(samples, f) },
		OnUnknownSize: func() { t.Fatal("size is known") },
		ShouldStop:    func() bool { return false },
	})

	require.Equal(t, OutcomeCompleted, res.Outcome, res.Message())
	assert.Equal(t, filepath.Join(dir, "file.bin"), res.Path)
	assert.Equal(t, int64(size), res.TotalBytes)
	assert.True(t, res.SizeKnown)
	assert.Equal(t, int64(size), res.BytesWritten)

	content, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(payload, content), "file content must match the response body")

	require.Len(t, samples, size/DefaultChunkSize)
	assert.Equal(t, 1.0, samples[len(samples)-1])
	for i := 1; i < len(samples); i++ {
		assert.GreaterOrEqual(t, samples[i], samples[i-1])
		assert.LessOrEqual(t, samples[i], 1.0)
	}
}

func TestRun_StopAfterTenChunks(t *testing.T) {
	const size = 32 * DefaultChunkSize
	body := &countingBody{r: bytes.NewReader(randomPayload(t, size))}
	dir := t.TempDir()

	chunks := 0
	e := NewEngine(Options{Client: fakeClient(body, size)})
	res := e.Run(context.Background(), Request{URL: "http://example.com/file.bin", DestinationDir: dir}, Observer{
		OnProgress: func(float64) { chunks++ },
		ShouldStop: func() bool { return chunks >= 10 },
	})

	assert.Equal(t, OutcomeStopped, res.Outcome)
	assert.Equal(t, 10, chunks)
	assert.LessOrEqual(t, body.read, int64(11*DefaultChunkSize))
	assert.True(t, body.closed)

	_, err := os.Stat(filepath.Join(dir, "file.bin"))
	assert.True(t, os.IsNotExist(err), "partial file must be removed")
}

func TestRun_StopBeforeFirstChunk(t *testing.T) {
	body := &countingBody{r: bytes.NewReader(randomPayload(t, 4*DefaultChunkSize))}
	dir := t.TempDir()

	e := NewEngine(Options{Client: fakeClient(body, 4*DefaultChunkSize)})
	res := e.Run(context.Background(), Request{URL: "http://example.com/file.bin", DestinationDir: dir}, Observer{
		ShouldStop: func() bool { return true },
	})

	assert.Equal(t, OutcomeStopped, res.Outcome)
	assert.LessOrEqual(t, body.read, int64(DefaultChunkSize))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRun_UnknownSize(t *testing.T) {
	payload := randomPayload(t, 3*DefaultChunkSize+100)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// Flushing before the handler returns forces a chunked response without Content-Length.
		_, _ = w.Write(payload[:1000])
		w.(http.Flusher).Flush()
		_, _ = w.Write(payload[1000:])
	}))
	defer server.Close()

	dir := t.TempDir()
	unknown := 0
	e := NewEngine(Options{})
	res := e.Run(context.Background(), Request{URL: server.URL + "/stream", DestinationDir: dir}, Observer{
		OnProgress:    func(float64) { t.Fatal("progress must not be reported without a size") },
		OnUnknownSize: func() { unknown++ },
	})

	require.Equal(t, OutcomeCompleted, res.Outcome, res.Message())
	assert.Equal(t, 1, unknown)
	assert.False(t, res.SizeKnown)
	assert.Zero(t, res.TotalBytes)
	assert.Equal(t, int64(len(payload)), res.BytesWritten)
	assert.Equal(t, int64(len(payload)), res.Size())

	content, err := os.ReadFile(filepath.Join(dir, "stream"))
	require.NoError(t, err)
	assert.True(t, bytes.Equal(payload, content))
}

func TestRun_EmptyURLSegmentUsesDefaultName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("index"))
	}))
	defer server.Close()

	dir := t.TempDir()
	res := NewEngine(Options{}).Run(context.Background(), Request{URL: server.URL + "/", DestinationDir: dir}, Observer{})
	require.Equal(t, OutcomeCompleted, res.Outcome, res.Message())
	assert.Equal(t, filepath.Join(dir, DefaultFilename), res.Path)
}

func TestRun_StatusErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		expectError string
	}{
		{name: "not found", status: http.StatusNotFound, expectError: "unexpected status code: 404 Not Found"},
		{name: "server error", status: http.StatusInternalServerError, expectError: "unexpected status code: 500 Internal Server Error"},
		{name: "forbidden", status: http.StatusForbidden, expectError: "unexpected status code: 403 Forbidden"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("error body"))
			}))
			defer server.Close()

			dir := t.TempDir()
			res := NewEngine(Options{}).Run(context.Background(), Request{URL: server.URL + "/file.bin", DestinationDir: dir}, Observer{})

			require.Equal(t, OutcomeFailed, res.Outcome)
			assert.Contains(t, res.Message(), tt.expectError)
			assert.ErrorIs(t, res.Err, pkgerrors.ErrUnexpectedStatus)
			_, err := os.Stat(filepath.Join(dir, "file.bin"))
			assert.True(t, os.IsNotExist(err))
		})
	}
}

func TestRun_TransportErrorMidStream(t *testing.T) {
	payload := randomPayload(t, 5*DefaultChunkSize)
	body := io.NopCloser(&failingReader{data: payload[:2*DefaultChunkSize+10], err: io.ErrUnexpectedEOF})
	dir := t.TempDir()

	var progressed int
	e := NewEngine(Options{Client: fakeClient(body, int64(len(payload)))})
	res := e.Run(context.Background(), Request{URL: "http://example.com/file.bin", DestinationDir: dir}, Observer{
		OnProgress: func(float64) { progressed++ },
	})

	require.Equal(t, OutcomeFailed, res.Outcome)
	assert.ErrorIs(t, res.Err, io.ErrUnexpectedEOF)
	assert.Equal(t, 2, progressed)
	_, err := os.Stat(filepath.Join(dir, "file.bin"))
	assert.True(t, os.IsNotExist(err), "partial file must be removed after a transport error")
}

func TestRun_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL + "/file.bin"
	server.Close()

	dir := t.TempDir()
	res := NewEngine(Options{HeaderTimeout: time.Second}).Run(context.Background(), Request{URL: url, DestinationDir: dir}, Observer{})

	require.Equal(t, OutcomeFailed, res.Outcome)
	assert.Contains(t, res.Message(), "download failed")
	_, err := os.Stat(filepath.Join(dir, "file.bin"))
	assert.True(t, os.IsNotExist(err))
}

func TestRun_HeaderTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	res := NewEngine(Options{HeaderTimeout: 50 * time.Millisecond}).Run(
		context.Background(), Request{URL: server.URL + "/slow", DestinationDir: t.TempDir()}, Observer{})

	require.Equal(t, OutcomeFailed, res.Outcome)
	assert.Contains(t, res.Message(), "timeout")
}

func TestRun_ContextCancelledBeforeStart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("data"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := NewEngine(Options{}).Run(ctx, Request{URL: server.URL + "/file.bin", DestinationDir: t.TempDir()}, Observer{})
	assert.Equal(t, OutcomeStopped, res.Outcome)
}

func TestRun_SendsUserAgent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tempfetch-test/2.0", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	res := NewEngine(Options{UserAgent: "tempfetch-test/2.0"}).Run(
		context.Background(), Request{URL: server.URL + "/ua", DestinationDir: t.TempDir()}, Observer{})
	assert.Equal(t, OutcomeCompleted, res.Outcome, res.Message())
}

func TestRun_DiskWriteFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	dir := t.TempDir()
	path := filepath.Join(dir, "file.bin")
	writer := &failingWriter{}

	fs := dlmocks.NewMockFileSystem(ctrl)
	fs.EXPECT().Create(path).Return(writer, nil).Times(1)
	fs.EXPECT().Remove(path).Return(nil).Times(1)

	body := &countingBody{r: bytes.NewReader(randomPayload(t, 2*DefaultChunkSize))}
	e := NewEngine(Options{Client: fakeClient(body, 2*DefaultChunkSize), FileSystem: fs})
	res := e.Run(context.Background(), Request{URL: "http://example.com/file.bin", DestinationDir: dir}, Observer{})

	require.Equal(t, OutcomeFailed, res.Outcome)
	assert.ErrorIs(t, res.Err, pkgerrors.ErrFilesystem)
	assert.Contains(t, res.Message(), "no space left on device")
	assert.True(t, writer.closed)
}

func TestRun_CreateFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fs := dlmocks.NewMockFileSystem(ctrl)
	fs.EXPECT().Create(gomock.Any()).Return(nil, os.ErrPermission).Times(1)

	body := &countingBody{r: bytes.NewReader([]byte("data"))}
	e := NewEngine(Options{Client: fakeClient(body, 4), FileSystem: fs})
	res := e.Run(context.Background(), Request{URL: "http://example.com/file.bin", DestinationDir: "/nowhere"}, Observer{})

	require.Equal(t, OutcomeFailed, res.Outcome)
	assert.ErrorIs(t, res.Err, pkgerrors.ErrFilesystem)
	assert.ErrorIs(t, res.Err, os.ErrPermission)
	assert.True(t, body.closed)
}

func TestRun_StopRemovalFailureStillStops(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fs := dlmocks.NewMockFileSystem(ctrl)
	fs.EXPECT().Create(gomock.Any()).Return(&bufferCloser{}, nil)
	fs.EXPECT().Remove(gomock.Any()).Return(errors.New("device busy"))

	body := &countingBody{r: bytes.NewReader(randomPayload(t, DefaultChunkSize))}
	e := NewEngine(Options{Client: fakeClient(body, DefaultChunkSize), FileSystem: fs})
	res := e.Run(context.Background(), Request{URL: "http://example.com/file.bin", DestinationDir: t.TempDir()}, Observer{
		ShouldStop: func() bool { return true },
	})
	assert.Equal(t, OutcomeStopped, res.Outcome)
}

type bufferCloser struct{ bytes.Buffer }

func (*bufferCloser) Close() error { return nil }

func TestContentLength(t *testing.T) {
	tests := []struct {
		name      string
		field     int64
		header    string
		wantSize  int64
		wantKnown bool
	}{
		{name: "field set", field: 2048, wantSize: 2048, wantKnown: true},
		{name: "header only", field: -1, header: "4096", wantSize: 4096, wantKnown: true},
		{name: "missing", field: -1, wantKnown: false},
		{name: "zero", field: 0, header: "0", wantKnown: false},
		{name: "not numeric", field: -1, header: "abc", wantKnown: false},
		{name: "negative header", field: -1, header: "-5", wantKnown: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{ContentLength: tt.field, Header: http.Header{}}
			if tt.header != "" {
				resp.Header.Set("Content-Length", tt.header)
			}
			size, known := contentLength(resp)
			assert.Equal(t, tt.wantKnown, known)
			if tt.wantKnown {
				assert.Equal(t, tt.wantSize, size)
			}
		})
	}
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "completed", OutcomeCompleted.String())
	assert.Equal(t, "stopped", OutcomeStopped.String())
	assert.Equal(t, "failed", OutcomeFailed.String())
	assert.Equal(t, "unknown", Outcome(42).String())
}
