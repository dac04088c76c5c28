package publish

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"canvas_ai_server/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSiteObjects(t *testing.T) {
	page := types.PageVersion{
		Version: 3,
		Content: "<html>preview</html>",
		Files: types.FileSet{
			{Name: "index.html", Type: types.KindMarkup, Content: "<html></html>"},
			{Name: "styles.css", Type: types.KindStyle, Content: "body{}"},
			{Name: "../script.js", Type: types.KindScript, Content: "go()"},
		},
	}
	objects := SiteObjects(page)
	require.Len(t, objects, 5)

	keys := make([]string, 0, len(objects))
	for _, o := range objects {
		keys = append(keys, o.Key)
	}
	assert.Equal(t, []string{
		"v3/index.html",
		"v3/styles.css",
		"v3/script.js",
		"v3/preview.html",
		"latest/preview.html",
	}, keys)
	assert.Equal(t, "text/css; charset=utf-8", objects[1].ContentType)
	assert.Equal(t, "text/javascript; charset=utf-8", objects[2].ContentType)
	assert.Equal(t, "<html>preview</html>", string(objects[4].Body))
}

func TestNewS3PublisherValidates(t *testing.T) {
	_, err := NewS3Publisher(S3Config{})
	assert.ErrorContains(t, err, "endpoint")

	_, err = NewS3Publisher(S3Config{Endpoint: "localhost:9000"})
	assert.ErrorContains(t, err, "access key")

	_, err = NewS3Publisher(S3Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"})
	assert.ErrorContains(t, err, "bucket")

	p, err := NewS3Publisher(S3Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b", Bucket: "canvas"})
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", p.region)
}

func TestEnsureBucketRetriesAfterFailure(t *testing.T) {
	var heads atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			w.WriteHeader(http.StatusNotImplemented)
			return
		}
		if heads.Add(1) == 1 {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p, err := NewS3Publisher(S3Config{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		AccessKey: "key",
		SecretKey: "secret",
		Bucket:    "canvas-pages",
	})
	require.NoError(t, err)

	ctx := context.Background()
	require.Error(t, p.ensureBucket(ctx))
	require.NoError(t, p.ensureBucket(ctx))
	require.NoError(t, p.ensureBucket(ctx))
	assert.Equal(t, int32(2), heads.Load())
}
