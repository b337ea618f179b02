package testutil

import (
	"mime"
	"mime/multipart"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextHelpers(t *testing.T) {
	_, hasDeadline := TestContext(t).Deadline()
	assert.True(t, hasDeadline)

	assert.Error(t, CancelledContext().Err())
}

func TestUpload_Build(t *testing.T) {
	body, ct := NewUpload(t).
		File("screenshot", "page.png", "image/png", []byte("png-bytes")).
		File("audio", "clip.wav", "", []byte("RIFF")).
		Field("dom_elements", "[]").
		Build()

	mediaType, params, err := mime.ParseMediaType(ct)
	require.NoError(t, err)
	assert.Equal(t, "multipart/form-data", mediaType)

	form, err := multipart.NewReader(body, params["boundary"]).ReadForm(1 << 20)
	require.NoError(t, err)
	defer func() { _ = form.RemoveAll() }()

	assert.Equal(t, []string{"[]"}, form.Value["dom_elements"])
	require.Len(t, form.File["screenshot"], 1)
	shot := form.File["screenshot"][0]
	assert.Equal(t, "page.png", shot.Filename)
	assert.Equal(t, "image/png", shot.Header.Get("Content-Type"))
	assert.Equal(t, int64(9), shot.Size)

	require.Len(t, form.File["audio"], 1)
	assert.Equal(t, "application/octet-stream", form.File["audio"][0].Header.Get("Content-Type"))
}

func TestJSONHelpers(t *testing.T) {
	assert.Equal(t, `{"a":1}`, MustJSON(t, map[string]int{"a": 1}))

	got := DecodeJSON[map[string]string](t, strings.NewReader(`{"session_id":"tab-1"}`))
	assert.Equal(t, "tab-1", got["session_id"])
}
