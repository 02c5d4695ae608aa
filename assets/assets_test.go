package assets

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getStatus(t *testing.T, srv *httptest.Server, path string) int {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	return resp.StatusCode
}

func TestServesEmbeddedPageAndDiskRuntime(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wasm_exec.js"), []byte("// runtime shim"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "widget.wasm"), []byte{0x00, 0x61, 0x73, 0x6d}, 0o644))

	srv := httptest.NewServer(http.FileServerFS(Files(dir)))
	defer srv.Close()

	assert.Equal(t, http.StatusOK, getStatus(t, srv, "/index.html"), "page must come from the embedded layer")
	assert.Equal(t, http.StatusOK, getStatus(t, srv, "/wasm_exec.js"), "runtime shim must come from the disk layer")
	assert.Equal(t, http.StatusOK, getStatus(t, srv, "/widget.wasm"), "wasm binary must come from the disk layer")
	assert.Equal(t, http.StatusNotFound, getStatus(t, srv, "/no-such-file"))
}

func TestPageServedWithoutRuntimeArtifacts(t *testing.T) {
	srv := httptest.NewServer(http.FileServerFS(Files(t.TempDir())))
	defer srv.Close()

	assert.Equal(t, http.StatusOK, getStatus(t, srv, "/index.html"))
	assert.Equal(t, http.StatusNotFound, getStatus(t, srv, "/widget.wasm"))
}
