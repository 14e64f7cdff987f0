package cli_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/release-sync/pkg/cli"
)

type fakeAsset struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Size    int    `json:"size"`
	Content string `json:"-"`
}

// fakeAPI implements the release endpoints used by the sync command
type fakeAPI struct {
	mu        sync.Mutex
	server    *httptest.Server
	releaseID int64
	assets    []*fakeAsset
	nextID    int64
	log       []string

	// throttleUploads makes the first upload of each file answer 429
	throttleUploads bool
	throttled       map[string]bool
}

func newFakeAPI(t *testing.T) *fakeAPI {
	api := &fakeAPI{nextID: 100, throttled: map[string]bool{}}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/octo/hello/releases/tags/{tag}", api.getRelease)
	mux.HandleFunc("POST /repos/octo/hello/releases", api.createRelease)
	mux.HandleFunc("DELETE /repos/octo/hello/releases/assets/{id}", api.deleteAsset)
	mux.HandleFunc("POST /uploads/releases/{id}/assets", api.upload)

	api.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			http.Error(w, `{"message":"Bad credentials"}`, http.StatusUnauthorized)
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(api.server.Close)
	return api
}

func (a *fakeAPI) record(format string, args ...any) {
	a.log = append(a.log, fmt.Sprintf(format, args...))
}

func (a *fakeAPI) releaseJSON(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":         a.releaseID,
		"tag_name":   "latest",
		"upload_url": fmt.Sprintf("%s/uploads/releases/%d/assets{?name,label}", a.server.URL, a.releaseID),
		"assets":     a.assets,
	})
}

func (a *fakeAPI) getRelease(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.record("GET release %s", r.PathValue("tag"))

	if a.releaseID == 0 {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
		return
	}
	a.releaseJSON(w, http.StatusOK)
}

func (a *fakeAPI) createRelease(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	a.record("POST release %v draft=%v prerelease=%v", body["tag_name"], body["draft"], body["prerelease"])

	a.nextID++
	a.releaseID = a.nextID
	a.releaseJSON(w, http.StatusCreated)
}

func (a *fakeAPI) deleteAsset(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	for i, asset := range a.assets {
		if asset.ID == id {
			a.record("DELETE %s", asset.Name)
			a.assets = append(a.assets[:i:i], a.assets[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
}

func (a *fakeAPI) upload(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	name := r.URL.Query().Get("name")
	body, _ := io.ReadAll(r.Body)

	if a.throttleUploads && !a.throttled[name] {
		a.throttled[name] = true
		a.record("429 %s", name)
		w.Header().Set("Retry-After", "0.01")
		http.Error(w, "slow down", http.StatusTooManyRequests)
		return
	}

	for _, asset := range a.assets {
		if asset.Name == name {
			http.Error(w, `{"message":"Validation Failed","errors":[{"code":"already_exists"}]}`, http.StatusUnprocessableEntity)
			return
		}
	}

	a.record("UPLOAD %s %s %d", name, r.Header.Get("Content-Type"), len(body))
	a.nextID++
	asset := &fakeAsset{ID: a.nextID, Name: name, Size: len(body), Content: string(body)}
	a.assets = append(a.assets, asset)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(asset)
}

func (a *fakeAPI) assetNames() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	var names []string
	for _, asset := range a.assets {
		names = append(names, asset.Name)
	}
	return names
}

func (a *fakeAPI) takeLog() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	log := a.log
	a.log = nil
	return log
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		gt.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func runSync(api *fakeAPI, dir string, extra ...string) error {
	args := []string{
		"release-sync", "--log-level", "debug",
		"sync",
		"--api-url", api.server.URL,
		"--repository", "octo/hello",
		"--token", "test-token",
		"--dir", dir,
		"--upload-delay-ms", "0",
		"--base-delay-ms", "1",
	}
	return cli.Run(context.Background(), append(args, extra...))
}

func TestSync_CreatesReleaseAndUploads(t *testing.T) {
	api := newFakeAPI(t)
	dir := writeFiles(t, map[string]string{
		"b.dat":     "\x00\x01\x02",
		"a.json":    `{"k":1}`,
		"notes.txt": "ignored",
	})

	gt.NoError(t, runSync(api, dir))

	gt.Value(t, api.takeLog()).Equal([]string{
		"GET release latest",
		"POST release latest draft=false prerelease=false",
		"UPLOAD a.json application/json 7",
		"UPLOAD b.dat application/octet-stream 3",
	})
}

func TestSync_RerunReplacesAssets(t *testing.T) {
	api := newFakeAPI(t)
	dir := writeFiles(t, map[string]string{"a.json": "{}", "c.tl": "type"})

	gt.NoError(t, runSync(api, dir))
	api.takeLog()

	gt.NoError(t, runSync(api, dir))
	gt.Value(t, api.takeLog()).Equal([]string{
		"GET release latest",
		"DELETE a.json",
		"UPLOAD a.json application/json 2",
		"DELETE c.tl",
		"UPLOAD c.tl text/plain; charset=utf-8 4",
	})
	gt.Value(t, api.assetNames()).Equal([]string{"a.json", "c.tl"})
}

func TestSync_RetriesThrottledUpload(t *testing.T) {
	api := newFakeAPI(t)
	api.throttleUploads = true
	dir := writeFiles(t, map[string]string{"a.json": "{}"})

	gt.NoError(t, runSync(api, dir))
	gt.Value(t, api.takeLog()).Equal([]string{
		"GET release latest",
		"POST release latest draft=false prerelease=false",
		"429 a.json",
		"UPLOAD a.json application/json 2",
	})
}

func TestSync_NoArtifacts(t *testing.T) {
	api := newFakeAPI(t)
	dir := writeFiles(t, map[string]string{"readme.md": "# nothing"})

	gt.NoError(t, runSync(api, dir))
	gt.Value(t, api.takeLog()).Equal([]string{
		"GET release latest",
		"POST release latest draft=false prerelease=false",
	})
	gt.A(t, api.assetNames()).Length(0)
}

func TestSync_FatalErrors(t *testing.T) {
	api := newFakeAPI(t)
	dir := writeFiles(t, map[string]string{"a.json": "{}"})

	t.Run("bad credentials", func(t *testing.T) {
		err := runSync(api, dir, "--token", "wrong")
		gt.Error(t, err)
		gt.String(t, err.Error()).Contains("401")
		gt.String(t, err.Error()).Contains("Bad credentials")
	})

	t.Run("malformed repository", func(t *testing.T) {
		err := runSync(api, dir, "--repository", "not-a-repo")
		gt.Error(t, err)
		gt.A(t, api.takeLog()).Length(0)
	})

	t.Run("invalid log level", func(t *testing.T) {
		err := cli.Run(context.Background(), []string{"release-sync", "--log-level", "verbose", "sync"})
		gt.Error(t, err)
	})
}
