package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Ryuu-x/File-Sharing-App/internal/b2"
	"github.com/Ryuu-x/File-Sharing-App/internal/db"
	"github.com/Ryuu-x/File-Sharing-App/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memStore is an in-memory FileStore used in place of Mongo.
type memStore struct {
	mu         sync.Mutex
	records    map[primitive.ObjectID]*models.FileRecord
	failInsert bool
}

func newMemStore() *memStore {
	return &memStore{records: make(map[primitive.ObjectID]*models.FileRecord)}
}

func (m *memStore) Insert(_ context.Context, rec *models.FileRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failInsert {
		return errors.New("insert failed")
	}
	if rec.ID.IsZero() {
		rec.ID = primitive.NewObjectID()
	}
	clone := *rec
	m.records[rec.ID] = &clone
	return nil
}

func (m *memStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.FileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, db.ErrFileNotFound
	}
	clone := *rec
	return &clone, nil
}

func (m *memStore) SetDownloadCount(_ context.Context, id primitive.ObjectID, count int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return db.ErrFileNotFound
	}
	rec.DownloadCount = count
	return nil
}

// fakeProvider serves the provider endpoints the service drives.
type fakeProvider struct {
	ts         *httptest.Server
	objects    map[string][]byte
	failUpload bool
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()
	f := &fakeProvider{objects: make(map[string][]byte)}

	mux := http.NewServeMux()
	mux.HandleFunc("/b2api/v2/b2_authorize_account", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"apiUrl":%q,"downloadUrl":%q,"authorizationToken":"t"}`, f.ts.URL, f.ts.URL)
	})
	mux.HandleFunc("/b2api/v2/b2_get_upload_url", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"uploadUrl":%q,"authorizationToken":"ut"}`, f.ts.URL+"/upload-file")
	})
	mux.HandleFunc("/upload-file", func(w http.ResponseWriter, r *http.Request) {
		if f.failUpload {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, `{"status":503,"code":"service_unavailable","message":"upload target gone"}`)
			return
		}
		data, _ := io.ReadAll(r.Body)
		fileID := fmt.Sprintf("4_z%d", len(f.objects))
		f.objects[fileID] = data
		fmt.Fprintf(w, `{"fileId":%q}`, fileID)
	})
	mux.HandleFunc("/b2api/v2/b2_get_download_authorization", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			FileNamePrefix string `json:"fileNamePrefix"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		fmt.Fprintf(w, `{"authorizationToken":"dl-%s"}`, url.QueryEscape(req.FileNamePrefix))
	})
	mux.HandleFunc("/b2api/v2/b2_download_file_by_id", func(w http.ResponseWriter, r *http.Request) {
		data, ok := f.objects[r.URL.Query().Get("fileId")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"status":404,"code":"not_found","message":"no such file"}`)
			return
		}
		w.Write(data)
	})

	f.ts = httptest.NewServer(mux)
	t.Cleanup(f.ts.Close)
	return f
}

func (f *fakeProvider) client() *b2.Client {
	c := b2.New("acct", "key", "bucket-id", "shared-files")
	c.APIBase = f.ts.URL
	return c
}

func newTestService(t *testing.T) (*FileService, *memStore, *fakeProvider) {
	t.Helper()
	store := newMemStore()
	provider := newFakeProvider(t)
	return NewFileService(store, provider.client()), store, provider
}

func TestUploadDownloadRoundTrip(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	content := make([]byte, 1048576)
	for i := range content {
		content[i] = byte(i)
	}

	result, err := svc.Upload(ctx, "report.pdf", "application/pdf", content)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if result.FileID == "" {
		t.Fatal("empty record id")
	}

	objID, err := primitive.ObjectIDFromHex(result.FileID)
	if err != nil {
		t.Fatalf("record id is not an object id: %v", err)
	}
	rec, err := store.FindByID(ctx, objID)
	if err != nil {
		t.Fatalf("record not persisted: %v", err)
	}
	if rec.Name != "report.pdf" {
		t.Errorf("name = %q, want report.pdf", rec.Name)
	}
	if !strings.HasPrefix(rec.Path, "uploads/") {
		t.Errorf("path = %q, want uploads/ prefix", rec.Path)
	}
	if rec.FileID == "" {
		t.Error("provider file id not stored")
	}
	if rec.DownloadCount != 0 {
		t.Errorf("download count = %d, want 0", rec.DownloadCount)
	}
	if !strings.Contains(result.URL, "/file/shared-files/") {
		t.Errorf("url = %q, want bucket segment", result.URL)
	}
	if !strings.Contains(result.URL, "Authorization=") {
		t.Errorf("url = %q, want authorization token", result.URL)
	}

	dl, err := svc.Download(ctx, result.FileID)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	defer dl.Body.Close()
	got, _ := io.ReadAll(dl.Body)
	if len(got) != len(content) {
		t.Fatalf("downloaded %d bytes, want %d", len(got), len(content))
	}
	for i := range got {
		if got[i] != content[i] {
			t.Fatalf("byte %d differs", i)
		}
	}
	if dl.Name != "report.pdf" {
		t.Errorf("attachment name = %q", dl.Name)
	}

	rec, _ = store.FindByID(ctx, objID)
	if rec.DownloadCount != 1 {
		t.Errorf("download count = %d, want 1", rec.DownloadCount)
	}
}

func TestDownloadCountsSerializedDownloads(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	result, err := svc.Upload(ctx, "notes.txt", "text/plain", []byte("n"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	const n = 5
	for i := 0; i < n; i++ {
		dl, err := svc.Download(ctx, result.FileID)
		if err != nil {
			t.Fatalf("download %d: %v", i, err)
		}
		io.Copy(io.Discard, dl.Body)
		dl.Body.Close()
	}

	objID, _ := primitive.ObjectIDFromHex(result.FileID)
	rec, _ := store.FindByID(ctx, objID)
	if rec.DownloadCount != n {
		t.Errorf("download count = %d, want %d", rec.DownloadCount, n)
	}
}

func TestDownloadUnknownID(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	t.Run("well-formed but absent", func(t *testing.T) {
		if _, err := svc.Download(ctx, primitive.NewObjectID().Hex()); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("malformed id", func(t *testing.T) {
		if _, err := svc.Download(ctx, "not-hex"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestUploadProviderFailure(t *testing.T) {
	svc, store, provider := newTestService(t)
	provider.failUpload = true

	_, err := svc.Upload(context.Background(), "a.txt", "", []byte("x"))
	if err == nil {
		t.Fatal("expected error")
	}
	if len(store.records) != 0 {
		t.Error("record persisted despite failed upload")
	}
}

func TestUploadMetadataFailure(t *testing.T) {
	svc, store, _ := newTestService(t)
	store.failInsert = true

	if _, err := svc.Upload(context.Background(), "a.txt", "", []byte("x")); err == nil {
		t.Fatal("expected error when the metadata write fails")
	}
}

func TestStorageKey(t *testing.T) {
	ts := time.UnixMilli(1700000000000)

	t.Run("collapses whitespace to underscores", func(t *testing.T) {
		got := storageKey("my  annual\treport.pdf", ts)
		want := "uploads/1700000000000_my_annual_report.pdf"
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("keeps plain names intact", func(t *testing.T) {
		if got := storageKey("report.pdf", ts); got != "uploads/1700000000000_report.pdf" {
			t.Errorf("got %q", got)
		}
	})
}
