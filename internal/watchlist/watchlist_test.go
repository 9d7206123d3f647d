package watchlist_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"marquee/internal/services"
	"marquee/internal/watchlist"
)

const notePage = `<!doctype html>
<html>
  <body>
    <div class="header">My watch list</div>
    <div class="plaintext">Denis Villeneuve
Greta Gerwig

  Park Chan-wook
</div>
  </body>
</html>`

func TestNoteSourceExtractsNames(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(notePage))
	}))
	defer server.Close()

	source := watchlist.NewNoteSource(server.URL, time.Second, nil)
	names, err := source.Names(context.Background())
	if err != nil {
		t.Fatalf("Names failed: %v", err)
	}
	want := []string{"Denis Villeneuve", "Greta Gerwig", "Park Chan-wook"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("got %v, want %v", names, want)
	}
}

func TestNoteSourceRejectsPageWithoutPlaintextBlock(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("<html><body><p>not a note</p></body></html>"))
	}))
	defer server.Close()

	source := watchlist.NewNoteSource(server.URL, time.Second, nil)
	_, err := source.Names(context.Background())
	if !errors.Is(err, services.ErrMalformedResponse) {
		t.Fatalf("expected malformed response error, got %v", err)
	}
}

func TestNoteSourceClassifiesServerFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	source := watchlist.NewNoteSource(server.URL, time.Second, nil)
	_, err := source.Names(context.Background())
	if !errors.Is(err, services.ErrSourceUnavailable) {
		t.Fatalf("expected source unavailable error, got %v", err)
	}
}

func TestFileSourceReadsLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "directors.txt")
	content := "Denis Villeneuve\n\n  Greta Gerwig  \n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	source := watchlist.NewFileSource(path, nil)
	names, err := source.Names(context.Background())
	if err != nil {
		t.Fatalf("Names failed: %v", err)
	}
	want := []string{"Denis Villeneuve", "Greta Gerwig"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("got %v, want %v", names, want)
	}
}

func TestFileSourceTreatsMissingFileAsEmpty(t *testing.T) {
	source := watchlist.NewFileSource(filepath.Join(t.TempDir(), "absent.txt"), nil)
	names, err := source.Names(context.Background())
	if err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
	if names != nil {
		t.Fatalf("expected no names, got %v", names)
	}
}
