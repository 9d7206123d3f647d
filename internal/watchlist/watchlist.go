package watchlist

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"marquee/internal/logging"
	"marquee/internal/services"
)

// Source yields watch-list names, one per entry, in list order.
type Source interface {
	Names(ctx context.Context) ([]string, error)
}

// NoteSource scrapes a hosted note page. The note body renders inside a
// div with class "plaintext" holding one name per line.
type NoteSource struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewNoteSource(url string, timeout time.Duration, logger *slog.Logger) *NoteSource {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &NoteSource{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.NewComponentLogger(logger, "watchlist"),
	}
}

func (s *NoteSource) Names(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build watch-list request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrSourceUnavailable, "watchlist", "fetch", s.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrSourceUnavailable, "watchlist", "fetch", s.url,
			fmt.Errorf("status %d", resp.StatusCode))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrMalformedResponse, "watchlist", "parse", s.url, err)
	}

	block := doc.Find("div.plaintext").First()
	if block.Length() == 0 {
		return nil, services.Wrap(services.ErrMalformedResponse, "watchlist", "parse", s.url,
			errors.New("no plaintext block in note page"))
	}

	names := splitNames(block.Text())
	s.logger.Debug("watch-list fetched",
		logging.String("url", s.url),
		logging.Int("names", len(names)))
	return names, nil
}

// FileSource reads names from a local file, one per line. A missing file
// is an empty list, so an unset half of the watch list is not an error.
type FileSource struct {
	path   string
	logger *slog.Logger
}

func NewFileSource(path string, logger *slog.Logger) *FileSource {
	return &FileSource{path: path, logger: logging.NewComponentLogger(logger, "watchlist")}
}

func (s *FileSource) Names(context.Context) ([]string, error) {
	file, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, services.Wrap(services.ErrPersistence, "watchlist", "open", s.path, err)
	}
	defer file.Close()

	var names []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if name := strings.TrimSpace(scanner.Text()); name != "" {
			names = append(names, name)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, services.Wrap(services.ErrPersistence, "watchlist", "read", s.path, err)
	}
	return names, nil
}

func splitNames(text string) []string {
	var names []string
	for _, line := range strings.Split(text, "\n") {
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}
	return names
}
