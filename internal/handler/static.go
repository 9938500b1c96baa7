package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// SPAHandler serves the game page and its assets, falling back to
// index.html for client-side routes such as /room/AB12CD.
type SPAHandler struct {
	staticDir string
	prefix    string
	indexFile string
}

func NewSPAHandler(staticDir, prefix string) *SPAHandler {
	return &SPAHandler{
		staticDir: staticDir,
		prefix:    prefix,
		indexFile: "index.html",
	}
}

func (h *SPAHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, h.prefix)
	path = strings.TrimPrefix(path, "/")

	if strings.HasPrefix(path, "api/") {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not found", "code": "NOT_FOUND"})
		return
	}

	// filepath.Join cleans the path, so "../" cannot climb out of staticDir.
	filePath := filepath.Join(h.staticDir, filepath.FromSlash(filepath.Clean("/"+path)))

	info, err := os.Stat(filePath)
	if err == nil && !info.IsDir() {
		http.ServeFile(w, r, filePath)
		return
	}

	indexPath := filepath.Join(h.staticDir, h.indexFile)
	if _, err := os.Stat(indexPath); err != nil {
		http.NotFound(w, r)
		return
	}

	http.ServeFile(w, r, indexPath)
}

// StaticFileServer mounts a SPA directory under prefix.
func StaticFileServer(staticDir, prefix string) http.Handler {
	return NewSPAHandler(staticDir, prefix)
}
