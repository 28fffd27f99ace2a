package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/narrato/internal/services/artifacts"
)

// ArtifactHandler streams persisted videos over HTTP
type ArtifactHandler struct {
	store  *artifacts.Store
	logger arbor.ILogger
}

// NewArtifactHandler creates an artifact handler
func NewArtifactHandler(store *artifacts.Store, logger arbor.ILogger) *ArtifactHandler {
	return &ArtifactHandler{
		store:  store,
		logger: logger,
	}
}

// DownloadHandler handles GET /api/artifacts/{resultRef}
func (h *ArtifactHandler) DownloadHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	resultRef := strings.TrimPrefix(r.URL.Path, "/api/artifacts/")
	if resultRef == "" || strings.Contains(resultRef, "/") {
		WriteError(w, http.StatusBadRequest, "result reference is required")
		return
	}

	f, artifact, err := h.store.Open(r.Context(), resultRef)
	if err != nil {
		h.logger.Warn().Err(err).Str("result_ref", resultRef).Msg("Artifact lookup failed")
		WriteError(w, http.StatusNotFound, "artifact not found")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Length", fmt.Sprintf("%d", artifact.SizeBytes))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", resultRef+".mp4"))

	if _, err := io.Copy(w, f); err != nil {
		h.logger.Warn().Err(err).Str("result_ref", resultRef).Msg("Artifact stream interrupted")
	}
}
