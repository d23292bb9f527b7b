package apihandlers

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/kanadm12/Spartis-App/internal/app"
	"github.com/kanadm12/Spartis-App/internal/models"
	"github.com/kanadm12/Spartis-App/internal/store"
)

func init() {
	// Some systems do not have the STL mimetype registered; outputs must be
	// served as a 3D model type for the frontend viewer.
	mime.AddExtensionType(".stl", "model/stl")
}

// APIHandler serves the conversion API. It depends on interfaces (plus two
// directories) so tests can run it against fakes.
type APIHandler struct {
	Progress         store.ProgressStore
	Jobs             store.JobClient
	UploadDir        string
	OutputDir        string
	Suffix           string
	DefaultThreshold float64
}

func NewAPIHandler(a *app.App) *APIHandler {
	return &APIHandler{
		Progress:         a.Progress,
		Jobs:             a.JobClient,
		UploadDir:        a.Config.Storage.UploadDir,
		OutputDir:        a.Config.Storage.OutputDir,
		Suffix:           a.Config.Pipeline.Suffix,
		DefaultThreshold: a.Config.Pipeline.Threshold,
	}
}

// ProcessNiftiHandler accepts a multipart NIfTI upload, mints a job id,
// schedules the background conversion plus the best-effort cold-storage
// upload, and returns the job id immediately.
func (h *APIHandler) ProcessNiftiHandler(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "Missing 'file' upload field: "+err.Error())
		return
	}
	if !strings.HasSuffix(file.Filename, h.Suffix) {
		BadRequest(c, fmt.Sprintf("Only %s files are supported.", h.Suffix))
		return
	}

	threshold := h.DefaultThreshold
	if t := c.PostForm("threshold"); t != "" {
		parsed, err := strconv.ParseFloat(t, 64)
		if err != nil {
			BadRequest(c, "Invalid threshold value: "+t)
			return
		}
		threshold = parsed
	}

	fileID := uuid.NewString()
	inputPath := filepath.Join(h.UploadDir, fileID+"_"+filepath.Base(file.Filename))
	if err := c.SaveUploadedFile(file, inputPath); err != nil {
		Internal(c, "Failed to store upload: "+err.Error())
		return
	}

	ctx := c.Request.Context()

	// Initial record; a store failure only degrades polling, never the job.
	if err := h.Progress.SetProgress(ctx, fileID, models.ProgressRecord{Step: models.StepUploading, Progress: 0}); err != nil {
		log.Warnf("Failed to write initial progress for %s: %v", fileID, err)
	}

	// Side channel first: its failure is logged, never surfaced.
	if err := h.Jobs.EnqueueBlobUpload(ctx, store.BlobUploadPayload{
		FilePath:         inputPath,
		OriginalFilename: file.Filename,
	}); err != nil {
		log.Errorf("Failed to enqueue blob upload for %s: %v", fileID, err)
	}

	if err := h.Jobs.EnqueueConvertJob(ctx, store.ConvertPayload{
		JobID:     fileID,
		InputPath: inputPath,
		OutputDir: h.OutputDir,
		Threshold: threshold,
	}); err != nil {
		// Never silently drop a job: surface the failure and leave a
		// terminal record behind.
		log.Errorf("Failed to enqueue convert job %s: %v", fileID, err)
		if serr := h.Progress.SetProgress(ctx, fileID, models.Errored()); serr != nil {
			log.Warnf("Failed to write error record for %s: %v", fileID, serr)
		}
		Internal(c, "Failed to schedule conversion job")
		return
	}

	c.JSON(http.StatusOK, gin.H{"file_id": fileID})
}

// ProgressHandler returns the stored record for a job id, or the synthetic
// Pending record when the id is unknown, expired, or the store is down.
func (h *APIHandler) ProgressHandler(c *gin.Context) {
	fileID := c.Param("file_id")
	rec, err := h.Progress.GetProgress(c.Request.Context(), fileID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Warnf("Progress read failed for %s: %v", fileID, err)
		}
		c.JSON(http.StatusOK, models.Pending())
		return
	}
	c.JSON(http.StatusOK, rec)
}

// OutputFileHandler streams a produced artifact from the output directory.
func (h *APIHandler) OutputFileHandler(c *gin.Context) {
	filename := c.Param("filename")
	if filename == "" || filename != filepath.Base(filename) || strings.Contains(filename, "..") {
		NotFound(c, "File not found.")
		return
	}
	path := filepath.Join(h.OutputDir, filename)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		NotFound(c, "File not found.")
		return
	}
	// gin picks the content type from the extension; .stl is registered as
	// model/stl above.
	c.File(path)
}
