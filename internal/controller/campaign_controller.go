// internal/controller/campaign_controller.go
package controller

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	appErrors "github.com/unclebandit/ad-scheduler/internal/errors"
	"github.com/unclebandit/ad-scheduler/internal/handler"
	"github.com/unclebandit/ad-scheduler/internal/logging"
	"github.com/unclebandit/ad-scheduler/internal/model"
	"github.com/unclebandit/ad-scheduler/internal/service"
)

// multipart parts beyond this stay on disk
const uploadMemory = 8 << 20

// CandidateExtractor turns an uploaded document into candidate campaigns.
type CandidateExtractor interface {
	Extract(ctx context.Context, filename string, payload []byte) []model.CandidateRecord
}

type CampaignController struct {
	CampaignService *service.CampaignService
	Extractor       CandidateExtractor
	MaxUploadBytes  int64
	Logger          *zap.Logger
}

type createCampaignRequest struct {
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// UploadResponse summarises one ingested schedule document.
type UploadResponse struct {
	Accepted      []string            `json:"accepted"`
	Rejected      []service.Rejection `json:"rejected"`
	AcceptedCount int                 `json:"accepted_count"`
	RejectedCount int                 `json:"rejected_count"`
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := c.CampaignService.ListCampaigns(r.Context())
	if err != nil {
		c.logger().Error("failed to list campaigns", zap.Error(err))
		handler.WriteError(w, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, map[string]any{
		"data":  campaigns,
		"count": len(campaigns),
	})
}

func (c *CampaignController) GetCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		handler.WriteError(w, &appErrors.ErrInvalidInput{Message: "invalid campaign id"})
		return
	}

	campaign, err := c.CampaignService.GetCampaign(r.Context(), id)
	if err != nil {
		handler.WriteError(w, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, campaign)
}

// CreateCampaign schedules one campaign. JSON callers get the stored campaign back; form posts are
// redirected to the campaign list.
func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var body createCampaignRequest
	isJSON := handler.IsJSON(r)
	if isJSON {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			handler.WriteError(w, &appErrors.ErrInvalidInput{Message: "invalid body"})
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			handler.WriteError(w, &appErrors.ErrInvalidInput{Message: "invalid form"})
			return
		}
		body.Name = r.PostFormValue("name")
		body.StartDate = r.PostFormValue("start_date")
		body.EndDate = r.PostFormValue("end_date")
	}

	campaign, err := c.CampaignService.ScheduleCampaign(r.Context(), body.Name, body.StartDate, body.EndDate)
	if err != nil {
		handler.WriteError(w, err)
		return
	}
	if !isJSON {
		http.Redirect(w, r, "/campaigns", http.StatusSeeOther)
		return
	}
	handler.WriteJSON(w, http.StatusCreated, campaign)
}

// UploadSchedule extracts candidates from the multipart "file" part and ingests them in document
// order.
func (c *CampaignController) UploadSchedule(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, c.MaxUploadBytes)
	if err := r.ParseMultipartForm(min(c.MaxUploadBytes, uploadMemory)); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handler.WriteJSON(w, http.StatusRequestEntityTooLarge, handler.ErrorResponse{
				Error: "File is too large.",
				Code:  appErrors.CodeInvalidInput,
			})
			return
		}
		handler.WriteError(w, &appErrors.ErrInvalidInput{Message: "No file part"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		handler.WriteError(w, &appErrors.ErrInvalidInput{Message: "No file part"})
		return
	}
	defer file.Close()
	if header.Filename == "" {
		handler.WriteError(w, &appErrors.ErrInvalidInput{Message: "No selected file"})
		return
	}

	payload, err := io.ReadAll(file)
	if err != nil {
		c.logger().Error("failed to read upload", zap.String("file", header.Filename), zap.Error(err))
		handler.WriteError(w, &appErrors.ErrInvalidInput{Message: "could not read file"})
		return
	}

	candidates := c.Extractor.Extract(r.Context(), header.Filename, payload)
	result := c.CampaignService.IngestBatch(r.Context(), candidates)
	c.logger().Info("schedule uploaded",
		zap.String("file", header.Filename),
		zap.Int("candidates", len(candidates)),
		zap.Int("accepted", len(result.Accepted)),
	)

	handler.WriteJSON(w, http.StatusOK, UploadResponse{
		Accepted:      result.AcceptedNames(),
		Rejected:      result.Rejected,
		AcceptedCount: len(result.Accepted),
		RejectedCount: len(result.Rejected),
	})
}

func (c *CampaignController) logger() *zap.Logger {
	return logging.OrNop(c.Logger)
}
