package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/ntalo/internal/model"
)

// CustomImageServiceInterface はカスタム挿絵ハンドラーが必要とするサービスインターフェース。
type CustomImageServiceInterface interface {
	// SaveCustomImage はカスタム挿絵を保存する。既存の挿絵は上書きされる。
	SaveCustomImage(ctx context.Context, title string, pageIndex int, dataURL string) error
	// GetCustomImage はカスタム挿絵を取得する。未保存の場合はfalseを返す。
	GetCustomImage(ctx context.Context, title string, pageIndex int) (string, bool, error)
	// DeleteCustomImage はカスタム挿絵を削除する。冪等。
	DeleteCustomImage(ctx context.Context, title string, pageIndex int) error
}

// ImageHandler はカスタム挿絵のHTTPハンドラー。
type ImageHandler struct {
	service CustomImageServiceInterface
}

// NewImageHandler はImageHandlerを生成する。
func NewImageHandler(service CustomImageServiceInterface) *ImageHandler {
	return &ImageHandler{service: service}
}

// customImageRequest はカスタム挿絵保存リクエストのボディ。
type customImageRequest struct {
	ImageData string `json:"imageData"` // data URL形式
}

// customImageResponse はカスタム挿絵のAPIレスポンス。
type customImageResponse struct {
	ImageData string `json:"imageData"`
}

// pageIndexParam はURLパスパラメータからページ添字を取得する。
func pageIndexParam(r *http.Request) (int, *model.APIError) {
	raw := chi.URLParam(r, "pageIndex")
	pageIndex, err := strconv.Atoi(raw)
	if err != nil || pageIndex < 0 {
		return 0, model.NewInvalidRequestError("pageIndexが不正です: " + raw)
	}
	return pageIndex, nil
}

// SaveCustomImage はカスタム挿絵を保存する。
// PUT /api/stories/{title}/pages/{pageIndex}/image
func (h *ImageHandler) SaveCustomImage(w http.ResponseWriter, r *http.Request) {
	pageIndex, apiErr := pageIndexParam(r)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	var req customImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}
	if !strings.HasPrefix(req.ImageData, "data:image/") {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("imageDataはdata URL形式の画像である必要があります"))
		return
	}

	if err := h.service.SaveCustomImage(r.Context(), titleParam(r), pageIndex, req.ImageData); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetCustomImage はカスタム挿絵を取得する。
// GET /api/stories/{title}/pages/{pageIndex}/image
func (h *ImageHandler) GetCustomImage(w http.ResponseWriter, r *http.Request) {
	pageIndex, apiErr := pageIndexParam(r)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	dataURL, found, err := h.service.GetCustomImage(r.Context(), titleParam(r), pageIndex)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if !found {
		writeAPIErrorResponse(w, http.StatusNotFound,
			model.NewInvalidRequestError("カスタム挿絵が保存されていません"))
		return
	}
	writeJSON(w, http.StatusOK, customImageResponse{ImageData: dataURL})
}

// DeleteCustomImage はカスタム挿絵を削除する。冪等。
// DELETE /api/stories/{title}/pages/{pageIndex}/image
func (h *ImageHandler) DeleteCustomImage(w http.ResponseWriter, r *http.Request) {
	pageIndex, apiErr := pageIndexParam(r)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	if err := h.service.DeleteCustomImage(r.Context(), titleParam(r), pageIndex); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
