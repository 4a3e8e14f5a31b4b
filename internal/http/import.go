package httpapi

import (
	"fmt"
	"io"
	"mime"
	"net/http"

	"farmacia-data/internal/domain"
	"farmacia-data/internal/importer"
	"farmacia-data/internal/service"

	"go.uber.org/zap"
)

const (
	maxUploadBytes = 10 << 20
	xlsxMIME       = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// handleImport 接受 multipart 表单字段 file，或直接以请求体上传 .xlsx
func handleImport(w http.ResponseWriter, r *http.Request, imports *service.ImportService, kind importer.Kind, logger *zap.Logger) {
	body, closeFn, err := uploadedFile(r)
	if err != nil {
		writeError(w, err)
		return
	}
	defer closeFn()

	summary, err := imports.Import(r.Context(), sessionFromReq(r), kind, body)
	if err != nil {
		logger.Warn("Import failed", zap.String("kind", string(kind)), zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(summary))
}

func uploadedFile(r *http.Request) (io.Reader, func(), error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return io.LimitReader(r.Body, maxUploadBytes), func() {}, nil
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, nil, fmt.Errorf("%w: invalid upload: %v", domain.ErrInvalidInput, err)
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, nil, fmt.Errorf("%w: missing file field: %v", domain.ErrInvalidInput, err)
	}
	return file, func() { _ = file.Close() }, nil
}

// handleTemplate 下载导入模板（只有表头）
func handleTemplate(w http.ResponseWriter, kind importer.Kind) {
	data, err := importer.Template(kind)
	if err != nil {
		writeError(w, err)
		return
	}
	writeFile(w, xlsxMIME, fmt.Sprintf("plantilla_%s.xlsx", kind), data)
}
