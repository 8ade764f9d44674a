package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/skynet-legal/legaleagle-api/internal/dto"
	"github.com/skynet-legal/legaleagle-api/internal/middleware"
	"github.com/skynet-legal/legaleagle-api/internal/models"
	appErrors "github.com/skynet-legal/legaleagle-api/pkg/errors"
)

type fakeAgreementSrv struct {
	uploadResp *dto.AgreementResponse
	uploadErr  error
	lastUpload struct {
		userID   string
		fileName string
		mimeType string
		size     int
	}
	listResp   []dto.AgreementResponse
	lastFilter models.AgreementFilter
	getResp    *dto.AgreementResponse
	getErr     error
	deleted    int64
}

func (f *fakeAgreementSrv) Upload(_ context.Context, userID, fileName, mimeType string, data []byte) (*dto.AgreementResponse, error) {
	f.lastUpload.userID = userID
	f.lastUpload.fileName = fileName
	f.lastUpload.mimeType = mimeType
	f.lastUpload.size = len(data)
	return f.uploadResp, f.uploadErr
}

func (f *fakeAgreementSrv) List(_ context.Context, _ string, filter models.AgreementFilter) ([]dto.AgreementResponse, *models.Pagination, error) {
	f.lastFilter = filter
	return f.listResp, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: len(f.listResp)}, nil
}

func (f *fakeAgreementSrv) Get(context.Context, string, string) (*dto.AgreementResponse, error) {
	return f.getResp, f.getErr
}

func (f *fakeAgreementSrv) DocumentURL(context.Context, string, string) (*dto.DocumentURLResponse, error) {
	return &dto.DocumentURLResponse{URL: "https://documents.local/signed"}, nil
}

func (f *fakeAgreementSrv) Delete(context.Context, string, string) error {
	return f.getErr
}

func (f *fakeAgreementSrv) DeleteAll(context.Context, string) (int64, error) {
	return f.deleted, nil
}

func authedContext(t *testing.T, req *http.Request) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-1"})
	return c, rec
}

func multipartBody(t *testing.T, fieldName, fileName, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	header := make(map[string][]string)
	header["Content-Disposition"] = []string{`form-data; name="` + fieldName + `"; filename="` + fileName + `"`}
	header["Content-Type"] = []string{contentType}
	part, err := writer.CreatePart(header)
	assert.NoError(t, err)
	_, err = part.Write(content)
	assert.NoError(t, err)
	assert.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestAgreementHandlerUploadSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeAgreementSrv{uploadResp: &dto.AgreementResponse{ID: "agr-1", Status: models.StatusActive}}
	handler := NewAgreementHandler(srv)

	body, contentType := multipartBody(t, "file", "lease.pdf", "application/pdf", []byte("%PDF-1.4 lease"))
	req := httptest.NewRequest(http.MethodPost, "/agreements", body)
	req.Header.Set("Content-Type", contentType)
	c, rec := authedContext(t, req)

	handler.Upload(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "user-1", srv.lastUpload.userID)
	assert.Equal(t, "lease.pdf", srv.lastUpload.fileName)
	assert.Equal(t, "application/pdf", srv.lastUpload.mimeType)
	assert.Equal(t, len("%PDF-1.4 lease"), srv.lastUpload.size)
}

func TestAgreementHandlerUploadRequiresFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAgreementHandler(&fakeAgreementSrv{})

	req := httptest.NewRequest(http.MethodPost, "/agreements", nil)
	c, rec := authedContext(t, req)

	handler.Upload(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAgreementHandlerUploadUnauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAgreementHandler(&fakeAgreementSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/agreements", nil)

	handler.Upload(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAgreementHandlerListParsesFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeAgreementSrv{listResp: []dto.AgreementResponse{{ID: "agr-1"}}}
	handler := NewAgreementHandler(srv)

	req := httptest.NewRequest(http.MethodGet, "/agreements?status=Expired&search=acme&page=2&page_size=5", nil)
	c, rec := authedContext(t, req)

	handler.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, srv.lastFilter.Status)
	assert.Equal(t, models.StatusExpired, *srv.lastFilter.Status)
	assert.Equal(t, "acme", srv.lastFilter.Search)
	assert.Equal(t, 2, srv.lastFilter.Page)
	assert.Equal(t, 5, srv.lastFilter.PageSize)
}

func TestAgreementHandlerListRejectsUnknownStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAgreementHandler(&fakeAgreementSrv{})

	req := httptest.NewRequest(http.MethodGet, "/agreements?status=Dormant", nil)
	c, rec := authedContext(t, req)

	handler.List(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAgreementHandlerListDefaultsPagination(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeAgreementSrv{}
	handler := NewAgreementHandler(srv)

	req := httptest.NewRequest(http.MethodGet, "/agreements?page=abc", nil)
	c, rec := authedContext(t, req)

	handler.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, srv.lastFilter.Page)
	assert.Equal(t, 20, srv.lastFilter.PageSize)
}

func TestAgreementHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAgreementHandler(&fakeAgreementSrv{getErr: appErrors.ErrNotFound})

	req := httptest.NewRequest(http.MethodGet, "/agreements/missing", nil)
	c, rec := authedContext(t, req)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Get(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAgreementHandlerDeleteAll(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAgreementHandler(&fakeAgreementSrv{deleted: 3})

	req := httptest.NewRequest(http.MethodDelete, "/agreements", nil)
	c, rec := authedContext(t, req)

	handler.DeleteAll(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data map[string]interface{} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, float64(3), envelope.Data["deleted"])
}
