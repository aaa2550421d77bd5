package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/yoockh/applytrack/internal/models"
	"github.com/yoockh/applytrack/internal/repositories"
	"github.com/yoockh/applytrack/internal/utils"
)

// MaxUploadBytes bounds a single resume or cover letter upload.
const MaxUploadBytes = 10 << 20

type DocumentInput struct {
	Name            string `json:"name"`
	FileName        string `json:"fileName"`
	FileType        string `json:"fileType"`
	FileSize        int    `json:"fileSize"`
	FileContent     string `json:"fileContent"`
	TextContent     string `json:"textContent"`
	DetectedCompany string `json:"detectedCompany"`
	DetectedRole    string `json:"detectedRole"`
	TargetCompany   string `json:"targetCompany"`
	TargetRole      string `json:"targetRole"`
	Notes           string `json:"notes"`
}

type DocumentPatch struct {
	Name            *string `json:"name"`
	TextContent     *string `json:"textContent"`
	DetectedCompany *string `json:"detectedCompany"`
	DetectedRole    *string `json:"detectedRole"`
	TargetCompany   *string `json:"targetCompany"`
	TargetRole      *string `json:"targetRole"`
	Notes           *string `json:"notes"`
}

type UploadInput struct {
	Name          string
	FileName      string
	TargetCompany string
	TargetRole    string
	Body          io.Reader
}

type DocumentService interface {
	Kind() models.DocumentKind
	List(ctx context.Context, search string) ([]models.DocumentView, error)
	Get(ctx context.Context, id string) (*models.DocumentView, error)
	Create(ctx context.Context, in DocumentInput) (*models.DocumentView, error)
	Upload(ctx context.Context, in UploadInput) (*models.DocumentView, error)
	Update(ctx context.Context, id string, p DocumentPatch) (*models.DocumentView, error)
	Delete(ctx context.Context, id string) error

	Link(ctx context.Context, documentID, jobID string) (*models.DocumentLink, error)
	Unlink(ctx context.Context, documentID, jobID string) error
	Jobs(ctx context.Context, documentID string) ([]models.JobDescription, error)
}

type documentService struct {
	docs repositories.DocumentRepository
	jobs repositories.JobRepository
}

func NewDocumentService(docs repositories.DocumentRepository, jobs repositories.JobRepository) DocumentService {
	return &documentService{docs: docs, jobs: jobs}
}

func (s *documentService) Kind() models.DocumentKind { return s.docs.Kind() }

func (s *documentService) op(method string) string {
	return fmt.Sprintf("DocumentService(%s).%s", s.docs.Kind().Name, method)
}

func (s *documentService) List(ctx context.Context, search string) ([]models.DocumentView, error) {
	op := s.op("List")

	docs, err := s.docs.List(ctx, strings.TrimSpace(search))
	if err != nil {
		return nil, utils.Wrap(op, "failed to list documents", err)
	}
	links, err := s.docs.LinksForJobs(ctx, nil)
	if err != nil {
		return nil, utils.Wrap(op, "failed to load links", err)
	}
	byDoc := groupByDocument(links)

	out := make([]models.DocumentView, 0, len(docs))
	for _, d := range docs {
		out = append(out, models.DocumentView{Document: d, LinkedJobIDs: nonNilIDs(byDoc[d.ID])})
	}
	return out, nil
}

func (s *documentService) Get(ctx context.Context, id string) (*models.DocumentView, error) {
	op := s.op("Get")

	d, err := s.load(ctx, op, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, op, d)
}

func (s *documentService) load(ctx context.Context, op, id string) (*models.Document, error) {
	if strings.TrimSpace(id) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "id is required", nil)
	}
	d, err := s.docs.GetByID(ctx, id)
	if err != nil {
		return nil, utils.Wrap(op, strings.ToLower(s.docs.Kind().Label), err)
	}
	return d, nil
}

func (s *documentService) view(ctx context.Context, op string, d *models.Document) (*models.DocumentView, error) {
	links, err := s.docs.LinksForDocument(ctx, d.ID)
	if err != nil {
		return nil, utils.Wrap(op, "failed to load links", err)
	}
	ids := make([]string, 0, len(links))
	for _, l := range links {
		ids = append(ids, l.JobDescriptionID)
	}
	return &models.DocumentView{Document: *d, LinkedJobIDs: ids}, nil
}

func (s *documentService) Create(ctx context.Context, in DocumentInput) (*models.DocumentView, error) {
	op := s.op("Create")

	if strings.TrimSpace(in.Name) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "name is required", nil)
	}
	now := time.Now().UTC()
	d := &models.Document{
		ID:              uuid.NewString(),
		Name:            strings.TrimSpace(in.Name),
		FileName:        in.FileName,
		FileType:        in.FileType,
		FileSize:        in.FileSize,
		FileContent:     in.FileContent,
		TextContent:     in.TextContent,
		DetectedCompany: in.DetectedCompany,
		DetectedRole:    in.DetectedRole,
		TargetCompany:   in.TargetCompany,
		TargetRole:      in.TargetRole,
		Notes:           in.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.docs.Create(ctx, d); err != nil {
		return nil, utils.Wrap(op, "failed to create document", err)
	}
	return &models.DocumentView{Document: *d, LinkedJobIDs: []string{}}, nil
}

var uploadTypes = map[string]string{
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".txt":  "text/plain",
	".md":   "text/plain",
}

// sniffType checks the leading bytes against the extension. docx files sniff
// as zip archives.
func sniffType(fileName string, data []byte) (string, bool) {
	ext := strings.ToLower(filepath.Ext(fileName))
	want, ok := uploadTypes[ext]
	if !ok {
		return "", false
	}
	got := http.DetectContentType(data)
	switch want {
	case "application/pdf":
		return want, got == "application/pdf"
	case "text/plain":
		return want, strings.HasPrefix(got, "text/plain") && utf8.Valid(data)
	default:
		return want, got == "application/zip"
	}
}

func (s *documentService) Upload(ctx context.Context, in UploadInput) (*models.DocumentView, error) {
	op := s.op("Upload")

	if in.Body == nil || in.FileName == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "file is required", nil)
	}
	data, err := io.ReadAll(io.LimitReader(in.Body, MaxUploadBytes+1))
	if err != nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, "failed to read upload", err)
	}
	if len(data) == 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "file is empty", nil)
	}
	if len(data) > MaxUploadBytes {
		return nil, utils.E(utils.CodeInvalidArgument, op, "file exceeds 10MB", nil)
	}
	mime, ok := sniffType(in.FileName, data)
	if !ok {
		return nil, utils.E(utils.CodeInvalidArgument, op, "only pdf, docx and txt files are accepted", nil)
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(in.FileName), filepath.Ext(in.FileName))
	}
	input := DocumentInput{
		Name:          name,
		FileName:      filepath.Base(in.FileName),
		FileType:      mime,
		FileSize:      len(data),
		FileContent:   base64.StdEncoding.EncodeToString(data),
		TargetCompany: in.TargetCompany,
		TargetRole:    in.TargetRole,
	}
	// PDF and docx text extraction is out of scope; only plain text is indexed.
	if mime == "text/plain" {
		input.TextContent = string(data)
	}
	return s.Create(ctx, input)
}

func (s *documentService) Update(ctx context.Context, id string, p DocumentPatch) (*models.DocumentView, error) {
	op := s.op("Update")

	d, err := s.load(ctx, op, id)
	if err != nil {
		return nil, err
	}
	if p.Name != nil {
		if strings.TrimSpace(*p.Name) == "" {
			return nil, utils.E(utils.CodeInvalidArgument, op, "name cannot be empty", nil)
		}
		d.Name = strings.TrimSpace(*p.Name)
	}
	for _, f := range []struct {
		dst *string
		v   *string
	}{
		{&d.TextContent, p.TextContent},
		{&d.DetectedCompany, p.DetectedCompany},
		{&d.DetectedRole, p.DetectedRole},
		{&d.TargetCompany, p.TargetCompany},
		{&d.TargetRole, p.TargetRole},
		{&d.Notes, p.Notes},
	} {
		if f.v != nil {
			*f.dst = *f.v
		}
	}
	d.UpdatedAt = time.Now().UTC()

	if err := s.docs.Update(ctx, d); err != nil {
		return nil, utils.Wrap(op, "failed to update document", err)
	}
	return s.view(ctx, op, d)
}

func (s *documentService) Delete(ctx context.Context, id string) error {
	op := s.op("Delete")

	if strings.TrimSpace(id) == "" {
		return utils.E(utils.CodeInvalidArgument, op, "id is required", nil)
	}
	if err := s.docs.Delete(ctx, id); err != nil {
		return utils.Wrap(op, "failed to delete document", err)
	}
	return nil
}

func (s *documentService) Link(ctx context.Context, documentID, jobID string) (*models.DocumentLink, error) {
	op := s.op("Link")

	if documentID == "" || jobID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "document id and job id are required", nil)
	}
	if _, err := s.load(ctx, op, documentID); err != nil {
		return nil, err
	}
	if _, err := s.jobs.GetByID(ctx, jobID); err != nil {
		return nil, utils.Wrap(op, "job", err)
	}

	l := &models.DocumentLink{
		ID:               uuid.NewString(),
		JobDescriptionID: jobID,
		DocumentID:       documentID,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.docs.Link(ctx, l); err != nil {
		if errors.Is(err, utils.ErrConflict) {
			return nil, utils.E(utils.CodeAlreadyExists, op,
				fmt.Sprintf("%s is already linked to this job", strings.ToLower(s.docs.Kind().Label)), err)
		}
		return nil, utils.Wrap(op, "failed to link document", err)
	}
	return l, nil
}

func (s *documentService) Unlink(ctx context.Context, documentID, jobID string) error {
	op := s.op("Unlink")

	if documentID == "" || jobID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "document id and job id are required", nil)
	}
	if _, err := s.docs.Unlink(ctx, jobID, documentID); err != nil {
		return utils.Wrap(op, "failed to unlink document", err)
	}
	return nil
}

func (s *documentService) Jobs(ctx context.Context, documentID string) ([]models.JobDescription, error) {
	op := s.op("Jobs")

	if _, err := s.load(ctx, op, documentID); err != nil {
		return nil, err
	}
	links, err := s.docs.LinksForDocument(ctx, documentID)
	if err != nil {
		return nil, utils.Wrap(op, "failed to load links", err)
	}
	out := make([]models.JobDescription, 0, len(links))
	for _, l := range links {
		j, err := s.jobs.GetByID(ctx, l.JobDescriptionID)
		if err != nil {
			return nil, utils.Wrap(op, "failed to load linked job", err)
		}
		out = append(out, *j)
	}
	return out, nil
}
