package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"ourskilllab/internal/models"
	"ourskilllab/internal/repositories/interfaces"
	"ourskilllab/internal/utils"
	"ourskilllab/internal/validators"
	"ourskilllab/pkg/logger"
	"ourskilllab/pkg/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CourseService interface {
	ListCourses(ctx context.Context) ([]*models.Course, error)
	ListCoursesPaginated(ctx context.Context, params *utils.PaginationParams) ([]*models.Course, int64, error)
	GetCourse(ctx context.Context, courseID primitive.ObjectID) (*models.Course, error)
	CreateCourse(ctx context.Context, principal *models.Principal, request *validators.CreateCourseRequest) (*models.Course, error)
	UploadCourseImage(ctx context.Context, principal *models.Principal, upload *ImageUpload) (*storage.UploadResponse, error)
}

type ImageUpload struct {
	Filename string
	Reader   io.Reader
}

type ImageConfig struct {
	MaxWidth  uint
	MaxHeight uint
	Folder    string
}

type courseService struct {
	courseRepo interfaces.CourseRepository
	storage    storage.StorageProvider
	images     ImageConfig
	logger     *logger.Logger
}

func NewCourseService(
	courseRepo interfaces.CourseRepository,
	storage storage.StorageProvider,
	images ImageConfig,
	logger *logger.Logger,
) CourseService {
	if images.Folder == "" {
		images.Folder = utils.ImageUploadFolder
	}
	return &courseService{
		courseRepo: courseRepo,
		storage:    storage,
		images:     images,
		logger:     logger,
	}
}

func (s *courseService) ListCourses(ctx context.Context) ([]*models.Course, error) {
	courses, err := s.courseRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return courses, nil
}

func (s *courseService) ListCoursesPaginated(ctx context.Context, params *utils.PaginationParams) ([]*models.Course, int64, error) {
	courses, total, err := s.courseRepo.List(ctx, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list courses: %w", err)
	}
	return courses, total, nil
}

func (s *courseService) GetCourse(ctx context.Context, courseID primitive.ObjectID) (*models.Course, error) {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, utils.NotFound("Course not found")
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return course, nil
}

func (s *courseService) CreateCourse(ctx context.Context, principal *models.Principal, request *validators.CreateCourseRequest) (*models.Course, error) {
	if !principal.IsAdmin() {
		return nil, utils.NotAuthorized("Not authorized")
	}

	now := time.Now().UTC()
	course := &models.Course{
		Title:         request.Title,
		Description:   request.Description,
		Price:         utils.RoundCurrency(request.Price),
		ImageURL:      request.ImageURL,
		Type:          models.CourseType(request.Type),
		Duration:      request.Duration,
		Instructor:    request.Instructor,
		EnrolledUsers: []primitive.ObjectID{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.courseRepo.Create(ctx, course); err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	s.logger.LogUserAction(principal.UserID, "create_course", map[string]interface{}{
		"course_id": course.ID.Hex(),
		"title":     course.Title,
	})
	return course, nil
}

func (s *courseService) UploadCourseImage(ctx context.Context, principal *models.Principal, upload *ImageUpload) (*storage.UploadResponse, error) {
	if !principal.IsAdmin() {
		return nil, utils.NotAuthorized("Not authorized")
	}
	if upload == nil || upload.Reader == nil {
		return nil, utils.Invalid("Image file is required")
	}
	if !utils.IsValidImageFormat(upload.Filename) {
		return nil, utils.Invalid("Unsupported image format")
	}

	data, contentType, err := utils.ProcessCourseImage(upload.Reader, upload.Filename, s.images.MaxWidth, s.images.MaxHeight)
	if err != nil {
		return nil, utils.Invalid("Could not read image")
	}

	ext := ".jpg"
	if contentType == "image/png" {
		ext = ".png"
	}
	key := utils.GenerateUniqueFilename(s.images.Folder, "image"+ext)

	resp, err := s.storage.Upload(ctx, &storage.UploadRequest{
		Key:          key,
		Reader:       bytes.NewReader(data),
		ContentType:  contentType,
		Size:         int64(len(data)),
		CacheControl: "public, max-age=31536000",
		Metadata:     map[string]string{"uploaded_by": principal.UserID.Hex()},
	})
	if err != nil {
		return nil, utils.Upstream("Failed to upload image", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"key":      resp.Key,
		"provider": s.storage.Name(),
		"size":     resp.Size,
	}).Info("Course image uploaded")
	return resp, nil
}
