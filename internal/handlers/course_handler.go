package handlers

import (
	"net/http"

	"ourskilllab/internal/services"
	"ourskilllab/internal/utils"
	"ourskilllab/internal/validators"

	"github.com/gin-gonic/gin"
)

type CourseHandler struct {
	courseService services.CourseService
	maxUploadSize int64
}

func NewCourseHandler(courseService services.CourseService, maxUploadSize int64) *CourseHandler {
	if maxUploadSize <= 0 {
		maxUploadSize = utils.MaxImageUploadSize
	}
	return &CourseHandler{
		courseService: courseService,
		maxUploadSize: maxUploadSize,
	}
}

// ListCourses returns the public catalog.
func (h *CourseHandler) ListCourses(c *gin.Context) {
	courses, err := h.courseService.ListCourses(c.Request.Context())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Courses retrieved successfully", courses, &utils.Meta{Count: len(courses)})
}

func (h *CourseHandler) GetCourse(c *gin.Context) {
	courseID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	course, err := h.courseService.GetCourse(c.Request.Context(), courseID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Course retrieved successfully", course)
}

// AdminListCourses is the paginated catalog for the admin dashboard.
func (h *CourseHandler) AdminListCourses(c *gin.Context) {
	params := utils.GetPaginationParams(c, "created_at", "title", "price")
	courses, total, err := h.courseService.ListCoursesPaginated(c.Request.Context(), params)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	meta := &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
	}
	utils.SuccessResponseWithMeta(c, "Courses retrieved successfully", courses, meta)
}

func (h *CourseHandler) CreateCourse(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}

	var request validators.CreateCourseRequest
	if !bindJSON(c, &request, validators.ValidateCreateCourse) {
		return
	}

	course, err := h.courseService.CreateCourse(c.Request.Context(), principal, &request)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Course created successfully", course)
}

// UploadCourseImage accepts a multipart "image" field, resizes it and
// returns the stored URL.
func (h *CourseHandler) UploadCourseImage(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize)
	fileHeader, err := c.FormFile("image")
	if err != nil {
		utils.BadRequestResponse(c, "Image file is required")
		return
	}
	if fileHeader.Size > h.maxUploadSize {
		utils.BadRequestResponse(c, "Image file is too large")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		utils.BadRequestResponse(c, "Could not read image")
		return
	}
	defer file.Close()

	response, err := h.courseService.UploadCourseImage(c.Request.Context(), principal, &services.ImageUpload{
		Filename: fileHeader.Filename,
		Reader:   file,
	})
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Image uploaded successfully", response)
}
