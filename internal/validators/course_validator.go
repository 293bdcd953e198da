package validators

import "strings"

type CreateCourseRequest struct {
	Title       string  `json:"title" validate:"required,min=3,max=200"`
	Description string  `json:"description" validate:"required,min=10,max=5000"`
	Price       float64 `json:"price" validate:"required,gt=0"`
	ImageURL    string  `json:"image_url" validate:"required,max=2048"`
	Type        string  `json:"type" validate:"required,course_type"`
	Duration    int     `json:"duration" validate:"required,gt=0"`
	Instructor  string  `json:"instructor" validate:"required,min=2,max=100"`
}

func ValidateCreateCourse(req *CreateCourseRequest) error {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	req.ImageURL = strings.TrimSpace(req.ImageURL)
	req.Instructor = strings.TrimSpace(req.Instructor)
	req.Type = strings.ToLower(strings.TrimSpace(req.Type))
	return ValidateStruct(req).AsAppError()
}
