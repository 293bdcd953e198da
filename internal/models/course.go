package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CourseType string

const (
	CourseTypeLive     CourseType = "live"
	CourseTypeRecorded CourseType = "recorded"
)

type Course struct {
	ID            primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Title         string               `json:"title" bson:"title"`
	Description   string               `json:"description" bson:"description"`
	Price         float64              `json:"price" bson:"price"`
	ImageURL      string               `json:"image_url" bson:"image_url"`
	Type          CourseType           `json:"type" bson:"type"`
	Duration      int                  `json:"duration" bson:"duration"` // minutes
	Instructor    string               `json:"instructor" bson:"instructor"`
	EnrolledUsers []primitive.ObjectID `json:"-" bson:"enrolled_users"`
	CreatedAt     time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at" bson:"updated_at"`
}

type CourseSummary struct {
	ID    primitive.ObjectID `json:"id" bson:"_id"`
	Title string             `json:"title" bson:"title"`
	Price float64            `json:"price" bson:"price"`
	Type  CourseType         `json:"type" bson:"type"`
}
