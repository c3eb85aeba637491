package dto

import "io"

type UserListQuery struct {
	PageQuery
	Role string `form:"role" binding:"omitempty,oneof=student teacher admin"`
}

// UpdateUserInput binds the multipart form fields of PUT /api/users/:id.
// The profile picture file is handled separately by the handler.
type UpdateUserInput struct {
	Name     *string `form:"name" binding:"omitempty,min=3,max=100"`
	Bio      *string `form:"bio" binding:"omitempty,max=500"`
	Password *string `form:"password" binding:"omitempty,min=6"`

	// Admin-only fields; a self-edit supplying these is rejected.
	Role       *string `form:"role" binding:"omitempty,oneof=student teacher admin"`
	IsVerified *bool   `form:"isVerified"`
	IsActive   *bool   `form:"isActive"`
}

// UploadedFile carries one multipart file into the service layer.
type UploadedFile struct {
	Reader   io.Reader
	FileName string
}
