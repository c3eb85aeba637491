package dto

type CreateContentInput struct {
	Title       string `form:"title" binding:"required,max=255"`
	Subject     string `form:"subject" binding:"required,max=100"`
	Description string `form:"description" binding:"required,max=10000"`
	Price       int64  `form:"price" binding:"required,min=0"`
}

type UpdateContentInput struct {
	Title       *string `form:"title" binding:"omitempty,max=255"`
	Subject     *string `form:"subject" binding:"omitempty,max=100"`
	Description *string `form:"description" binding:"omitempty,max=10000"`
	Price       *int64  `form:"price" binding:"omitempty,min=0"`
}

type ContentSearchQuery struct {
	PageQuery
	Q string `form:"q"`
}

type ContentSearchHit struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Subject   string `json:"subject"`
	Excerpt   string `json:"excerpt"`
	Price     int64  `json:"price"`
	OwnerName string `json:"owner_name"`
	CreatedAt int64  `json:"created_at"`
}
