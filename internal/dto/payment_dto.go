package dto

type CreateCheckoutSessionInput struct {
	CourseID string `json:"courseId" binding:"required,uuid"`
}

type CheckoutSessionResponse struct {
	URL string `json:"url"`
}
