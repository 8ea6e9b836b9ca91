package model

type OpenPageRequest struct {
	URL string `json:"url" binding:"required"`
}

type SubmitRequest struct {
	Question string `json:"question" binding:"required"`
}
