package dto

type AttachmentRequest struct {
	ID string `validate:"required,uuid"`
}

type ListRequest struct {
	Limit  int `validate:"omitempty,min=1,max=100"`
	Offset int `validate:"min=0"`
}
