package handlers

// Request bodies. Binding tags are enforced by middleware.Validate before a
// handler runs; fields not declared here are dropped.

// SignUpRequest is the JSON payload for POST /users/signup.
type SignUpRequest struct {
	Name  string `json:"name" binding:"required,notblank,max=255" example:"Ada Lovelace"`
	Email string `json:"email" binding:"required,email,max=255" example:"ada@example.com"`
	// 8–20 letters and digits with at least one upper, one lower and one digit.
	Password        string `json:"password" binding:"required,min=8,max=20,strongpassword" example:"Passw0rdX"`
	PasswordConfirm string `json:"passwordConfirm" binding:"required,eqfield=Password" example:"Passw0rdX"`
}

// LogInRequest is the JSON payload for POST /users/login.
type LogInRequest struct {
	Email    string `json:"email" binding:"required,email" example:"ada@example.com"`
	Password string `json:"password" binding:"required,min=8,max=20" example:"Passw0rdX"`
}

// UpdateUserRequest is the JSON payload for PATCH /users/{id}. Absent fields
// are left unchanged.
type UpdateUserRequest struct {
	Name  *string `json:"name" binding:"omitempty,notblank,max=255" example:"Ada King"`
	Email *string `json:"email" binding:"omitempty,email,max=255" example:"ada.king@example.com"`
}

// CreatePostRequest is the JSON payload for POST /posts.
type CreatePostRequest struct {
	Title   string `json:"title" binding:"required,notblank,max=255" example:"Hello"`
	Content string `json:"content" binding:"required,notblank" example:"First post"`
	UserID  string `json:"userId" binding:"required,uuid" example:"3f2504e0-4f89-41d3-9a0c-0305e82c3301"`
}

// UpdatePostRequest is the JSON payload for PUT /posts/{id}. Absent fields
// are left unchanged.
type UpdatePostRequest struct {
	Title   *string `json:"title" binding:"omitempty,notblank,max=255" example:"Hello again"`
	Content *string `json:"content" binding:"omitempty,notblank" example:"Edited"`
	UserID  *string `json:"userId" binding:"omitempty,uuid" example:"3f2504e0-4f89-41d3-9a0c-0305e82c3301"`
}
