package authsdk

// ErrorResponse is the decoded form of an APIError body.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// ============================================================================
// Auth Types
// ============================================================================

// SigninRequest authenticates by username or email.
type SigninRequest struct {
	Identifier string `json:"identifier" example:"alice@example.com"`
	Password   string `json:"password" example:"correct horse battery staple"`
}

type SigninResponse struct {
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	ID           int64    `json:"id"`
	Username     string   `json:"username"`
	Roles        []string `json:"roles"`

	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int `json:"expiresIn"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type RefreshTokenResponse struct {
	RefreshToken string `json:"refreshToken"`
	AccessToken  string `json:"accessToken"`
	ExpiresIn    int    `json:"expiresIn"`
}

type RegisterRequest struct {
	Username string `json:"username" example:"alice"`
	Email    string `json:"email" example:"alice@example.com"`
	Password string `json:"password" example:"correct horse battery staple"`
}

// MessageResponse is returned by register and logout.
type MessageResponse struct {
	Message string `json:"message"`
}

// ============================================================================
// Resource Types
// ============================================================================

type UserResponse struct {
	ID        int64    `json:"id"`
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	Roles     []string `json:"roles"`
	CreatedAt string   `json:"createdAt"`
}

type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Priority    string `json:"priority,omitempty" example:"MEDIUM"`
}

type UpdateTaskStatusRequest struct {
	Status string `json:"status" example:"IN_PROGRESS"`
}

type TaskResponse struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	AuthorID    int64  `json:"authorId"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

type CreateCommentRequest struct {
	TaskID  int64  `json:"taskId"`
	Content string `json:"content"`
}

type CommentResponse struct {
	ID        int64  `json:"id"`
	TaskID    int64  `json:"taskId"`
	AuthorID  int64  `json:"authorId"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse is returned by /livez and /readyz (readyz adds Checks).
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime,omitempty"`
	Version string        `json:"version,omitempty"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports each critical dependency as "ok" or "error".
type HealthChecks struct {
	Database     string `json:"database"`
	RefreshStore string `json:"refresh_store"`
	Signer       string `json:"signer"`
}
