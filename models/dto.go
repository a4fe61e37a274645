package models

type RegisterRequest struct {
	Username string   `json:"username" binding:"required,min=3,max=50"`
	Email    string   `json:"email" binding:"required,email"`
	Password string   `json:"password" binding:"required,min=6"`
	Role     UserRole `json:"role,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// CreateDraftRequest starts a draft either from a bare title or as a fork of
// an existing published article. PublishedID takes precedence when both are set.
type CreateDraftRequest struct {
	Title       string `json:"title"`
	PublishedID *uint  `json:"published_id"`
	AuthorIDs   []uint `json:"author_ids"`
}

type SaveDraftRequest struct {
	Title         string         `json:"title" binding:"required,min=1,max=255" validate:"required,min=1,max=255"`
	Content       Blocks         `json:"content"`
	ThumbnailCrop *ThumbnailCrop `json:"thumbnail_crop"`
	AuthorIDs     []uint         `json:"author_ids"`
}

// PublishRequest publishes an existing draft (DraftID set, content and
// thumbnail taken from the draft row) or editor state sent inline.
type PublishRequest struct {
	DraftID       *uint          `json:"draft_id"`
	Title         string         `json:"title" binding:"required,min=1,max=255" validate:"required,min=1,max=255"`
	Content       Blocks         `json:"content"`
	ThumbnailCrop *ThumbnailCrop `json:"thumbnail_crop"`
	AuthorIDs     []uint         `json:"author_ids" binding:"required,min=1" validate:"required,min=1"`
}

type CreateAuthorRequest struct {
	Name      string `json:"name" binding:"required,min=1,max=255"`
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatar_url"`
}

type UpdateAuthorRequest struct {
	Name      string `json:"name" binding:"required,min=1,max=255"`
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatar_url"`
}

type ListParams struct {
	Page  int `form:"page,default=1"`
	Limit int `form:"limit,default=10"`
}

// DeleteDraftResult tells the client where to redirect when the deleted draft
// was linked to a published article that stays live.
type DeleteDraftResult struct {
	RedirectURL string `json:"redirect_url,omitempty"`
}
