package models

// Thumbnails live under the article directory by convention, never inside the
// content tree.
const (
	ThumbnailFileName         = "thumbnail.png"
	ThumbnailUploadedFileName = "thumbnail-uploaded.png"
)

// ThumbnailCrop records that a thumbnail exists and how it was cropped.
// A nil crop means the article has no thumbnail.
type ThumbnailCrop struct {
	X                       int  `json:"x"`
	Y                       int  `json:"y"`
	Width                   int  `json:"width"`
	Height                  int  `json:"height"`
	UploadedCustomThumbnail bool `json:"uploaded_custom_thumbnail"`
}
