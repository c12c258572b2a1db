package images

import "time"

// ImageView is the list representation of an image.
type ImageView struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	Latitude  *float64  `json:"latitude"`
	Longitude *float64  `json:"longitude"`
	Analysis  *string   `json:"analysis"`
}

// UploadResponse is returned by POST /upload.
type UploadResponse struct {
	Message   string   `json:"message"`
	ImageID   string   `json:"imageId"`
	ImageURL  string   `json:"imageUrl"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Analysis  *string  `json:"analysis"`
}

func toView(img Image, url string) ImageView {
	return ImageView{
		ID:        img.ID,
		URL:       url,
		UserID:    img.UserID,
		CreatedAt: img.CreatedAt,
		Latitude:  img.Latitude,
		Longitude: img.Longitude,
		Analysis:  img.Analysis,
	}
}

func toUploadResponse(res UploadResult) UploadResponse {
	return UploadResponse{
		Message:   "image uploaded",
		ImageID:   res.Image.ID,
		ImageURL:  res.PublicURL,
		Latitude:  res.Image.Latitude,
		Longitude: res.Image.Longitude,
		Analysis:  res.Image.Analysis,
	}
}
