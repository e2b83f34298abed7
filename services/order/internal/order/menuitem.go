package order

import (
	"time"
)

type MenuItem struct {
	ID           int64     `json:"menuItemId" bson:"_id"`
	BoothID      int64     `json:"boothId" bson:"booth_id"`
	Name         string    `json:"name" bson:"name"`
	Price        int64     `json:"price" bson:"price"`
	Available    bool      `json:"available" bson:"available"`
	ModelURL     string    `json:"modelUrl,omitempty" bson:"model_url,omitempty"`
	PreviewImage string    `json:"previewImage,omitempty" bson:"preview_image,omitempty"`
	Description  string    `json:"description,omitempty" bson:"description,omitempty"`
	Category     string    `json:"category" bson:"category"`
	CreatedAt    time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updated_at"`
}

func (m *MenuItem) ResourceType() string {
	return "menu-item"
}

func (m *MenuItem) BeforeCreate() {
	m.CreatedAt = time.Now()
	m.UpdatedAt = m.CreatedAt
}

func (m *MenuItem) BeforeUpdate() {
	m.UpdatedAt = time.Now()
}

// Apply copies the non-nil fields of a patch request onto the item.
func (m *MenuItem) Apply(req MenuPatchRequest) {
	if req.Name != nil && *req.Name != "" {
		m.Name = *req.Name
	}
	if req.Price != nil {
		m.Price = *req.Price
	}
	if req.Available != nil {
		m.Available = *req.Available
	}
	if req.ModelURL != nil {
		m.ModelURL = *req.ModelURL
	}
	if req.PreviewImage != nil {
		m.PreviewImage = *req.PreviewImage
	}
	if req.Description != nil {
		m.Description = *req.Description
	}
	if req.Category != nil && *req.Category != "" {
		m.Category = normalizeCategory(*req.Category)
	}
	m.BeforeUpdate()
}
