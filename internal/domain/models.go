package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role controls access to the admin route group.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Action is the kind of mutation recorded in the activity log.
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// User is an account. Name is the unique handle used for login and profile
// URLs. Password and RefreshToken never appear in API responses.
type User struct {
	ID             string  `gorm:"primaryKey;size:64" json:"id"`
	Name           string  `gorm:"uniqueIndex;size:30;not null" json:"name"`
	Email          *string `gorm:"size:120" json:"email,omitempty"`
	FullName       *string `gorm:"size:50" json:"fullName,omitempty"`
	Bio            *string `gorm:"size:200" json:"bio,omitempty"`
	Password       string  `gorm:"not null" json:"-"`
	Role           Role    `gorm:"size:10;not null;default:USER" json:"role"`
	RefreshToken   *string `json:"-"`
	ProfileImageID *string `gorm:"size:64" json:"profileImageId,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Category is a taxonomy entity for destinations.
type Category struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Slug      string    `gorm:"uniqueIndex;size:120;not null" json:"slug"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// District is a taxonomy entity carrying free text and an optional cover.
type District struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Slug        string    `gorm:"uniqueIndex;size:120;not null" json:"slug"`
	Description *string   `gorm:"size:2000" json:"description,omitempty"`
	CoverID     *string   `gorm:"size:64" json:"coverId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Tag is attached to destinations and traditions via join tables and is
// created on demand when first referenced by name.
type Tag struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Slug      string    `gorm:"uniqueIndex;size:120;not null" json:"slug"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Destination is the primary content entity.
type Destination struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	Name        string    `gorm:"size:200;not null" json:"name"`
	Slug        string    `gorm:"uniqueIndex;size:220;not null" json:"slug"`
	Content     *string   `json:"content,omitempty"`
	Address     *string   `gorm:"size:300" json:"address,omitempty"`
	MapURL      *string   `gorm:"size:500" json:"mapUrl,omitempty"`
	Price       *float64  `json:"price,omitempty"`
	CoverID     *string   `gorm:"size:64" json:"coverId,omitempty"`
	IsPublished bool      `gorm:"not null;default:false" json:"isPublished"`
	CategoryID  string    `gorm:"size:64;index;not null" json:"categoryId"`
	DistrictID  string    `gorm:"size:64;index;not null" json:"districtId"`
	Category    *Category `json:"category,omitempty"`
	District    *District `json:"district,omitempty"`
	Tags        []Tag     `gorm:"many2many:destination_tags" json:"tags,omitempty"`
	Comments    []Comment `json:"comments,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Tradition is a content entity without category/district relations.
type Tradition struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	Name        string    `gorm:"size:400;not null" json:"name"`
	Slug        string    `gorm:"uniqueIndex;size:420;not null" json:"slug"`
	Content     string    `gorm:"not null" json:"content"`
	CoverID     *string   `gorm:"size:64" json:"coverId,omitempty"`
	IsPublished bool      `gorm:"not null;default:false" json:"isPublished"`
	Tags        []Tag     `gorm:"many2many:tradition_tags" json:"tags,omitempty"`
	Comments    []Comment `json:"comments,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Story is user-authored content; AuthorID owns update/delete.
type Story struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	Name        string    `gorm:"size:200;not null" json:"name"`
	Slug        string    `gorm:"uniqueIndex;size:220;not null" json:"slug"`
	Content     string    `gorm:"not null" json:"content"`
	CoverID     *string   `gorm:"size:64" json:"coverId,omitempty"`
	IsPublished bool      `gorm:"not null;default:false" json:"isPublished"`
	AuthorID    string    `gorm:"size:64;index;not null" json:"authorId"`
	Author      *User     `json:"author,omitempty"`
	Comments    []Comment `json:"comments,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Comment attaches to exactly one of destination/tradition/story. ParentID
// supports one level of reply threading.
type Comment struct {
	ID            string    `gorm:"primaryKey;size:64" json:"id"`
	Body          string    `gorm:"size:400;not null" json:"body"`
	UserID        string    `gorm:"size:64;index;not null" json:"userId"`
	User          *User     `json:"user,omitempty"`
	DestinationID *string   `gorm:"size:64;index" json:"destinationId,omitempty"`
	TraditionID   *string   `gorm:"size:64;index" json:"traditionId,omitempty"`
	StoryID       *string   `gorm:"size:64;index" json:"storyId,omitempty"`
	ParentID      *string   `gorm:"size:64;index" json:"parentId,omitempty"`
	Replies       []Comment `gorm:"foreignKey:ParentID" json:"replies,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Like records a user's like of one content entity. The composite unique
// indexes back the at-most-one-per-(user,target) invariant; rows where a
// target column is NULL never collide.
type Like struct {
	ID            string    `gorm:"primaryKey;size:64" json:"id"`
	UserID        string    `gorm:"size:64;not null;uniqueIndex:idx_likes_user_destination;uniqueIndex:idx_likes_user_tradition;uniqueIndex:idx_likes_user_story" json:"userId"`
	DestinationID *string   `gorm:"size:64;uniqueIndex:idx_likes_user_destination" json:"destinationId,omitempty"`
	TraditionID   *string   `gorm:"size:64;uniqueIndex:idx_likes_user_tradition" json:"traditionId,omitempty"`
	StoryID       *string   `gorm:"size:64;uniqueIndex:idx_likes_user_story" json:"storyId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Bookmark mirrors Like for saved content.
type Bookmark struct {
	ID            string    `gorm:"primaryKey;size:64" json:"id"`
	UserID        string    `gorm:"size:64;not null;uniqueIndex:idx_bookmarks_user_destination;uniqueIndex:idx_bookmarks_user_tradition;uniqueIndex:idx_bookmarks_user_story" json:"userId"`
	DestinationID *string   `gorm:"size:64;uniqueIndex:idx_bookmarks_user_destination" json:"destinationId,omitempty"`
	TraditionID   *string   `gorm:"size:64;uniqueIndex:idx_bookmarks_user_tradition" json:"traditionId,omitempty"`
	StoryID       *string   `gorm:"size:64;uniqueIndex:idx_bookmarks_user_story" json:"storyId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ActivityLog is an append-only audit row written by mutating service calls.
// Never read back by this system.
type ActivityLog struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Action    Action    `gorm:"size:10;not null" json:"action"`
	Schema    string    `gorm:"size:20;not null" json:"schema"`
	SchemaID  string    `gorm:"size:64;not null" json:"schemaId"`
	UserID    string    `gorm:"size:64;not null" json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewID returns an opaque collision-resistant identifier.
func NewID() string {
	return uuid.NewString()
}

func ensureID(id *string) {
	if *id == "" {
		*id = NewID()
	}
}

func (u *User) BeforeCreate(*gorm.DB) error        { ensureID(&u.ID); return nil }
func (c *Category) BeforeCreate(*gorm.DB) error    { ensureID(&c.ID); return nil }
func (d *District) BeforeCreate(*gorm.DB) error    { ensureID(&d.ID); return nil }
func (t *Tag) BeforeCreate(*gorm.DB) error         { ensureID(&t.ID); return nil }
func (d *Destination) BeforeCreate(*gorm.DB) error { ensureID(&d.ID); return nil }
func (t *Tradition) BeforeCreate(*gorm.DB) error   { ensureID(&t.ID); return nil }
func (s *Story) BeforeCreate(*gorm.DB) error       { ensureID(&s.ID); return nil }
func (c *Comment) BeforeCreate(*gorm.DB) error     { ensureID(&c.ID); return nil }
func (l *Like) BeforeCreate(*gorm.DB) error        { ensureID(&l.ID); return nil }
func (b *Bookmark) BeforeCreate(*gorm.DB) error    { ensureID(&b.ID); return nil }
func (a *ActivityLog) BeforeCreate(*gorm.DB) error { ensureID(&a.ID); return nil }

// AllModels lists every entity for schema migration.
func AllModels() []any {
	return []any{
		&User{}, &Category{}, &District{}, &Tag{},
		&Destination{}, &Tradition{}, &Story{},
		&Comment{}, &Like{}, &Bookmark{}, &ActivityLog{},
	}
}
