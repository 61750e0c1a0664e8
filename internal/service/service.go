// Package service implements the business rules for every resource type.
// Services are stateless; each holds its explicit dependencies and lets
// failures rise as apperror values to the handler boundary.
package service

import (
	"errors"

	"gorm.io/gorm"

	"github.com/pesona-id/pesona-backend/internal/apperror"
	"github.com/pesona-id/pesona-backend/internal/domain"
)

// Actor is the request-scoped identity resolved from a verified token.
type Actor struct {
	ID   string
	Name string
	Role domain.Role
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool { return a.Role == domain.RoleAdmin }

// IDResult is the uniform mutation result: just the affected id.
type IDResult struct {
	ID string `json:"id"`
}

// CountSummary carries relation counts on detail projections.
type CountSummary struct {
	Likes     int64 `json:"likes"`
	Bookmarks int64 `json:"bookmarks"`
	Comments  int64 `json:"comments"`
}

// recordActivity appends the audit row written by every mutating call on
// audited schemas. Interaction rows (like/bookmark/comment) are not audited.
func recordActivity(tx *gorm.DB, action domain.Action, schema, schemaID, userID string) error {
	return tx.Create(&domain.ActivityLog{
		Action:   action,
		Schema:   schema,
		SchemaID: schemaID,
		UserID:   userID,
	}).Error
}

// resolveTags maps tag names to tag rows, creating missing ones by slug
// (connect-or-create). Duplicate names in the input collapse to one tag.
func resolveTags(tx *gorm.DB, names []string) ([]domain.Tag, error) {
	tags := make([]domain.Tag, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		slug := Slugify(name)
		if slug == "" || seen[slug] {
			continue
		}
		seen[slug] = true

		var tag domain.Tag
		err := tx.Where("slug = ?", slug).First(&tag).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			tag = domain.Tag{Name: name, Slug: slug}
			if err := tx.Create(&tag).Error; err != nil {
				return nil, err
			}
		} else if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// findContentTarget verifies the polymorphic target exists.
func findContentTarget(tx *gorm.DB, ref domain.ContentRef) error {
	var err error
	switch ref.Kind {
	case domain.KindDestinations:
		err = tx.Select("id").First(&domain.Destination{}, "id = ?", ref.ID).Error
	case domain.KindTraditions:
		err = tx.Select("id").First(&domain.Tradition{}, "id = ?", ref.ID).Error
	case domain.KindStories:
		err = tx.Select("id").First(&domain.Story{}, "id = ?", ref.ID).Error
	default:
		return apperror.NotFound("schema")
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound("schema")
	}
	return err
}

// targetColumns maps a tagged content reference onto exactly one of the
// three nullable foreign-key columns.
func targetColumns(ref domain.ContentRef) (destinationID, traditionID, storyID *string) {
	switch ref.Kind {
	case domain.KindDestinations:
		destinationID = &ref.ID
	case domain.KindTraditions:
		traditionID = &ref.ID
	case domain.KindStories:
		storyID = &ref.ID
	}
	return
}

// targetFilter returns the column name matching the reference kind, for
// duplicate-interaction pre-checks.
func targetFilter(ref domain.ContentRef) string {
	switch ref.Kind {
	case domain.KindTraditions:
		return "tradition_id"
	case domain.KindStories:
		return "story_id"
	default:
		return "destination_id"
	}
}

// validateID rejects malformed opaque identifiers before any lookup.
func validateID(id string) error {
	if !domain.ValidID(id) {
		return apperror.ValidationMsg("id", "invalid id format")
	}
	return nil
}
