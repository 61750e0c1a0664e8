package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pesona-id/pesona-backend/internal/apperror"
	"github.com/pesona-id/pesona-backend/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestDestinationCreateRequiresTaxonomy(t *testing.T) {
	db := newTestDB(t)
	svc := NewDestinationService(db, testLogger())
	admin := newActor(domain.RoleAdmin)
	cat, dist := seedTaxonomy(t, db)

	_, err := svc.Create(context.Background(), admin, DestinationInput{
		Name: "Lost Lagoon", CategoryID: domain.NewID(), DistrictID: dist.ID,
	})
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
	assert.EqualError(t, apperror.From(err), "category not found.")

	_, err = svc.Create(context.Background(), admin, DestinationInput{
		Name: "Lost Lagoon", CategoryID: cat.ID, DistrictID: domain.NewID(),
	})
	assert.EqualError(t, apperror.From(err), "district not found.")
}

func TestDestinationCreateWithTags(t *testing.T) {
	db := newTestDB(t)
	svc := NewDestinationService(db, testLogger())
	admin := newActor(domain.RoleAdmin)
	cat, dist := seedTaxonomy(t, db)

	res, err := svc.Create(context.Background(), admin, DestinationInput{
		Name:       "Blue Lagoon",
		CategoryID: cat.ID,
		DistrictID: dist.ID,
		Tags:       []string{"Snorkeling", "Family Friendly", "snorkeling"},
	})
	require.NoError(t, err)

	detail, err := svc.Get(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, "blue-lagoon", detail.Slug)
	// Duplicate tag names collapse to one tag.
	require.Len(t, detail.Tags, 2)

	var tagCount int64
	require.NoError(t, db.Model(&domain.Tag{}).Count(&tagCount).Error)
	assert.Equal(t, int64(2), tagCount)
}

func TestDestinationUpdateReplacesTags(t *testing.T) {
	db := newTestDB(t)
	svc := NewDestinationService(db, testLogger())
	admin := newActor(domain.RoleAdmin)
	cat, dist := seedTaxonomy(t, db)

	res, err := svc.Create(context.Background(), admin, DestinationInput{
		Name: "Cliff Walk", CategoryID: cat.ID, DistrictID: dist.ID,
		Tags: []string{"Hiking"},
	})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), admin, res.ID, UpdateDestinationInput{
		Tags: []string{"Sunset", "Photography"},
	})
	require.NoError(t, err)

	detail, err := svc.Get(context.Background(), res.ID)
	require.NoError(t, err)
	names := []string{}
	for _, tag := range detail.Tags {
		names = append(names, tag.Name)
	}
	assert.ElementsMatch(t, []string{"Sunset", "Photography"}, names)

	// Existing tag rows stay; only the association changed.
	var tagCount int64
	require.NoError(t, db.Model(&domain.Tag{}).Count(&tagCount).Error)
	assert.Equal(t, int64(3), tagCount)
}

func TestDestinationSearchAcrossRelations(t *testing.T) {
	db := newTestDB(t)
	svc := NewDestinationService(db, testLogger())
	admin := newActor(domain.RoleAdmin)
	cat, dist := seedTaxonomy(t, db)

	_, err := svc.Create(context.Background(), admin, DestinationInput{
		Name: "Coral Garden", CategoryID: cat.ID, DistrictID: dist.ID,
		Tags: []string{"Diving"},
	})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), admin, DestinationInput{
		Name: "Stone Temple", CategoryID: cat.ID, DistrictID: dist.ID,
	})
	require.NoError(t, err)

	// By tag name.
	rows, _, err := svc.List(context.Background(), ListQuery{Page: 1, Limit: 10, OrderBy: "desc", Search: "diving"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Coral Garden", rows[0].Name)

	// By district slug; matches everything seeded here.
	rows, _, err = svc.List(context.Background(), ListQuery{Page: 1, Limit: 10, OrderBy: "desc", Search: "north-coast"})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestDestinationPublishedFilterAndLikedSort(t *testing.T) {
	db := newTestDB(t)
	svc := NewDestinationService(db, testLogger())
	admin := newActor(domain.RoleAdmin)
	cat, dist := seedTaxonomy(t, db)
	published := true

	quiet, err := svc.Create(context.Background(), admin, DestinationInput{
		Name: "Quiet Cove", CategoryID: cat.ID, DistrictID: dist.ID, IsPublished: &published,
	})
	require.NoError(t, err)
	busy, err := svc.Create(context.Background(), admin, DestinationInput{
		Name: "Busy Bay", CategoryID: cat.ID, DistrictID: dist.ID, IsPublished: &published,
	})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), admin, DestinationInput{
		Name: "Draft Spot", CategoryID: cat.ID, DistrictID: dist.ID,
	})
	require.NoError(t, err)

	likes := NewLikeService(db, testLogger())
	for i := 0; i < 2; i++ {
		user := seedUser(t, db, "liker"+string(rune('a'+i)), domain.RoleUser)
		_, err := likes.Create(context.Background(), Actor{ID: user.ID, Name: user.Name, Role: user.Role},
			InteractionInput{Schema: "destinations", SchemaID: busy.ID})
		require.NoError(t, err)
	}

	rows, page, err := svc.List(context.Background(), ListQuery{
		Page: 1, Limit: 10, OrderBy: "desc",
		SortBy:      destinationSortKeys["liked"],
		IsPublished: &published,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	require.Len(t, rows, 2)
	assert.Equal(t, busy.ID, rows[0].ID)
	assert.Equal(t, quiet.ID, rows[1].ID)
}

func TestDestinationDeleteCascades(t *testing.T) {
	db := newTestDB(t)
	svc := NewDestinationService(db, testLogger())
	admin := newActor(domain.RoleAdmin)
	cat, dist := seedTaxonomy(t, db)
	user := seedUser(t, db, "visitor", domain.RoleUser)
	userActor := Actor{ID: user.ID, Name: user.Name, Role: user.Role}

	res, err := svc.Create(context.Background(), admin, DestinationInput{
		Name: "Doomed Spot", CategoryID: cat.ID, DistrictID: dist.ID, Tags: []string{"Temporary"},
	})
	require.NoError(t, err)

	likes := NewLikeService(db, testLogger())
	_, err = likes.Create(context.Background(), userActor, InteractionInput{Schema: "destinations", SchemaID: res.ID})
	require.NoError(t, err)
	comments := NewCommentService(db, testLogger())
	_, err = comments.Create(context.Background(), userActor, CommentInput{
		Body: "nice", Schema: "destinations", SchemaID: res.ID,
	})
	require.NoError(t, err)

	_, err = svc.Delete(context.Background(), admin, res.ID)
	require.NoError(t, err)

	var likeCount, commentCount int64
	require.NoError(t, db.Model(&domain.Like{}).Count(&likeCount).Error)
	require.NoError(t, db.Model(&domain.Comment{}).Count(&commentCount).Error)
	assert.Zero(t, likeCount)
	assert.Zero(t, commentCount)

	_, err = svc.Get(context.Background(), res.ID)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestDestinationGetBySlug(t *testing.T) {
	db := newTestDB(t)
	svc := NewDestinationService(db, testLogger())
	admin := newActor(domain.RoleAdmin)
	cat, dist := seedTaxonomy(t, db)

	_, err := svc.Create(context.Background(), admin, DestinationInput{
		Name: "Sunset Point", Address: strPtr("Jalan Raya 1"), CategoryID: cat.ID, DistrictID: dist.ID,
	})
	require.NoError(t, err)

	detail, err := svc.GetBySlug(context.Background(), "sunset-point")
	require.NoError(t, err)
	assert.Equal(t, "Sunset Point", detail.Name)

	_, err = svc.GetBySlug(context.Background(), "nowhere")
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}
