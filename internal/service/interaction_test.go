package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pesona-id/pesona-backend/internal/apperror"
	"github.com/pesona-id/pesona-backend/internal/domain"
)

func TestLikeDedupPerTarget(t *testing.T) {
	db := newTestDB(t)
	svc := NewLikeService(db, testLogger())
	author := seedUser(t, db, "author", domain.RoleUser)
	user := seedUser(t, db, "fan", domain.RoleUser)
	actor := Actor{ID: user.ID, Role: user.Role}
	story := seedStory(t, db, author)
	other := domain.Story{Name: "Second", Slug: "second", Content: "another long journey told", AuthorID: author.ID}
	require.NoError(t, db.Create(&other).Error)

	_, err := svc.Create(context.Background(), actor, InteractionInput{Schema: "stories", SchemaID: story.ID})
	require.NoError(t, err)

	// Same user, same target: conflict.
	_, err = svc.Create(context.Background(), actor, InteractionInput{Schema: "stories", SchemaID: story.ID})
	assert.True(t, apperror.IsKind(err, apperror.KindAlreadyExists))
	assert.EqualError(t, apperror.From(err), "like already exists.")

	// Same user, different target of the same kind: allowed.
	_, err = svc.Create(context.Background(), actor, InteractionInput{Schema: "stories", SchemaID: other.ID})
	require.NoError(t, err)

	// Different user, same target: allowed.
	second := seedUser(t, db, "fan2", domain.RoleUser)
	_, err = svc.Create(context.Background(), Actor{ID: second.ID, Role: second.Role},
		InteractionInput{Schema: "stories", SchemaID: story.ID})
	require.NoError(t, err)
}

func TestLikeMissingTarget(t *testing.T) {
	db := newTestDB(t)
	svc := NewLikeService(db, testLogger())
	user := seedUser(t, db, "fan", domain.RoleUser)

	_, err := svc.Create(context.Background(), Actor{ID: user.ID, Role: user.Role},
		InteractionInput{Schema: "destinations", SchemaID: domain.NewID()})
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestLikeDeleteOwnership(t *testing.T) {
	db := newTestDB(t)
	svc := NewLikeService(db, testLogger())
	author := seedUser(t, db, "author", domain.RoleUser)
	owner := seedUser(t, db, "owner", domain.RoleUser)
	stranger := seedUser(t, db, "stranger", domain.RoleUser)
	story := seedStory(t, db, author)

	res, err := svc.Create(context.Background(), Actor{ID: owner.ID, Role: owner.Role},
		InteractionInput{Schema: "stories", SchemaID: story.ID})
	require.NoError(t, err)

	_, err = svc.Delete(context.Background(), Actor{ID: stranger.ID, Role: stranger.Role}, res.ID)
	assert.True(t, apperror.IsKind(err, apperror.KindForbidden))

	_, err = svc.Delete(context.Background(), Actor{ID: owner.ID, Role: owner.Role}, res.ID)
	require.NoError(t, err)

	_, err = svc.Delete(context.Background(), Actor{ID: owner.ID, Role: owner.Role}, res.ID)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestLikesNotActivityLogged(t *testing.T) {
	db := newTestDB(t)
	svc := NewLikeService(db, testLogger())
	author := seedUser(t, db, "author", domain.RoleUser)
	user := seedUser(t, db, "fan", domain.RoleUser)
	story := seedStory(t, db, author)

	_, err := svc.Create(context.Background(), Actor{ID: user.ID, Role: user.Role},
		InteractionInput{Schema: "stories", SchemaID: story.ID})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&domain.ActivityLog{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestBookmarkDedupAndList(t *testing.T) {
	db := newTestDB(t)
	svc := NewBookmarkService(db, testLogger())
	author := seedUser(t, db, "author", domain.RoleUser)
	user := seedUser(t, db, "collector", domain.RoleUser)
	actor := Actor{ID: user.ID, Role: user.Role}
	story := seedStory(t, db, author)

	_, err := svc.Create(context.Background(), actor, InteractionInput{Schema: "stories", SchemaID: story.ID})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), actor, InteractionInput{Schema: "stories", SchemaID: story.ID})
	assert.EqualError(t, apperror.From(err), "bookmark already exists.")

	// Another user's bookmark does not leak into the listing.
	other := seedUser(t, db, "other", domain.RoleUser)
	_, err = svc.Create(context.Background(), Actor{ID: other.ID, Role: other.Role},
		InteractionInput{Schema: "stories", SchemaID: story.ID})
	require.NoError(t, err)

	rows, page, err := svc.List(context.Background(), actor, ListQuery{Page: 1, Limit: 10, OrderBy: "desc"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, rows, 1)
	assert.Equal(t, user.ID, rows[0].UserID)
}
