package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fullcourse/fullcourse-api/internal/model"
)

func TestSubmissionStatus_AnyTransition(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	admin := e.seedUser("admin@example.com", "Admin")
	id := fakeSubmissions{e.db}.add("Add natto")

	for _, status := range []model.SubmissionStatus{
		model.StatusClosed, model.StatusOpen, model.StatusResolved, model.StatusInProgress, model.StatusOpen,
	} {
		require.NoError(t, e.admin.SetSubmissionStatus(ctx, admin, id, status))
		list, err := e.admin.Submissions(ctx, status)
		require.NoError(t, err)
		require.Len(t, list, 1)
	}

	assert.ErrorIs(t, e.admin.SetSubmissionStatus(ctx, admin, id, "DONE"), ErrInvalidStatus)
	assert.ErrorIs(t, e.admin.SetSubmissionStatus(ctx, admin, 9999, model.StatusOpen), ErrSubmissionNotFound)

	_, err := e.admin.Submissions(ctx, "bogus")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestAdmin_CannotModifySelf(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	admin := e.seedUser("admin@example.com", "Admin")

	assert.ErrorIs(t, e.admin.DeleteUser(ctx, admin, admin.UserID), ErrCannotModifySelf)
	_, err := e.admin.ToggleRole(ctx, admin, admin.UserID)
	assert.ErrorIs(t, err, ErrCannotModifySelf)
}

func TestAdmin_ToggleRole(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	admin := e.seedUser("admin@example.com", "Admin")
	target := e.seedUser("cook@example.com", "Cook")

	isAdmin, err := e.admin.ToggleRole(ctx, admin, target.UserID)
	require.NoError(t, err)
	assert.True(t, isAdmin)

	isAdmin, err = e.admin.ToggleRole(ctx, admin, target.UserID)
	require.NoError(t, err)
	assert.False(t, isAdmin)

	_, err = e.admin.ToggleRole(ctx, admin, 9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAdmin_DeleteUserRecomputesCounters(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	admin := e.seedUser("admin@example.com", "Admin")
	owner := e.seedUser("cook@example.com", "Cook")
	troll := e.seedUser("troll@example.com", "Troll")
	id := e.seedCourse(owner, "Izakaya Night")
	e.seedCourse(troll, "Troll course")

	_, err := e.engagement.ToggleWantsToEat(ctx, troll, id)
	require.NoError(t, err)
	_, err = e.engagement.Rate(ctx, troll, id, 1)
	require.NoError(t, err)
	_, err = e.comments.Post(ctx, troll, id, "bad")
	require.NoError(t, err)

	require.NoError(t, e.admin.DeleteUser(ctx, admin, troll.UserID))

	detail, err := e.engagement.CourseDetail(ctx, nil, id)
	require.NoError(t, err)
	assert.Zero(t, detail.WantsToEatCount)
	assert.Zero(t, detail.CommentCount)
	assert.Zero(t, detail.TotalRatingsCount)
	assert.Nil(t, detail.AverageRating)

	stats, err := e.admin.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Users)
	assert.Equal(t, 1, stats.Courses)

	assert.ErrorIs(t, e.admin.DeleteUser(ctx, admin, troll.UserID), ErrUserNotFound)
}

func TestAdmin_DeleteComment(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	admin := e.seedUser("admin@example.com", "Admin")
	owner := e.seedUser("cook@example.com", "Cook")
	id := e.seedCourse(owner, "Izakaya Night")

	c, err := e.comments.Post(ctx, owner, id, "hello")
	require.NoError(t, err)

	require.NoError(t, e.admin.DeleteComment(ctx, admin, c.ID))
	detail, err := e.engagement.CourseDetail(ctx, nil, id)
	require.NoError(t, err)
	assert.Zero(t, detail.CommentCount)

	assert.ErrorIs(t, e.admin.DeleteComment(ctx, admin, c.ID), ErrCommentNotFound)
}

func TestAdmin_StatsAndUsers(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	admin := e.seedUser("admin@example.com", "Admin")
	id := e.seedCourse(admin, "Izakaya Night")
	_, err := e.comments.Post(ctx, admin, id, "first")
	require.NoError(t, err)
	fakeSubmissions{e.db}.add("one")
	closed := fakeSubmissions{e.db}.add("two")
	require.NoError(t, e.admin.SetSubmissionStatus(ctx, admin, closed, model.StatusClosed))

	stats, err := e.admin.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.AdminStats{Users: 1, Courses: 1, Comments: 1, OpenSubmissions: 1}, stats)

	users, err := e.admin.Users(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "admin@example.com", users[0].Email)
	assert.Equal(t, 1, users[0].CourseCount)
}

func TestPromote(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	id := e.seedUser("owner@example.com", "Owner")

	promoted, err := e.admin.Promote(ctx, " Owner@Example.com ")
	require.NoError(t, err)
	assert.True(t, promoted)

	stored, err := fakeUsers{e.db}.GetByID(ctx, id.UserID)
	require.NoError(t, err)
	assert.True(t, stored.IsAdmin)
	assert.Equal(t, 1, stored.SessionVersion, "promotion should refresh sessions")

	promoted, err = e.admin.Promote(ctx, "owner@example.com")
	require.NoError(t, err)
	assert.False(t, promoted)

	_, err = e.admin.Promote(ctx, "ghost@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestBootstrapAdmins_SkipsUnknownEmails(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	owner := e.seedUser("owner@example.com", "Owner")
	other := e.seedUser("cook@example.com", "Cook")

	require.NoError(t, e.admin.BootstrapAdmins(ctx, []string{"ghost@example.com", "owner@example.com"}))

	users, err := e.admin.Users(ctx)
	require.NoError(t, err)
	roles := make(map[int64]bool)
	for _, u := range users {
		roles[u.ID] = u.IsAdmin
	}
	assert.True(t, roles[owner.UserID])
	assert.False(t, roles[other.UserID])
}
