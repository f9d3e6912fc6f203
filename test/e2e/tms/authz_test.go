package tms_test

import (
	"context"
	"net/http"
	"strconv"
	"testing"

	"github.com/aussiebroadwan/tms/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

func TestTaskOwnership(t *testing.T) {
	baseURL := startService(t)
	client := newClient(baseURL)
	ctx := context.Background()

	alice := registerAndSignin(t, client, "alice")
	bob := registerAndSignin(t, client, "bob")
	admin := adminSession(t, client)

	task, err := alice.CreateTask(ctx, authsdk.CreateTaskRequest{Title: "write docs", Priority: "high"})
	require.NoError(t, err)
	require.Equal(t, alice.UserID, task.AuthorID)
	require.Equal(t, "OPEN", task.Status)
	require.Equal(t, "HIGH", task.Priority)

	got, err := alice.GetTask(ctx, task.ID)
	require.NoError(t, err)
	require.Equal(t, "write docs", got.Title)

	_, err = bob.GetTask(ctx, task.ID)
	apiErr := requireAPIError(t, err, http.StatusForbidden, authsdk.ErrorCodeAccessDenied)
	require.Equal(t, "this is not accessible to the current user", apiErr.Description)

	_, err = admin.GetTask(ctx, task.ID)
	require.NoError(t, err)

	updated, err := alice.UpdateTaskStatus(ctx, task.ID, "in_progress")
	require.NoError(t, err)
	require.Equal(t, "IN_PROGRESS", updated.Status)

	_, err = bob.UpdateTaskStatus(ctx, task.ID, "DONE")
	requireAPIError(t, err, http.StatusForbidden, authsdk.ErrorCodeAccessDenied)

	_, err = alice.UpdateTaskStatus(ctx, task.ID, "PAUSED")
	requireAPIError(t, err, http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest)

	_, err = alice.GetTask(ctx, 9999)
	requireAPIError(t, err, http.StatusNotFound, authsdk.ErrorCodeEntityNotFound)
}

func TestUserOwnership(t *testing.T) {
	baseURL := startService(t)
	client := newClient(baseURL)
	ctx := context.Background()

	alice := registerAndSignin(t, client, "alice")
	bob := registerAndSignin(t, client, "bob")
	admin := adminSession(t, client)

	self, err := alice.GetUser(ctx, alice.UserID)
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", self.Email)

	_, err = alice.GetUser(ctx, bob.UserID)
	requireAPIError(t, err, http.StatusForbidden, authsdk.ErrorCodeAccessDenied)

	other, err := admin.GetUser(ctx, bob.UserID)
	require.NoError(t, err)
	require.Equal(t, "bob", other.Username)

	_, err = admin.GetUser(ctx, 9999)
	requireAPIError(t, err, http.StatusNotFound, authsdk.ErrorCodeEntityNotFound)
}

func TestComments(t *testing.T) {
	baseURL := startService(t)
	client := newClient(baseURL)
	ctx := context.Background()

	alice := registerAndSignin(t, client, "alice")
	bob := registerAndSignin(t, client, "bob")
	admin := adminSession(t, client)

	task, err := alice.CreateTask(ctx, authsdk.CreateTaskRequest{Title: "review"})
	require.NoError(t, err)

	comment, err := bob.CreateComment(ctx, authsdk.CreateCommentRequest{TaskID: task.ID, Content: "looks good"})
	require.NoError(t, err)
	require.Equal(t, bob.UserID, comment.AuthorID)
	require.Equal(t, "looks good", comment.Content)

	_, err = bob.CreateComment(ctx, authsdk.CreateCommentRequest{TaskID: 9999, Content: "lost"})
	requireAPIError(t, err, http.StatusNotFound, authsdk.ErrorCodeEntityNotFound)

	_, err = bob.CreateComment(ctx, authsdk.CreateCommentRequest{TaskID: task.ID, Content: "  "})
	requireAPIError(t, err, http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest)

	// deleting is reserved for admins, even for the author
	err = bob.DeleteComment(ctx, comment.ID)
	requireAPIError(t, err, http.StatusForbidden, authsdk.ErrorCodeForbidden)

	require.NoError(t, admin.DeleteComment(ctx, comment.ID))

	err = admin.DeleteComment(ctx, comment.ID)
	requireAPIError(t, err, http.StatusNotFound, authsdk.ErrorCodeEntityNotFound)
}
