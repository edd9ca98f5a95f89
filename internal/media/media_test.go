package media

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/identity"
	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/platform"
	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/platform/platformtest"
	apperrors "github.com/mothership-gmbh/sw6-simple-api-sub000/pkg/errors"
)

type mockDispatcher struct {
	mock.Mock
}

func (m *mockDispatcher) Dispatch(ctx context.Context, subject string, msg interface{}) error {
	args := m.Called(ctx, subject, msg)
	return args.Error(0)
}

const shirtURL = "https://cdn.example.com/img/Shirt.JPG"

func TestCreateSyncUploadsInline(t *testing.T) {
	store := platformtest.NewStore()
	svc := NewService(store, store, nil, "Simple API", nil)

	id, err := svc.Create(context.Background(), Request{URL: shirtURL, FolderName: "Products"}, true)
	require.NoError(t, err)
	assert.Equal(t, identity.FromKey(shirtURL), id)

	folders := store.Rows("media_folder")
	require.Len(t, folders, 1)
	assert.Equal(t, "Products", folders[0].String("name"))
	assert.Equal(t, folders[0].ID(), store.Get("media", id).String("mediaFolderId"))

	uploads := store.Uploads()
	require.Len(t, uploads, 1)
	assert.Equal(t, "jpg", uploads[0].Extension)
	assert.Equal(t, "Shirt-"+id[:8], uploads[0].FileName)
}

func TestCreateReusesExistingFolder(t *testing.T) {
	store := platformtest.NewStore()
	store.Seed("media_folder", platform.Entity{"id": "folder1", "name": "Products"})
	svc := NewService(store, store, nil, "", nil)

	_, err := svc.Create(context.Background(), Request{URL: shirtURL, FolderName: "Products", FileName: "shirt"}, true)
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), Request{URL: "https://cdn.example.com/b.png", FolderName: "Products"}, true)
	require.NoError(t, err)

	assert.Equal(t, 1, store.Count("media_folder"))
	assert.Equal(t, "shirt", store.Uploads()[0].FileName)
}

func TestCreateAsyncDispatches(t *testing.T) {
	store := platformtest.NewStore()
	dispatcher := new(mockDispatcher)
	dispatcher.On("Dispatch", mock.Anything, UploadSubject, mock.MatchedBy(func(msg UploadMessage) bool {
		return msg.URL == shirtURL && msg.MediaID == identity.FromKey(shirtURL)
	})).Return(nil).Once()

	svc := NewService(store, store, dispatcher, "Simple API", nil)
	_, err := svc.Create(context.Background(), Request{URL: shirtURL}, false)
	require.NoError(t, err)

	dispatcher.AssertExpectations(t)
	assert.Empty(t, store.Uploads())
	assert.Equal(t, 1, store.Count("media"))
}

func TestCreateRejectsBadURL(t *testing.T) {
	store := platformtest.NewStore()
	svc := NewService(store, store, nil, "", nil)

	_, err := svc.Create(context.Background(), Request{}, true)
	assert.Equal(t, apperrors.CodeMissingURL, apperrors.Code(err))

	_, err = svc.Create(context.Background(), Request{URL: "ftp://example.com/a.jpg"}, true)
	assert.Equal(t, apperrors.CodeInvalidURL, apperrors.Code(err))
	assert.Equal(t, 0, store.Count("media"))
}

func TestImportSkipsUploadedMedia(t *testing.T) {
	store := platformtest.NewStore()
	svc := NewService(store, store, nil, "Simple API", nil)
	ctx := context.Background()

	first, err := svc.Import(ctx, shirtURL, "")
	require.NoError(t, err)
	second, err := svc.Import(ctx, shirtURL, "")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, store.Uploads(), 1)
}

func TestUploadFailureIsReturned(t *testing.T) {
	store := platformtest.NewStore()
	store.FailUpload = errors.New("download timed out")
	svc := NewService(store, store, nil, "Simple API", nil)

	_, err := svc.Create(context.Background(), Request{URL: shirtURL}, true)
	assert.EqualError(t, err, "download timed out")
}

func TestFileParts(t *testing.T) {
	name, ext := fileParts("/a/b/photo.PNG")
	assert.Equal(t, "photo", name)
	assert.Equal(t, "png", ext)

	name, ext = fileParts("/")
	assert.Equal(t, "media", name)
	assert.Equal(t, "jpg", ext)
}
