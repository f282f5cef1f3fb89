package storage_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sensiq/coldmail/pkg/storage"
)

func TestLocal_PutGetDelete(t *testing.T) {
	t.Parallel()

	store, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	key := storage.NewKey("uploads", "Leads.CSV")
	assert.True(t, strings.HasPrefix(key, "uploads/"))
	assert.True(t, strings.HasSuffix(key, ".csv"))

	content := "email\na@x.com\n"
	info, err := store.Put(ctx, key, strings.NewReader(content), int64(len(content)),
		storage.WithFilename("Leads.CSV"))
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), info.Size)
	assert.Equal(t, "text/csv", info.ContentType)

	rc, err := store.Get(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, content, string(data))

	require.NoError(t, store.Delete(ctx, key))
	require.NoError(t, store.Delete(ctx, key), "deleting twice is not an error")

	_, err = store.Get(ctx, key)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestLocal_RejectsEscapingKeys(t *testing.T) {
	t.Parallel()

	store, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "/etc/passwd", "../outside.csv", "a/../../b.csv", `a\b.csv`} {
		_, err := store.Put(context.Background(), key, strings.NewReader("x"), 1)
		assert.ErrorIs(t, err, storage.ErrInvalidKey, "key %q", key)
	}
}

func TestValidationRules(t *testing.T) {
	t.Parallel()

	rules := []storage.ValidationRule{
		storage.NotEmpty(),
		storage.MaxSize(16 << 20),
		storage.AllowedExtensions(".xlsx", ".xls", ".csv"),
	}

	tests := []struct {
		name     string
		filename string
		size     int64
		code     string
	}{
		{"xlsx ok", "leads.XLSX", 1024, ""},
		{"csv ok", "leads.csv", 10, ""},
		{"empty", "leads.csv", 0, storage.ErrCodeEmptyFile},
		{"too large", "leads.csv", 16<<20 + 1, storage.ErrCodeFileTooLarge},
		{"wrong extension", "leads.pdf", 10, storage.ErrCodeInvalidExtension},
		{"no extension", "leads", 10, storage.ErrCodeInvalidExtension},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := storage.Validate(tt.filename, tt.size, rules...)
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			var verr *storage.FileValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.code, verr.Code)
		})
	}
}

func TestLocal_ValidationAbortsUpload(t *testing.T) {
	t.Parallel()

	store, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	key := storage.NewKey("uploads", "leads.pdf")
	_, err = store.Put(context.Background(), key, strings.NewReader("x"), 1,
		storage.WithFilename("leads.pdf"),
		storage.WithValidation(storage.AllowedExtensions(".csv")))
	var verr *storage.FileValidationError
	require.ErrorAs(t, err, &verr)

	_, err = store.Get(context.Background(), key)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestNewS3_RequiresCredentials(t *testing.T) {
	t.Parallel()

	_, err := storage.NewS3(storage.S3Config{Bucket: "uploads"})
	assert.ErrorIs(t, err, storage.ErrInvalidConfig)

	s, err := storage.NewS3(storage.S3Config{
		Bucket: "uploads", AccessKey: "key", SecretKey: "secret",
		Endpoint: "http://localhost:9000", PathStyle: true,
	})
	require.NoError(t, err)
	assert.NotNil(t, s)
}
