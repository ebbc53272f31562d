package files

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/repairdesk/internal/domain/models"
)

var (
	pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
	pdfHeader = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n")
)

type memStore struct {
	objects map[string][]byte
}

func (m *memStore) Put(_ context.Context, key string, data []byte, _ string) error {
	m.objects[key] = data
	return nil
}

func (m *memStore) PresignedURL(_ context.Context, key string) (string, error) {
	if _, ok := m.objects[key]; !ok {
		return "", models.NotFoundf("fichier introuvable")
	}
	return "https://files.local/" + key + "?sig=x", nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func TestDetect(t *testing.T) {
	ct, ext, err := Detect(pngHeader, 1024)
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)
	assert.Equal(t, ".png", ext)

	ct, ext, err = Detect(pdfHeader, 1024)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", ct)
	assert.Equal(t, ".pdf", ext)

	_, _, err = Detect([]byte("#!/bin/sh\necho hi\n"), 1024)
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, _, err = Detect(pngHeader, 10)
	assert.ErrorIs(t, err, ErrTooLarge)

	_, _, err = Detect(nil, 10)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestUploader(t *testing.T) {
	store := &memStore{objects: map[string][]byte{}}
	u := NewUploader(store, 1024, nil)

	f, err := u.Upload(context.Background(), "interventions", "abc", `C:\photos\four.png`, pngHeader)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(f.Key, "interventions/abc/"))
	assert.True(t, strings.HasSuffix(f.Key, ".png"))
	assert.Equal(t, "four.png", f.Nom)
	assert.Equal(t, int64(len(pngHeader)), f.Taille)
	assert.Contains(t, store.objects, f.Key)

	url, err := u.URL(context.Background(), "/"+f.Key)
	require.NoError(t, err)
	assert.Contains(t, url, f.Key)

	u.Discard(context.Background(), f.Key)
	assert.Empty(t, store.objects)
}

func TestUploader_RejectsBeforeWriting(t *testing.T) {
	store := &memStore{objects: map[string][]byte{}}
	u := NewUploader(store, 16, nil)

	_, err := u.Upload(context.Background(), "vehicules", "abc", "x.png", pngHeader)
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.Empty(t, store.objects)
}

func TestUploader_Disabled(t *testing.T) {
	u := NewUploader(nil, 1024, nil)
	assert.False(t, u.Enabled())
	_, err := u.Upload(context.Background(), "interventions", "abc", "x.png", pngHeader)
	assert.Error(t, err)
}
