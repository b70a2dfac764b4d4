package installdb

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB() *DB {
	return New(afero.NewMemMapFs(), "/data/LauncherInstalled.dat")
}

func TestFindByArtifactIDMissingFileReturnsNotFound(t *testing.T) {
	db := newTestDB()
	_, err := db.FindByArtifactID("abc")
	require.Error(t, err)
	var notFound *ErrNotFound
	require.ErrorAs(t, err, &notFound)
}

func TestAddOrUpdateInsertsThenFinds(t *testing.T) {
	db := newTestDB()
	obj := Object{ArtifactID: "fortnite", AppName: "Fortnite", AppVersion: "1.0"}
	require.NoError(t, db.AddOrUpdate(obj))

	found, err := db.FindByArtifactID("fortnite")
	require.NoError(t, err)
	assert.Equal(t, obj, found)
}

func TestAddOrUpdateReplacesExistingEntry(t *testing.T) {
	db := newTestDB()
	require.NoError(t, db.AddOrUpdate(Object{ArtifactID: "fortnite", AppVersion: "1.0"}))
	require.NoError(t, db.AddOrUpdate(Object{ArtifactID: "fortnite", AppVersion: "2.0"}))

	found, err := db.FindByArtifactID("fortnite")
	require.NoError(t, err)
	assert.Equal(t, "2.0", found.AppVersion)
}

func TestUpdateFailsWhenArtifactMissing(t *testing.T) {
	db := newTestDB()
	err := db.Update(Object{ArtifactID: "missing"})
	require.Error(t, err)
}

func TestRemoveByArtifactIDDeletesEntry(t *testing.T) {
	db := newTestDB()
	require.NoError(t, db.AddOrUpdate(Object{ArtifactID: "a"}))
	require.NoError(t, db.AddOrUpdate(Object{ArtifactID: "b"}))

	require.NoError(t, db.RemoveByArtifactID("a"))

	_, err := db.FindByArtifactID("a")
	require.Error(t, err)
	found, err := db.FindByArtifactID("b")
	require.NoError(t, err)
	assert.Equal(t, "b", found.ArtifactID)
}

func TestRemoveByArtifactIDMissingReturnsNotFound(t *testing.T) {
	db := newTestDB()
	err := db.RemoveByArtifactID("nope")
	require.Error(t, err)
}
