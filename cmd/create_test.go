package cmd

import (
	"testing"

	"github.com/sparkify/sparkdl/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCmd(t *testing.T) {
	cmd := getCreateCmd()
	assert.Equal(t, "create", cmd.Use)
	assert.NotNil(t, cmd.RunE)

	force := cmd.Flags().Lookup("force")
	require.NotNil(t, force)
	assert.Equal(t, "f", force.Shorthand)
	assert.Equal(t, "false", force.DefValue,
		"existing tables are never dropped silently by default")
}

func TestCreateHelpNamesStarSchema(t *testing.T) {
	help := helpOf(t, getCreateCmd)

	tables := map[string]string{
		schema.SongsTableName:     "songs",
		schema.ArtistsTableName:   "artists",
		schema.UsersTableName:     "users",
		schema.TimeTableName:      "time",
		schema.SongplaysTableName: "songplays",
	}
	for table, word := range tables {
		assert.Contains(t, help, word, table)
	}
	assert.Contains(t, help, "primary keys",
		"postgres runs keep keys of created tables")
	assert.Contains(t, help, "sparkdl create --force")
}
