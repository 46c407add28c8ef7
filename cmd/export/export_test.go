package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ValentinKolb/qmx/lib/common"
	"github.com/ValentinKolb/qmx/lib/manager"
	"github.com/ValentinKolb/qmx/lib/student"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func newManager(t *testing.T) *manager.Manager {
	cfg := common.DefaultConfig()
	cfg.DataDir = t.TempDir()
	m, err := manager.New(cfg)
	require.NoError(t, err)
	return m
}

func TestExportYAML(t *testing.T) {
	m := newManager(t)
	for _, name := range []string{"Alice", "Bob"} {
		_, err := m.CreateStudent(manager.NewStudentBuilder(name, 30).Class(student.ClassMonth))
		require.NoError(t, err)
	}

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, m, common.KindStudent, "yaml"))

	var decoded map[uint64]student.Student
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "Alice", decoded[1].Name)
	assert.Equal(t, student.ClassMonth, decoded[2].Class)
	assert.Less(t, strings.Index(buf.String(), "Alice"), strings.Index(buf.String(), "Bob"))
}

func TestExportJSONMatchesDatabaseFormat(t *testing.T) {
	m := newManager(t)
	_, err := m.RecordCash(manager.NewCashBuilder(250).Note("fee"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, m, common.KindCash, "json"))
	assert.True(t, strings.HasPrefix(buf.String(), `{"1":`))

	assert.Error(t, Export(&buf, m, common.KindCash, "xml"))
	assert.Error(t, Export(&buf, m, "lessons", "yaml"))
}
