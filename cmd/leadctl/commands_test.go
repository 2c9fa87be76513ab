package main

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fsrviagens/leads-api/internal/entity"
	"github.com/fsrviagens/leads-api/internal/infra/database"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// TestMigrateAndList - migrate cria o schema e leads list mostra o que foi gravado
func TestMigrateAndList(t *testing.T) {
	name := "leadctl_" + uuid.NewString()
	url := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	// mantém o banco em memória vivo entre os comandos
	keep, err := database.Open(database.Config{Driver: database.DriverSQLite, URL: url})
	require.NoError(t, err)
	defer keep.Close()

	out, err := runCmd(t, "--driver", "sqlite", "--database-url", url, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "schema up to date")

	lead, err := entity.NewLead("Ana Silva", "ana@example.com", "61983163710")
	require.NoError(t, err)
	lead.Destination = "Natal"
	require.NoError(t, database.NewLeadRepository(keep).Create(context.Background(), lead))

	out, err = runCmd(t, "--driver", "sqlite", "--database-url", url, "leads", "list", "--limit", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "EMAIL")
	assert.Contains(t, out, "ana@example.com")
	assert.Contains(t, out, "Natal")

	out, err = runCmd(t, "--driver", "sqlite", "--database-url", url, "leads", "list", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"email": "ana@example.com"`)
}

func TestMissingDatabaseURL(t *testing.T) {
	t.Setenv("LEADS_DB_URL", "")
	t.Setenv("DATABASE_URL", "")

	_, err := runCmd(t, "migrate")
	assert.ErrorContains(t, err, "database url required")
}
